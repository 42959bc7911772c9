package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pfpharvest/pkg/auth"
	"pfpharvest/pkg/config"
	"pfpharvest/pkg/logger"
	"pfpharvest/pkg/scraper"
	"pfpharvest/pkg/ui"
)

var (
	// Run command flags
	outputDir   string
	sampleSize  int
	targetCount int
	seed        int64
	eligibility string
	profile     string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl the catalog and save a random sample of collection thumbnails",
	Long: `Crawl the catalog until enough eligible collections are found, sample them
at random and save each collection image as a PNG thumbnail under
<output>/pfps/<name>.png.

The catalog API key is read from OPENSEA_API_KEY, the configuration file, or
the key stored with 'pfpharvest apikey set'.`,
	Example: `  # Default run: crawl 2000 collections, keep 200
  pfpharvest run

  # Small reproducible run into a scratch directory
  pfpharvest run --sample-size 20 --target-count 100 --seed 42 --output /tmp/pfps

  # Only keep collections whose image lives on IPFS
  pfpharvest run --eligibility ipfs-only`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base output directory (default ./outputs)")
	runCmd.Flags().IntVarP(&sampleSize, "sample-size", "n", 0, "number of collections to sample (default 200)")
	runCmd.Flags().IntVar(&targetCount, "target-count", 0, "number of eligible collections to crawl (default 2000)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for sampling (0 uses the clock)")
	runCmd.Flags().StringVar(&eligibility, "eligibility", "", "eligibility policy: uri-scheme, http-substring, non-empty, ipfs-only")
	runCmd.Flags().StringVar(&profile, "profile", auth.DefaultProfile, "stored API key profile to use")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if sampleSize > 0 {
		flags["sample-size"] = sampleSize
	}
	if targetCount > 0 {
		flags["target-count"] = targetCount
	}
	if cmd.Flags().Changed("seed") {
		flags["seed"] = seed
	}
	if eligibility != "" {
		flags["eligibility"] = eligibility
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", Version).Info("pfpharvest starting")

	resolveAPIKey(cfg, log)

	if !quiet {
		ui.PrintInfo("Output", cfg.PFPDirectory())
		ui.PrintInfo("Sample", fmt.Sprintf("%d of %d", cfg.Sampling.Size, cfg.Catalog.TargetCount))
	}

	s, err := scraper.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	report, runErr := s.Run(cmd.Context())
	if !quiet {
		ui.PrintSummary(cmd.OutOrStdout(), report)
	}
	if runErr != nil {
		log.WithError(runErr).ErrorWithFields("Run aborted", map[string]interface{}{
			"state": s.State().String(),
		})
		return runErr
	}

	if !quiet {
		ui.PrintSuccess(fmt.Sprintf("Saved %d thumbnails to %s", report.Persisted, cfg.PFPDirectory()))
	}
	return nil
}

// resolveAPIKey fills the catalog key from the credential stores when the
// configuration has none. A missing key only warns; the catalog rejects the
// first request and the run stops there.
func resolveAPIKey(cfg *config.Config, log logger.Logger) {
	if cfg.Catalog.APIKey != "" {
		return
	}

	manager, err := auth.NewManager(log)
	if err != nil {
		log.WithError(err).Warn("Credential stores unavailable")
	} else {
		cred, source, err := manager.Resolve(profile)
		if err == nil {
			cfg.Catalog.APIKey = cred.APIKey
			log.WithField("source", source).Debug("Using stored API key")
			return
		}
		if !errors.Is(err, auth.ErrCredentialsNotFound) {
			log.WithError(err).Warn("Failed to read stored API key")
		}
	}

	log.Warn("No catalog API key configured; catalog requests will be rejected")
	if !quiet {
		ui.PrintWarning(fmt.Sprintf("No API key found. Set %s or run 'pfpharvest apikey set'", config.APIKeyEnv))
	}
}
