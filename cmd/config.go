package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pfpharvest/pkg/auth"
	"pfpharvest/pkg/config"
	"pfpharvest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pfpharvest configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (OPENSEA_API_KEY, PFPHARVEST_*)
  - .env file in the working directory or ~/.pfpharvest.env
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file holding every option at its default value.

The file is created as ./pfpharvest.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

The API key is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "pfpharvest.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintf(cmd.OutOrStdout(), "1. Export %s or run 'pfpharvest apikey set'\n", config.APIKeyEnv)
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'pfpharvest config validate' to check the file")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Start a harvest with 'pfpharvest run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Catalog.APIKey != "" {
		display.Catalog.APIKey = auth.MaskKey(display.Catalog.APIKey)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Catalog.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("%s is not set; a stored key will be used if present", config.APIKeyEnv))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	for _, w := range warnings {
		ui.PrintWarning(w)
	}
	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Catalog: %s (target %d, policy %s)\n", cfg.Catalog.BaseURL, cfg.Catalog.TargetCount, cfg.Catalog.Eligibility)
	fmt.Fprintf(out, "  Sample size: %d\n", cfg.Sampling.Size)
	fmt.Fprintf(out, "  Gateways: %d\n", len(cfg.Gateway.Hosts))
	fmt.Fprintf(out, "  Output: %s\n", cfg.PFPDirectory())
	fmt.Fprintf(out, "  Fetch interval: %s\n", cfg.RateLimit.FetchInterval)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
