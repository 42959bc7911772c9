package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"pfpharvest/pkg/ui"
)

var (
	// Version information, overridden at build time with -ldflags
	Version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pfpharvest",
	Short: "Harvest collection profile images into a thumbnail dataset",
	Long: `pfpharvest crawls the OpenSea collection catalog, draws a random sample of
collections and saves each collection's image as a 256px PNG thumbnail.

Images stored on IPFS are fetched through a fixed list of public gateways,
falling back to the next gateway whenever one fails. Records whose image cannot
be fetched or decoded are skipped; the run reports how many were saved.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
		if quiet {
			logLevel = "error"
		}
		if cmd.Name() == "run" && !quiet {
			ui.PrintLogo()
		}
	},
}

// Root returns the root command with every subcommand attached
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./pfpharvest.yaml or ~/.config/pfpharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`pfpharvest {{.Version}}
Commit: ` + gitCommit + `
Built: ` + buildDate + `
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", Version, gitCommit)
}
