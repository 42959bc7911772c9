package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pfpharvest/pkg/auth"
	"pfpharvest/pkg/logger"
	"pfpharvest/pkg/ui"
)

// apikeyCmd represents the apikey command
var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the catalog API key",
	Long: `Store, inspect and remove the OpenSea API key.

Keys are stored in the system keychain when available, otherwise in an
encrypted file under the user config directory. OPENSEA_API_KEY always takes
precedence over a stored key.`,
}

var apikeySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store an API key",
	Long: `Store an API key for later runs.

Without an argument the key is read from the terminal without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAPIKeySet,
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the masked API key and where it comes from",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyShow,
}

var apikeyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyDelete,
}

var apikeyGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to obtain and configure an API key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.WriteAPIKeyGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
	apikeyCmd.AddCommand(apikeyDeleteCmd)
	apikeyCmd.AddCommand(apikeyGuideCmd)

	apikeyCmd.PersistentFlags().StringVar(&profile, "profile", auth.DefaultProfile, "key profile name")
}

func runAPIKeySet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var key string
	if len(args) == 1 {
		key = strings.TrimSpace(args[0])
	} else {
		fmt.Fprint(cmd.OutOrStdout(), "API key: ")
		key, err = readSecret()
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}
	if key == "" {
		return auth.ErrInvalidCredentials
	}

	source, err := manager.Store(&auth.Credential{Profile: profile, APIKey: key})
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("API key stored in %s", source))
	return nil
}

func runAPIKeyShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred, source, err := manager.Resolve(profile)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No API key found")
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'pfpharvest apikey guide' for setup instructions.")
			return nil
		}
		return err
	}

	ui.PrintInfo("Profile", cred.Profile)
	ui.PrintInfo("Key", auth.MaskKey(cred.APIKey))
	ui.PrintInfo("Source", source)
	return nil
}

func runAPIKeyDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(profile); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored API key for profile", profile)
			return nil
		}
		return err
	}

	ui.PrintSuccess("API key removed")
	return nil
}

// readSecret reads a line from stdin without echoing when it is a terminal
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	return readLine(os.Stdin)
}

// readLine returns the first line of r. Input without a trailing newline is accepted.
func readLine(r io.Reader) (string, error) {
	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
