package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"osudl/pkg/auth"
	"osudl/pkg/ui"
)

var (
	checkCredentials  bool
	deleteCredentials bool
)

// credentialsCmd represents the credentials command
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Check or delete stored osu! credentials",
	Long: `Check or delete the osu! credentials stored by osudl.

Credentials are looked up in:
  - System keychain (when available)
  - Encrypted file in the osudl home directory
  - Plain credentials.json written by older versions
  - OSUDL_USERNAME and OSUDL_PASSWORD environment variables`,
	Example: `  # Show where credentials are stored
  osudl credentials --check

  # Remove stored credentials
  osudl credentials --delete`,
	Args: cobra.NoArgs,
	RunE: runCredentials,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)

	credentialsCmd.Flags().BoolVarP(&checkCredentials, "check", "c", false, "check if credentials are stored")
	credentialsCmd.Flags().BoolVarP(&deleteCredentials, "delete", "d", false, "delete stored credentials")
	credentialsCmd.MarkFlagsMutuallyExclusive("check", "delete")
	credentialsCmd.MarkFlagsOneRequired("check", "delete")
}

func runCredentials(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	if checkCredentials {
		return checkStored(manager)
	}
	return deleteStored(manager)
}

func checkStored(manager *auth.Manager) error {
	store, ok := manager.Check()
	if !ok {
		ui.PrintWarning("There are no stored credentials")
		return nil
	}

	ui.PrintInfo("Credentials stored in", store)
	if creds, err := manager.Load(); err == nil {
		masked := auth.SanitizeCredentials(creds)
		ui.PrintInfo("Username", masked.Username)
		ui.PrintInfo("Password", masked.Password)
		if !masked.LastModified.IsZero() {
			ui.PrintInfo("Last modified", masked.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func deleteStored(manager *auth.Manager) error {
	deleted, err := manager.Delete()
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		ui.PrintWarning("There are no stored credentials to delete")
		return nil
	}
	if len(deleted) > 0 {
		ui.PrintSuccess(fmt.Sprintf("Credentials deleted from %s", strings.Join(deleted, ", ")))
	}
	if err != nil {
		ui.PrintError("Failed to delete credentials", err.Error())
		return err
	}
	return nil
}
