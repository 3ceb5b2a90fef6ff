package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kumbirai/google-drive-backup/internal/auth"
	"github.com/kumbirai/google-drive-backup/internal/config"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Manage authentication with the Google Drive API",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Google Drive",
	Long:  "Run the OAuth2 flow and store the resulting credentials",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  "Display the stored credential and whether it needs refreshing",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func newAuthManager() (*auth.Manager, error) {
	cfg, err := config.Load(globalFlags.Config)
	if err != nil {
		return nil, err
	}

	mgr := auth.NewManager(newTokenStorage(cfg), GetLogger())
	if err := mgr.LoadClientSecretFile(cfg.CredentialsFile); err != nil {
		return nil, err
	}
	return mgr, nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}

	creds, err := mgr.Authenticate(context.Background(), auth.OpenBrowser,
		auth.OAuthAuthOptions{NoBrowser: globalFlags.NoBrowser})
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	fmt.Println("Successfully authenticated!")
	fmt.Printf("Token store: %s\n", mgr.StorageName())
	fmt.Printf("Expires:     %s\n", creds.ExpiryDate.Format(time.RFC3339))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}

	if err := mgr.DeleteCredentials(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	fmt.Println("Credentials removed.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}

	creds, err := mgr.LoadCredentials()
	if err != nil {
		fmt.Println("Not authenticated. Run 'drive-backup auth login'.")
		return nil
	}

	fmt.Printf("Token store: %s\n", mgr.StorageName())
	fmt.Printf("Scopes:      %v\n", creds.Scopes)
	fmt.Printf("Expires:     %s\n", creds.ExpiryDate.Format(time.RFC3339))
	if mgr.NeedsRefresh(creds) {
		if creds.RefreshToken != "" {
			fmt.Println("Status:      expired (will refresh on next run)")
		} else {
			fmt.Println("Status:      expired (re-authentication required)")
		}
	} else {
		fmt.Println("Status:      valid")
	}
	return nil
}
