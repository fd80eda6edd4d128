package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google OAuth tokens",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize textcal to manage your calendar events",
		Long: `Authorize textcal against a Google account and store the token.

Requires an OAuth client for a desktop app, configured through
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or the oauth section of the
config file. Open the printed URL, grant access, and paste the "code"
parameter from the URL the browser is redirected to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
				return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for login")
			}
			if account == "" {
				account = cfg.Account
			}

			provider := tokenProvider(cfg)
			// The code is pasted by hand, so the state only tags the URL.
			authURL, err := provider.AuthCodeURL(uuid.NewString())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n%s\n\n", account, authURL)
			fmt.Fprint(out, "Authorization code: ")

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && code == "" {
				return fmt.Errorf("reading authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return errors.New("no authorization code entered")
			}

			if _, err := provider.Exchange(cmd.Context(), account, code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token for account %q saved.\n", account)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account name to store the token under (default: from config)")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a usable token is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if account == "" {
				account = cfg.Account
			}

			provider := tokenProvider(cfg)
			if !provider.HasTokenForAccount(account) {
				return fmt.Errorf("no token stored for account %q (run 'textcal auth login --account %s')", account, account)
			}
			token, err := google.ResolveToken(cmd.Context(), provider, account)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %q: token %s, expires %s\n",
				account, logging.SanitizeToken(token.AccessToken), token.Expiry.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account name (default: from config)")
	return cmd
}
