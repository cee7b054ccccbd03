package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sheetledger/internal/cli"
	"sheetledger/internal/session"
)

// oauthCmd checks the configured OAuth client without starting the server.
func oauthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oauth-url",
		Short: "Print the Google consent URL for the configured OAuth client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			pc, err := cli.OAuthProviderConfig(cfg, false)
			if err != nil {
				return err
			}
			p, err := session.NewProvider(pc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Redirect URL: %s\nOpen this URL to authorize:\n%s\n",
				cfg.RedirectURL(), p.AuthCodeURL(uuid.NewString()))
			return nil
		},
	}
}
