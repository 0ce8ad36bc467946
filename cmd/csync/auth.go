package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/domain"
	"github.com/csync-dev/csync/internal/transport"
	"github.com/csync-dev/csync/internal/transport/gdrive"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to the configured remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Remote.Type != transport.TypeGDrive {
			return fmt.Errorf("%w: remote type %q needs no authorization",
				domain.ErrConfigInvalid, cfg.Remote.Type)
		}

		auth := gdrive.NewAuthenticator(cfg.Remote.ClientID,
			cfg.Remote.ClientSecret, cfg.Remote.TokenPath)
		if _, err := auth.Authenticate(cmd.Context()); err != nil {
			return err
		}

		fmt.Printf("Authorization complete; token saved to %s\n", auth.TokenPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
