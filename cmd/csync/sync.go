package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/domain"
	"github.com/csync-dev/csync/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync [name...]",
	Short: "Run one sync pass, for all tracked files or the named ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// restrict the pass when names were given
		if len(args) > 0 {
			var selected []domain.FileRecord
			for _, name := range args {
				rec, err := cfg.GetFile(name)
				if err != nil {
					return err
				}
				selected = append(selected, *rec)
			}
			cfg.Files = selected
		}

		if len(cfg.Files) == 0 {
			return fmt.Errorf("no tracked files; add one with `csync init`")
		}

		svc, err := service.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		return svc.RunAll(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
