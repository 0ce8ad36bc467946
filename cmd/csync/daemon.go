package main

import (
	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/service"
)

var (
	daemonStop     bool
	daemonInterval string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run sync passes periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if daemonStop {
			return service.StopRunning(cfg)
		}
		if daemonInterval != "" {
			cfg.Daemon.Interval = daemonInterval
		}

		svc, err := service.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		d, err := service.NewDaemonService(cfg, svc)
		if err != nil {
			return err
		}
		return d.Run(cmd.Context())
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonStop, "stop", false,
		"stop a running daemon instead of starting one")
	daemonCmd.Flags().StringVar(&daemonInterval, "interval", "",
		"override the configured interval between passes, e.g. 5m")
	rootCmd.AddCommand(daemonCmd)
}
