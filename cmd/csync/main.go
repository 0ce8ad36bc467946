// csync keeps single files consistent across machines through an
// untrusted remote store that only ever sees ciphertext.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/config"
	"github.com/csync-dev/csync/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Sync single files across machines via an encrypted remote store",
	Long: `csync keeps individual files consistent across machines using a shared
remote store that is never trusted with plaintext. Each machine records
an append-only history of the fingerprints it has seen; histories are
compared by prefix containment, so concurrent edits are detected as a
conflict instead of being silently overwritten.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: search ./, ~/.config/csync, ~/.csync)")
}

// loadConfig reads the configuration and initializes logging from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logConfig := logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
	}
	if cfg.Log.File != "" {
		logConfig.File = logger.FileConfig{
			Path:       config.ExpandPath(cfg.Log.File),
			MaxSizeMB:  cfg.Log.MaxSize,
			MaxAgeDays: cfg.Log.MaxAge,
		}
	}
	if err := logger.Init(logConfig); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, nil
}

func main() {
	defer logger.Shutdown()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Shutdown()
		os.Exit(1)
	}
}
