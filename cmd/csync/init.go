package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/config"
	"github.com/csync-dev/csync/internal/core/checksum"
	"github.com/csync-dev/csync/internal/core/history"
	"github.com/csync-dev/csync/internal/domain"
)

var initKeyRef string

var initCmd = &cobra.Command{
	Use:   "init <name> <path>",
	Short: "Start tracking a file under a logical name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], args[1]

		abs, err := filepath.Abs(config.ExpandPath(path))
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("local file %s: %w", abs, err)
		}

		target := configPath
		if target == "" {
			target, err = findConfigFile()
			if err != nil {
				return err
			}
		}

		rec := domain.FileRecord{Name: name, Path: abs, KeyRef: initKeyRef}
		if err := config.AddFile(target, rec); err != nil {
			return err
		}

		if err := seedHistory(cmd.Context(), target, rec); err != nil {
			return fmt.Errorf("seed history: %w", err)
		}

		fmt.Printf("Tracking %s as %q (config: %s)\n", abs, name, target)
		fmt.Println("The file will be published on the next `csync sync`.")
		return nil
	},
}

// seedHistory records the file's current fingerprint so the first sync
// starts from an observed state rather than an empty log
func seedHistory(ctx context.Context, configFile string, rec domain.FileRecord) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	store := history.NewStore()
	log, err := store.LoadOrEmpty(rec.HistoryPath())
	if err != nil {
		return err
	}

	fp, err := checksum.NewDefault().File(ctx, rec.Path, cfg.Hash)
	if err != nil {
		return err
	}
	if log.AppendIfChanged(fp, time.Now(), cfg.GetOrigin()) {
		return store.Save(rec.HistoryPath(), log)
	}
	return nil
}

// findConfigFile locates an existing config file in the default search
// paths
func findConfigFile() (string, error) {
	for _, dir := range config.DefaultConfigPaths() {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", domain.ErrConfigNotFound
}

func init() {
	initCmd.Flags().StringVar(&initKeyRef, "key-ref", "",
		"per-file key reference overriding the global crypto key")
	rootCmd.AddCommand(initCmd)
}
