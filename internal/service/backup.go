package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/csync-dev/csync/internal/logger"
)

// backupStampLayout is the timestamp suffix on backup and conflict
// files, minute resolution
const backupStampLayout = "2006-01-02_1504"

const backupSuffix = ".backup_"

// backup copies the file at path to a timestamped sibling and returns
// the backup path. The original is left in place until the new content
// has been installed.
func (s *SyncService) backup(path string) (string, error) {
	backupPath := path + backupSuffix + s.now().Format(backupStampLayout)

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("close backup: %w", err)
	}
	return backupPath, nil
}

// purgeBackups removes the oldest backups of path beyond the
// configured retention count. A retention of zero disables purging.
// Failures are logged and swallowed; a stale backup is never worth
// failing a sync over.
func (s *SyncService) purgeBackups(path string) {
	keep := s.cfg.Backup.Keep
	if keep <= 0 {
		return
	}

	backups, err := listBackups(path)
	if err != nil {
		logger.Get().Warn("failed to list backups", "path", path, "error", err)
		return
	}
	if len(backups) <= keep {
		return
	}

	// the suffix is lexically ordered by time, oldest first
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-keep] {
		if err := os.Remove(old); err != nil {
			logger.Get().Warn("failed to remove old backup", "path", old, "error", err)
		}
	}
}

// listBackups returns the backup files for path
func listBackups(path string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	prefix := filepath.Base(path) + backupSuffix
	var backups []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		backups = append(backups, filepath.Join(filepath.Dir(path), e.Name()))
	}
	return backups, nil
}
