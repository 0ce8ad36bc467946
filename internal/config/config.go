package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/csync-dev/csync/internal/core/checksum"
	"github.com/csync-dev/csync/internal/crypto"
	"github.com/csync-dev/csync/internal/domain"
	"github.com/csync-dev/csync/internal/transport"
)

// Config is the complete configuration for csync
type Config struct {
	// Remote describes the store all tracked files sync against
	Remote RemoteConfig `mapstructure:"remote"`

	// Crypto selects and configures the cipher
	Crypto CryptoConfig `mapstructure:"crypto"`

	// Files are the tracked file records
	Files []domain.FileRecord `mapstructure:"files"`

	// Hash selects the fingerprint algorithm (sha1 by default)
	Hash checksum.Algorithm `mapstructure:"hash"`

	// Origin labels new history entries; defaults to the hostname
	Origin string `mapstructure:"origin"`

	// TempDir holds transfer artifacts; defaults to the system temp dir
	TempDir string `mapstructure:"temp_dir"`

	// DataDir holds the lock file and the run journal
	DataDir string `mapstructure:"data_dir"`

	// Backup controls local backup retention
	Backup BackupConfig `mapstructure:"backup"`

	// Log configures logging
	Log LogConfig `mapstructure:"log"`

	// Daemon configures the periodic sync daemon
	Daemon DaemonConfig `mapstructure:"daemon"`
}

// RemoteConfig selects a transport backend
type RemoteConfig struct {
	// Type is the transport type: local, scp or gdrive
	Type transport.Type `mapstructure:"type"`

	// Path is the store directory: a mounted directory for local, the
	// remote-side directory for scp, a folder path for gdrive
	Path string `mapstructure:"path"`

	// Host is the ssh destination for scp transports
	Host string `mapstructure:"host"`

	// Gdrive OAuth options
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenPath    string `mapstructure:"token_path"`
}

// CryptoConfig selects a cipher backend
type CryptoConfig struct {
	// Cipher is the cipher type: gpg or chacha
	Cipher crypto.Type `mapstructure:"cipher"`

	// KeyRef is the passphrase file; optional for gpg (agent)
	KeyRef string `mapstructure:"key_ref"`
}

// BackupConfig controls local backup retention
type BackupConfig struct {
	// Keep is how many backups to retain per file; 0 keeps all.
	// The most recent backup is never purged.
	Keep int `mapstructure:"keep"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	File    string `mapstructure:"file"`
	MaxSize int    `mapstructure:"max_size_mb"`
	MaxAge  int    `mapstructure:"max_age_days"`
}

// DaemonConfig configures the periodic sync daemon
type DaemonConfig struct {
	// Interval between sync passes, e.g. "15m"
	Interval string `mapstructure:"interval"`
}

// GetInterval parses the configured interval
func (d DaemonConfig) GetInterval() (time.Duration, error) {
	if d.Interval == "" {
		return 15 * time.Minute, nil
	}
	interval, err := time.ParseDuration(d.Interval)
	if err != nil || interval <= 0 {
		return 0, fmt.Errorf("%w: invalid daemon interval: %q", domain.ErrConfigInvalid, d.Interval)
	}
	return interval, nil
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if !c.Remote.Type.IsValid() {
		return fmt.Errorf("%w: invalid remote type: %q", domain.ErrConfigInvalid, c.Remote.Type)
	}
	if c.Remote.Type == transport.TypeSCP && c.Remote.Host == "" {
		return fmt.Errorf("%w: scp remote requires a host", domain.ErrConfigInvalid)
	}
	if c.Remote.Type == transport.TypeLocal && c.Remote.Path == "" {
		return fmt.Errorf("%w: local remote requires a path", domain.ErrConfigInvalid)
	}
	if c.Remote.Type == transport.TypeGDrive && (c.Remote.ClientID == "" || c.Remote.ClientSecret == "") {
		return fmt.Errorf("%w: gdrive remote requires client_id and client_secret", domain.ErrConfigInvalid)
	}

	if !c.Crypto.Cipher.IsValid() {
		return fmt.Errorf("%w: invalid cipher: %q", domain.ErrConfigInvalid, c.Crypto.Cipher)
	}
	if c.Crypto.Cipher == crypto.TypeChaCha && c.Crypto.KeyRef == "" {
		return fmt.Errorf("%w: chacha cipher requires key_ref", domain.ErrConfigInvalid)
	}

	if !c.Hash.IsValid() {
		return fmt.Errorf("%w: invalid hash algorithm: %q", domain.ErrConfigInvalid, c.Hash)
	}

	if _, err := c.Daemon.GetInterval(); err != nil {
		return err
	}

	names := make(map[string]bool)
	paths := make(map[string]bool)
	for _, f := range c.Files {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("file entry %q: %w", f.Name, err)
		}
		if names[f.Name] {
			return fmt.Errorf("%w: duplicate file name: %s", domain.ErrConfigInvalid, f.Name)
		}
		if paths[f.Path] {
			return fmt.Errorf("%w: duplicate file path: %s", domain.ErrConfigInvalid, f.Path)
		}
		names[f.Name] = true
		paths[f.Path] = true
	}

	return nil
}

// GetFile returns a tracked file record by logical name
func (c *Config) GetFile(name string) (*domain.FileRecord, error) {
	for i := range c.Files {
		if c.Files[i].Name == name {
			return &c.Files[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotTracked, name)
}

// GetDataDir returns the data directory, defaulting to
// ~/.local/share/csync
func (c *Config) GetDataDir() string {
	if c.DataDir != "" {
		return ExpandPath(c.DataDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "csync")
	}
	return ".csync-data"
}

// GetTempDir returns the temp directory for transfer artifacts
func (c *Config) GetTempDir() string {
	if c.TempDir != "" {
		return ExpandPath(c.TempDir)
	}
	return os.TempDir()
}

// GetOrigin returns the origin label for new history entries
func (c *Config) GetOrigin() string {
	if c.Origin != "" {
		return c.Origin
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
