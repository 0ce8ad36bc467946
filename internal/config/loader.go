package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/csync-dev/csync/internal/core/checksum"
	"github.com/csync-dev/csync/internal/crypto"
	"github.com/csync-dev/csync/internal/domain"
)

// DefaultConfigPaths returns the default paths searched for config files
func DefaultConfigPaths() []string {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "csync"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "csync"))
		paths = append(paths, filepath.Join(homeDir, ".csync"))
	}

	return paths
}

// Load reads and parses a configuration file. If path is empty, the
// default locations are searched for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return unmarshal(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return unmarshal(v)
}

// unmarshal decodes, applies defaults and validates
func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	applyDefaults(&cfg)

	for i := range cfg.Files {
		cfg.Files[i].Path = ExpandPath(cfg.Files[i].Path)
		if cfg.Files[i].KeyRef != "" {
			cfg.Files[i].KeyRef = ExpandPath(cfg.Files[i].KeyRef)
		}
	}
	if cfg.Crypto.KeyRef != "" {
		cfg.Crypto.KeyRef = ExpandPath(cfg.Crypto.KeyRef)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in unset fields
func applyDefaults(cfg *Config) {
	if cfg.Hash == "" {
		cfg.Hash = checksum.SHA1
	}
	if cfg.Crypto.Cipher == "" {
		cfg.Crypto.Cipher = crypto.TypeGPG
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Daemon.Interval == "" {
		cfg.Daemon.Interval = "15m"
	}
}
