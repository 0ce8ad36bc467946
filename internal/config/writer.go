package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/csync-dev/csync/internal/domain"
)

// AddFile appends a tracked file record to the config file at path.
// Used by `csync init`; the rest of the config is preserved.
func AddFile(path string, record domain.FileRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	for _, f := range cfg.Files {
		if f.Name == record.Name {
			return fmt.Errorf("%w: file already tracked: %s", domain.ErrConfigInvalid, record.Name)
		}
	}

	files := make([]map[string]string, 0, len(cfg.Files)+1)
	for _, f := range cfg.Files {
		files = append(files, fileEntry(f))
	}
	files = append(files, fileEntry(record))

	v.Set("files", files)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func fileEntry(f domain.FileRecord) map[string]string {
	entry := map[string]string{
		"name": f.Name,
		"path": f.Path,
	}
	if f.KeyRef != "" {
		entry["key_ref"] = f.KeyRef
	}
	return entry
}
