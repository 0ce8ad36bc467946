package history

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists history logs as plain text files so they stay
// human-inspectable and diffable
type Store struct{}

// NewStore creates a Store
func NewStore() *Store {
	return &Store{}
}

// Load reads and parses the log at path. A missing file is an error;
// use LoadOrEmpty for the local side where absence means "not yet
// synced".
func (s *Store) Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	log, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return log, nil
}

// LoadOrEmpty reads and parses the log at path, returning an empty log
// if the file does not exist. Parse failures are still fatal; a corrupt
// log must never be treated as empty.
func (s *Store) LoadOrEmpty(path string) (*Log, error) {
	log, err := s.Load(path)
	if os.IsNotExist(err) {
		return &Log{}, nil
	}
	return log, err
}

// Save writes the log to path atomically (temp file in the same
// directory, then rename) so a crash never leaves a half-written log
func (s *Store) Save(path string, log *Log) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(log.Serialize()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
