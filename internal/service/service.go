// Package service drives sync runs: it sequences the local history
// update, the remote fetch, the reconciliation decision and the
// resulting transfer for each tracked file.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/csync-dev/csync/internal/config"
	"github.com/csync-dev/csync/internal/core/checksum"
	"github.com/csync-dev/csync/internal/core/history"
	"github.com/csync-dev/csync/internal/crypto"
	"github.com/csync-dev/csync/internal/lock"
	"github.com/csync-dev/csync/internal/state"
	"github.com/csync-dev/csync/internal/transport"
	"github.com/csync-dev/csync/internal/transport/gdrive"
	"github.com/csync-dev/csync/internal/transport/local"
	"github.com/csync-dev/csync/internal/transport/scp"

	"github.com/csync-dev/csync/internal/domain"
)

// CipherFactory builds the cipher for one tracked file, honoring
// per-file key overrides
type CipherFactory func(rec domain.FileRecord) (crypto.Cipher, error)

// SyncService orchestrates sync runs over the tracked files
type SyncService struct {
	cfg       *config.Config
	transport transport.Transport
	cipherFor CipherFactory
	calc      checksum.Calculator
	store     *history.Store
	journal   *state.Journal
	lock      *lock.FileLock

	// now is the clock, replaceable in tests
	now func() time.Time
}

// New creates a sync service with explicit collaborators
func New(cfg *config.Config, tr transport.Transport, cipherFor CipherFactory, journal *state.Journal) (*SyncService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if tr == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if cipherFor == nil {
		return nil, fmt.Errorf("cipher factory cannot be nil")
	}

	fileLock, err := lock.New(cfg.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("create run lock: %w", err)
	}

	return &SyncService{
		cfg:       cfg,
		transport: tr,
		cipherFor: cipherFor,
		calc:      checksum.NewDefault(),
		store:     history.NewStore(),
		journal:   journal,
		lock:      fileLock,
		now:       time.Now,
	}, nil
}

// NewFromConfig wires the transport, cipher and journal from the
// configuration
func NewFromConfig(ctx context.Context, cfg *config.Config) (*SyncService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	tr, err := buildTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	journal, err := state.Open(cfg.GetDataDir())
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("open run journal: %w", err)
	}

	svc, err := New(cfg, tr, buildCipherFactory(cfg), journal)
	if err != nil {
		tr.Close()
		journal.Close()
		return nil, err
	}
	return svc, nil
}

// buildTransport selects the transport backend from config
func buildTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	switch cfg.Remote.Type {
	case transport.TypeLocal:
		return local.New(config.ExpandPath(cfg.Remote.Path))
	case transport.TypeSCP:
		return scp.New(cfg.Remote.Host, cfg.Remote.Path)
	case transport.TypeGDrive:
		return gdrive.New(ctx, cfg.Remote.ClientID, cfg.Remote.ClientSecret,
			cfg.Remote.TokenPath, cfg.Remote.Path)
	default:
		return nil, fmt.Errorf("%w: unknown remote type: %s", domain.ErrConfigInvalid, cfg.Remote.Type)
	}
}

// buildCipherFactory creates per-file ciphers from config
func buildCipherFactory(cfg *config.Config) CipherFactory {
	return func(rec domain.FileRecord) (crypto.Cipher, error) {
		keyRef := rec.KeyRef
		if keyRef == "" {
			keyRef = cfg.Crypto.KeyRef
		}

		switch cfg.Crypto.Cipher {
		case crypto.TypeGPG:
			return crypto.NewGPGCipher(keyRef), nil
		case crypto.TypeChaCha:
			return crypto.NewChaChaCipherFromFile(keyRef)
		default:
			return nil, fmt.Errorf("%w: unknown cipher: %s", domain.ErrConfigInvalid, cfg.Crypto.Cipher)
		}
	}
}

// AcquireLock takes the run lock for this machine
func (s *SyncService) AcquireLock() error {
	return s.lock.Acquire()
}

// ReleaseLock releases the run lock
func (s *SyncService) ReleaseLock() error {
	return s.lock.Release()
}

// Journal returns the run journal, or nil when not configured
func (s *SyncService) Journal() *state.Journal {
	return s.journal
}

// Close releases the transport and the journal
func (s *SyncService) Close() error {
	err := s.transport.Close()
	if s.journal != nil {
		if jerr := s.journal.Close(); err == nil {
			err = jerr
		}
	}
	return err
}
