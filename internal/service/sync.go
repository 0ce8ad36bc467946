package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/csync-dev/csync/internal/core/history"
	"github.com/csync-dev/csync/internal/core/reconcile"
	"github.com/csync-dev/csync/internal/crypto"
	"github.com/csync-dev/csync/internal/domain"
	"github.com/csync-dev/csync/internal/logger"
)

// SyncAll runs one sync pass over every tracked file. Failures are
// isolated per file; the pass continues and the first error is
// returned after all files have been attempted.
func (s *SyncService) SyncAll(ctx context.Context) error {
	log := logger.Get()

	var firstErr error
	for _, rec := range s.cfg.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := s.now()
		res, err := s.SyncFile(ctx, rec)
		end := s.now()

		if s.journal != nil {
			if jerr := s.journal.RecordResult(res, start, end, err); jerr != nil {
				log.Warn("failed to record run", "file", rec.Name, "error", jerr)
			}
		}

		if err != nil {
			log.Error("sync failed", "file", rec.Name, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("sync %s: %w", rec.Name, err)
			}
			continue
		}
		log.Info("sync finished",
			"file", rec.Name,
			"relationship", res.Relationship.String(),
			"action", string(res.Action))
	}
	return firstErr
}

// RunAll implements scheduler.Runner
func (s *SyncService) RunAll(ctx context.Context) error {
	if err := s.lock.Acquire(); err != nil {
		return err
	}
	defer s.lock.Release()
	return s.SyncAll(ctx)
}

// SyncFile runs the sync state machine for a single tracked file:
// update the local history, compare it against the remote history,
// then publish, upload, download or surface a conflict.
func (s *SyncService) SyncFile(ctx context.Context, rec domain.FileRecord) (domain.RunResult, error) {
	res := domain.RunResult{Name: rec.Name, Action: domain.ActionNone}
	log := logger.With("file", rec.Name)

	if err := rec.Validate(); err != nil {
		return res, err
	}

	cipher, err := s.cipherFor(rec)
	if err != nil {
		return res, err
	}

	tmp := newTempSet(s.cfg.GetTempDir())
	defer tmp.cleanup(log)

	// Step 1: bring the local history up to date with the file on
	// disk. The append is committed before anything touches the
	// network so a later failure cannot lose the observation.
	localLog, err := s.updateLocalHistory(ctx, rec, &res)
	if err != nil {
		return res, err
	}

	// Step 2: check what the remote holds
	dataExists, err := s.transport.Exists(ctx, rec.RemoteDataID())
	if err != nil {
		return res, err
	}
	histExists, err := s.transport.Exists(ctx, rec.RemoteHistoryID())
	if err != nil {
		return res, err
	}

	if !dataExists && !histExists {
		log.Info("remote is empty, publishing")
		if err := s.upload(ctx, rec, cipher, localLog, tmp); err != nil {
			return res, err
		}
		res.Relationship = domain.Equal
		res.Action = domain.ActionPublish
		return res, nil
	}
	if dataExists != histExists {
		return res, fmt.Errorf("%w: data present=%v, history present=%v",
			domain.ErrInconsistentRemote, dataExists, histExists)
	}

	remoteHistPath := tmp.path(rec.Name + ".history")
	if err := s.transport.Download(ctx, rec.RemoteHistoryID(), remoteHistPath); err != nil {
		return res, err
	}
	remoteLog, err := s.store.Load(remoteHistPath)
	if err != nil {
		return res, fmt.Errorf("remote history: %w", err)
	}

	// Step 3: reconcile
	rel := reconcile.Compare(localLog, remoteLog)
	res.Relationship = rel

	// Step 4: act on the relationship
	switch rel {
	case domain.Equal:
		log.Debug("histories are equal, nothing to do")

	case domain.LocalAhead:
		log.Info("local is ahead, uploading")
		if err := s.upload(ctx, rec, cipher, localLog, tmp); err != nil {
			return res, err
		}
		res.Action = domain.ActionUpload

	case domain.RemoteAhead:
		log.Info("remote is ahead, downloading")
		if err := s.download(ctx, rec, cipher, remoteLog, tmp, &res); err != nil {
			return res, err
		}
		res.Action = domain.ActionDownload

	case domain.Diverged:
		if _, err := os.Stat(rec.Path); err == nil {
			backupPath, err := s.backup(rec.Path)
			if err != nil {
				return res, err
			}
			res.BackupPath = backupPath
		}
		conflictPath, err := s.fetchConflictCopy(ctx, rec, cipher, tmp)
		if err != nil {
			return res, err
		}
		res.Action = domain.ActionConflict
		res.ConflictPath = conflictPath
		log.Warn("histories diverged, remote copy saved for manual resolution",
			"conflict", conflictPath)
	}

	return res, nil
}

// updateLocalHistory fingerprints the local file and appends an entry
// when the fingerprint differs from the latest recorded one. A missing
// local file is tolerated only when no history exists yet, which is
// the fresh-machine case before the first download.
func (s *SyncService) updateLocalHistory(ctx context.Context, rec domain.FileRecord, res *domain.RunResult) (*history.Log, error) {
	localLog, err := s.store.LoadOrEmpty(rec.HistoryPath())
	if err != nil {
		return nil, err
	}

	fp, err := s.calc.File(ctx, rec.Path, s.cfg.Hash)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && localLog.Len() == 0 {
			return localLog, nil
		}
		return nil, fmt.Errorf("fingerprint %s: %w", rec.Path, err)
	}

	if localLog.AppendIfChanged(fp, s.now(), s.cfg.GetOrigin()) {
		if err := s.store.Save(rec.HistoryPath(), localLog); err != nil {
			return nil, err
		}
		res.Appended = true
	}
	return localLog, nil
}

// upload encrypts the local file and pushes it together with the local
// history. The data object goes first; the history object is the
// commit point, so a failure in between leaves the remote resolvable
// on the next pass.
func (s *SyncService) upload(ctx context.Context, rec domain.FileRecord, cipher crypto.Cipher, localLog *history.Log, tmp *tempSet) error {
	plaintext, err := os.ReadFile(rec.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", rec.Path, err)
	}
	ciphertext, err := cipher.Encrypt(ctx, plaintext)
	if err != nil {
		return err
	}

	dataPath := tmp.path(rec.Name + ".gpg")
	if err := os.WriteFile(dataPath, ciphertext, 0o600); err != nil {
		return fmt.Errorf("stage ciphertext: %w", err)
	}
	if err := s.transport.Upload(ctx, dataPath, rec.RemoteDataID()); err != nil {
		return err
	}

	histPath := tmp.path(rec.Name + ".history")
	if err := s.store.Save(histPath, localLog); err != nil {
		return err
	}
	return s.transport.Upload(ctx, histPath, rec.RemoteHistoryID())
}

// download fetches and decrypts the remote file, backs up the current
// local plaintext, installs the new content and only then replaces the
// local history with the remote one.
func (s *SyncService) download(ctx context.Context, rec domain.FileRecord, cipher crypto.Cipher, remoteLog *history.Log, tmp *tempSet, res *domain.RunResult) error {
	plaintext, err := s.fetchPlaintext(ctx, rec, cipher, tmp)
	if err != nil {
		return err
	}

	if _, err := os.Stat(rec.Path); err == nil {
		backupPath, err := s.backup(rec.Path)
		if err != nil {
			return err
		}
		res.BackupPath = backupPath
	}

	if err := writeFileAtomic(rec.Path, plaintext); err != nil {
		return err
	}
	if err := s.store.Save(rec.HistoryPath(), remoteLog); err != nil {
		return err
	}

	s.purgeBackups(rec.Path)
	return nil
}

// fetchConflictCopy decrypts the remote content into a side file next
// to the local one, leaving the local plaintext and history untouched
func (s *SyncService) fetchConflictCopy(ctx context.Context, rec domain.FileRecord, cipher crypto.Cipher, tmp *tempSet) (string, error) {
	plaintext, err := s.fetchPlaintext(ctx, rec, cipher, tmp)
	if err != nil {
		return "", err
	}
	conflictPath := rec.Path + ".conflict_" + s.now().Format(backupStampLayout)
	if err := writeFileAtomic(conflictPath, plaintext); err != nil {
		return "", err
	}
	return conflictPath, nil
}

// fetchPlaintext downloads the remote data object into the temp dir
// and decrypts it
func (s *SyncService) fetchPlaintext(ctx context.Context, rec domain.FileRecord, cipher crypto.Cipher, tmp *tempSet) ([]byte, error) {
	dataPath := tmp.path(rec.Name + ".gpg")
	if err := s.transport.Download(ctx, rec.RemoteDataID(), dataPath); err != nil {
		return nil, err
	}
	ciphertext, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("read downloaded data: %w", err)
	}
	return cipher.Decrypt(ctx, ciphertext)
}

// writeFileAtomic writes data to a sibling temp file and renames it
// over path
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install %s: %w", path, err)
	}
	return nil
}

// tempSet tracks the staging files of one run so they can be removed
// together when the run ends
type tempSet struct {
	dir   string
	runID string
	paths []string
}

func newTempSet(dir string) *tempSet {
	return &tempSet{dir: dir, runID: uuid.NewString()}
}

// path reserves a staging path unique to this run
func (t *tempSet) path(name string) string {
	p := filepath.Join(t.dir, "csync-"+t.runID+"-"+name)
	t.paths = append(t.paths, p)
	return p
}

// cleanup removes the staged files, best effort
func (t *tempSet) cleanup(log logger.Logger) {
	for _, p := range t.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debug("failed to remove temp file", "path", p, "error", err)
		}
	}
}
