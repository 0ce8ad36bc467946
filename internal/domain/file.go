package domain

import (
	"fmt"
	"strings"
)

// FileRecord is the unit of tracking: one local plaintext file kept in
// sync with one encrypted copy on the remote store.
type FileRecord struct {
	// Name is the logical name of the tracked file (e.g. "notes.txt").
	// Remote identifiers are derived from it.
	Name string `mapstructure:"name"`

	// Path is the local plaintext path
	Path string `mapstructure:"path"`

	// KeyRef optionally overrides the global crypto key reference
	// for this file (passphrase file, gpg key id, ...)
	KeyRef string `mapstructure:"key_ref"`
}

// RemoteDataID returns the remote identifier of the encrypted content
func (r FileRecord) RemoteDataID() string {
	return r.Name + ".gpg"
}

// RemoteHistoryID returns the remote identifier of the history log
func (r FileRecord) RemoteHistoryID() string {
	return r.Name + ".history"
}

// HistoryPath returns the local history log path, kept next to the
// plaintext file
func (r FileRecord) HistoryPath() string {
	return r.Path + ".history"
}

// Validate checks if the record is properly configured. Logical names
// become remote identifiers and staging file names, so anything
// path-like or containing whitespace is rejected here rather than deep
// inside a run.
func (r FileRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: file name cannot be empty", ErrConfigInvalid)
	}
	if r.Name == "." || r.Name == ".." ||
		strings.ContainsAny(r.Name, "/\\") ||
		strings.ContainsAny(r.Name, " \t\r\n") {
		return fmt.Errorf("%w: invalid file name: %q", ErrConfigInvalid, r.Name)
	}
	if r.Path == "" {
		return fmt.Errorf("%w: file %s has no path", ErrConfigInvalid, r.Name)
	}
	return nil
}

// Relationship classifies two history logs against each other.
// It is derived on every run and never persisted.
type Relationship int

const (
	// Equal means both logs contain the same entry sequence
	Equal Relationship = iota
	// LocalAhead means the remote log is a proper prefix of the local one
	LocalAhead
	// RemoteAhead means the local log is a proper prefix of the remote one
	RemoteAhead
	// Diverged means neither log is a prefix of the other
	Diverged
)

// String returns the string representation of the relationship
func (r Relationship) String() string {
	switch r {
	case Equal:
		return "equal"
	case LocalAhead:
		return "local-ahead"
	case RemoteAhead:
		return "remote-ahead"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// ActionType represents what a sync run did for one file
type ActionType string

const (
	// ActionNone means both sides were already identical
	ActionNone ActionType = "none"

	// ActionPublish means the file was uploaded for the first time
	ActionPublish ActionType = "publish"

	// ActionUpload means the local version replaced the remote one
	ActionUpload ActionType = "upload"

	// ActionDownload means the remote version replaced the local one
	ActionDownload ActionType = "download"

	// ActionConflict means divergence was detected and a conflict copy
	// was written for manual merge
	ActionConflict ActionType = "conflict"
)

// RunResult summarizes one sync run for one tracked file
type RunResult struct {
	// Name of the tracked file
	Name string

	// Relationship between the local and remote histories.
	// Meaningful only when both sides existed.
	Relationship Relationship

	// Action that was taken
	Action ActionType

	// Appended reports whether this run recorded a new history entry
	// for a changed local file
	Appended bool

	// BackupPath is the backup created before overwriting the local
	// plaintext (download and conflict actions), empty otherwise
	BackupPath string

	// ConflictPath is the side file holding the decrypted remote
	// version when diverged, empty otherwise
	ConflictPath string
}
