package domain

import "errors"

// History errors
var (
	// ErrCorruptHistory indicates a malformed persisted history log.
	// Fatal and never auto-repaired: a silently dropped entry would
	// corrupt containment comparisons.
	ErrCorruptHistory = errors.New("corrupt history log")
)

// Remote errors
var (
	// ErrInconsistentRemote indicates the remote history and ciphertext
	// existence disagree; requires manual intervention
	ErrInconsistentRemote = errors.New("inconsistent remote state")

	// ErrTransportFailure indicates a transport-level failure
	// (network, auth, subprocess); the run aborts but is safely
	// retryable by a later invocation
	ErrTransportFailure = errors.New("transport failure")

	// ErrNotFound indicates the requested remote or local resource
	// does not exist
	ErrNotFound = errors.New("resource not found")
)

// Crypto errors
var (
	// ErrCryptoFailure indicates encryption or decryption failed
	// (bad key, corrupt ciphertext)
	ErrCryptoFailure = errors.New("crypto failure")
)

// Tracking and run errors
var (
	// ErrNotTracked indicates the named file has no FileRecord
	ErrNotTracked = errors.New("file not tracked")

	// ErrSyncInProgress indicates another csync run holds the lock
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Config errors
var (
	// ErrConfigNotFound indicates no config file was found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates the config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
