// Package scp implements the transport interface over ssh and scp
// subprocesses, the classic way of reaching a shell account that holds
// the encrypted store in a single directory.
package scp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/csync-dev/csync/internal/domain"
)

// Runner executes a command and returns its combined output. It exists
// so tests can substitute the subprocess layer.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs commands for real
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Transport implements transport.Transport through ssh/scp invocations
type Transport struct {
	host string
	dir  string
	run  Runner
}

// New creates a transport for host, storing files under dir on the
// remote side (relative to the login directory, like scp itself)
func New(host, dir string) (*Transport, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: scp transport requires a host", domain.ErrTransportFailure)
	}
	if dir == "" {
		dir = "sync"
	}
	return &Transport{host: host, dir: dir, run: execRunner}, nil
}

// NewWithRunner creates a transport with a custom command runner
func NewWithRunner(host, dir string, run Runner) *Transport {
	return &Transport{host: host, dir: dir, run: run}
}

// remotePath joins the store directory with a remote identifier.
// Identifiers are single names; anything path-like is rejected before
// it reaches a shell.
func (t *Transport) remotePath(remoteID string) (string, error) {
	if remoteID == "" || remoteID != path.Base(remoteID) || strings.ContainsAny(remoteID, " '\"\\$`;|&<>") {
		return "", fmt.Errorf("%w: invalid remote id: %q", domain.ErrTransportFailure, remoteID)
	}
	return path.Join(t.dir, remoteID), nil
}

// Exists checks remote presence with `ssh host test -e`
func (t *Transport) Exists(ctx context.Context, remoteID string) (bool, error) {
	rp, err := t.remotePath(remoteID)
	if err != nil {
		return false, err
	}

	out, err := t.run(ctx, "ssh", t.host, "test", "-e", rp)
	if err == nil {
		return true, nil
	}

	// test -e exits 1 for a missing path; anything else is a real
	// transport problem (auth, network, unknown host)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("%w: ssh %s: %v: %s", domain.ErrTransportFailure, t.host, err, firstLine(out))
}

// Upload copies a local file to the remote store with scp
func (t *Transport) Upload(ctx context.Context, localPath, remoteID string) error {
	rp, err := t.remotePath(remoteID)
	if err != nil {
		return err
	}

	out, err := t.run(ctx, "scp", "-q", localPath, t.host+":"+rp)
	if err != nil {
		return fmt.Errorf("%w: scp upload %s: %v: %s", domain.ErrTransportFailure, remoteID, err, firstLine(out))
	}
	return nil
}

// Download copies a remote file to a local path with scp. Missing
// files are detected with a `test -e` pre-check rather than by parsing
// scp's output, which is locale-dependent.
func (t *Transport) Download(ctx context.Context, remoteID, localPath string) error {
	rp, err := t.remotePath(remoteID)
	if err != nil {
		return err
	}

	if err := t.checkExists(ctx, remoteID); err != nil {
		return err
	}

	out, err := t.run(ctx, "scp", "-q", t.host+":"+rp, localPath)
	if err != nil {
		return fmt.Errorf("%w: scp download %s: %v: %s", domain.ErrTransportFailure, remoteID, err, firstLine(out))
	}
	return nil
}

// Delete removes a remote file with `ssh host rm`
func (t *Transport) Delete(ctx context.Context, remoteID string) error {
	rp, err := t.remotePath(remoteID)
	if err != nil {
		return err
	}

	if err := t.checkExists(ctx, remoteID); err != nil {
		return err
	}

	out, err := t.run(ctx, "ssh", t.host, "rm", rp)
	if err != nil {
		return fmt.Errorf("%w: ssh rm %s: %v: %s", domain.ErrTransportFailure, remoteID, err, firstLine(out))
	}
	return nil
}

// checkExists maps a missing remote id to ErrNotFound before a
// transfer command is attempted
func (t *Transport) checkExists(ctx context.Context, remoteID string) error {
	exists, err := t.Exists(ctx, remoteID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, remoteID)
	}
	return nil
}

// Close releases resources (none; every call is its own subprocess)
func (t *Transport) Close() error {
	return nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
