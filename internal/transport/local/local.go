// Package local implements the transport interface against a mounted
// directory (an external drive, an NFS or sshfs mount). The "remote"
// side is just file I/O.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/csync-dev/csync/internal/domain"
)

// Transport implements transport.Transport for a local directory
type Transport struct {
	root string
}

// New creates a transport rooted at dir. The directory is created if
// it does not exist yet.
func New(dir string) (*Transport, error) {
	absRoot, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}

	if err := os.MkdirAll(absRoot, 0700); err != nil {
		return nil, fmt.Errorf("%w: create root: %v", domain.ErrTransportFailure, err)
	}

	return &Transport{root: absRoot}, nil
}

// resolve maps a remote identifier to a path under root, rejecting
// identifiers that would escape it
func (t *Transport) resolve(remoteID string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(remoteID))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: invalid remote id: %s", domain.ErrTransportFailure, remoteID)
	}
	return filepath.Join(t.root, clean), nil
}

// Exists checks whether a remote identifier is present
func (t *Transport) Exists(ctx context.Context, remoteID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := t.resolve(remoteID)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	return true, nil
}

// Upload copies a local file into the store, atomically replacing any
// previous content (temp file in the store, then rename)
func (t *Transport) Upload(ctx context.Context, localPath, remoteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := t.resolve(remoteID)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrTransportFailure, localPath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(t.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: copy to %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	return nil
}

// Download copies the remote identifier's content to a local path
func (t *Transport) Download(ctx context.Context, remoteID, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := t.resolve(remoteID)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, remoteID)
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	defer in.Close()

	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrTransportFailure, localPath, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(localPath)
		return fmt.Errorf("%w: copy from %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}
	return nil
}

// Delete removes a remote identifier
func (t *Transport) Delete(ctx context.Context, remoteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := t.resolve(remoteID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, remoteID)
		}
		return fmt.Errorf("%w: delete %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	return nil
}

// Close releases resources (none for directory transports)
func (t *Transport) Close() error {
	return nil
}

// Root returns the store directory
func (t *Transport) Root() string {
	return t.root
}
