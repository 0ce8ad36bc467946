// Package gdrive implements the transport interface against a Google
// Drive folder. The store is flat: every remote identifier is one file
// inside the configured folder.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/csync-dev/csync/internal/domain"
)

// folderMimeType is the MIME type Drive uses for folders
const folderMimeType = "application/vnd.google-apps.folder"

// Transport implements transport.Transport for a Google Drive folder
type Transport struct {
	service  *drive.Service
	folder   string // folder path in Drive, e.g. "/csync"
	folderID string

	mu  sync.RWMutex
	ids map[string]string // remote id -> Drive file id
}

// New creates a transport for the given Drive folder, authenticating
// through the cached OAuth token (run `csync auth gdrive` first)
func New(ctx context.Context, clientID, clientSecret, tokenPath, folder string) (*Transport, error) {
	auth := NewAuthenticator(clientID, clientSecret, tokenPath)

	token, err := auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}

	return NewWithToken(ctx, token, auth.Config(), folder)
}

// NewWithToken creates a transport with an already-obtained token
func NewWithToken(ctx context.Context, token *oauth2.Token, cfg *oauth2.Config, folder string) (*Transport, error) {
	client := cfg.Client(ctx, token)

	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%w: create drive service: %v", domain.ErrTransportFailure, err)
	}

	t := &Transport{
		service: service,
		folder:  normalizeFolder(folder),
		ids:     make(map[string]string),
	}

	folderID, err := t.resolveFolder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve store folder: %v", domain.ErrTransportFailure, err)
	}
	t.folderID = folderID

	return t, nil
}

// normalizeFolder normalizes the folder path: leading slash, no
// trailing slash, "/csync" by default
func normalizeFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" || folder == "/" {
		return "/csync"
	}
	if !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return strings.TrimSuffix(folder, "/")
}

// resolveFolder walks the folder path from the Drive root, creating
// missing components
func (t *Transport) resolveFolder(ctx context.Context) (string, error) {
	currentID := "root"

	for _, part := range strings.Split(strings.TrimPrefix(t.folder, "/"), "/") {
		if part == "" {
			continue
		}

		query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQuery(part), currentID, folderMimeType)
		list, err := t.service.Files.List().
			Q(query).
			PageSize(1).
			Fields("files(id)").
			Context(ctx).Do()
		if err != nil {
			return "", err
		}

		if len(list.Files) > 0 {
			currentID = list.Files[0].Id
			continue
		}

		created, err := t.service.Files.Create(&drive.File{
			Name:     part,
			MimeType: folderMimeType,
			Parents:  []string{currentID},
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", err
		}
		currentID = created.Id
	}

	return currentID, nil
}

// escapeQuery escapes special characters in Drive query strings
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

// fileID looks up the Drive id of a remote identifier inside the store
// folder, consulting the cache first
func (t *Transport) fileID(ctx context.Context, remoteID string) (string, error) {
	t.mu.RLock()
	id, ok := t.ids[remoteID]
	t.mu.RUnlock()
	if ok {
		return id, nil
	}

	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(remoteID), t.folderID)
	list, err := t.service.Files.List().
		Q(query).
		PageSize(1).
		Fields("files(id)").
		Context(ctx).Do()
	if err != nil {
		return "", t.mapError(err)
	}

	if len(list.Files) == 0 {
		return "", domain.ErrNotFound
	}

	id = list.Files[0].Id
	t.mu.Lock()
	t.ids[remoteID] = id
	t.mu.Unlock()
	return id, nil
}

// forget drops a cached id mapping
func (t *Transport) forget(remoteID string) {
	t.mu.Lock()
	delete(t.ids, remoteID)
	t.mu.Unlock()
}

// Exists checks whether a remote identifier is present
func (t *Transport) Exists(ctx context.Context, remoteID string) (bool, error) {
	_, err := t.fileID(ctx, remoteID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upload copies a local file into the store folder, updating the
// existing Drive file if one is already there
func (t *Transport) Upload(ctx context.Context, localPath, remoteID string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrTransportFailure, localPath, err)
	}
	defer f.Close()

	existingID, err := t.fileID(ctx, remoteID)
	switch {
	case err == nil:
		_, err = t.service.Files.Update(existingID, &drive.File{Name: remoteID}).
			Context(ctx).
			Media(f).
			Do()
		return t.mapError(err)

	case errors.Is(err, domain.ErrNotFound):
		created, err := t.service.Files.Create(&drive.File{
			Name:    remoteID,
			Parents: []string{t.folderID},
		}).Fields("id").Context(ctx).Media(f).Do()
		if err != nil {
			return t.mapError(err)
		}
		t.mu.Lock()
		t.ids[remoteID] = created.Id
		t.mu.Unlock()
		return nil

	default:
		return err
	}
}

// Download copies the remote identifier's content to a local path
func (t *Transport) Download(ctx context.Context, remoteID, localPath string) error {
	id, err := t.fileID(ctx, remoteID)
	if err != nil {
		return err
	}

	resp, err := t.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return t.mapError(err)
	}
	defer resp.Body.Close()

	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrTransportFailure, localPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return fmt.Errorf("%w: download %s: %v", domain.ErrTransportFailure, remoteID, err)
	}
	return out.Close()
}

// Delete removes a remote identifier from the store folder
func (t *Transport) Delete(ctx context.Context, remoteID string) error {
	id, err := t.fileID(ctx, remoteID)
	if err != nil {
		return err
	}

	if err := t.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return t.mapError(err)
	}
	t.forget(remoteID)
	return nil
}

// Close releases resources
func (t *Transport) Close() error {
	return nil
}

// mapError converts Google API errors to domain errors
func (t *Transport) mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 404:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case 429:
			return fmt.Errorf("%w: rate limit exceeded: %v", domain.ErrTransportFailure, err)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
}
