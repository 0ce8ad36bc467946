package transport

import "context"

// Transport moves opaque files between the local machine and the
// remote store. The store is untrusted: it only ever sees ciphertext
// and history logs, and offers no locking.
//
// Implementations map their native failures to domain-level errors:
// domain.ErrNotFound for a missing remote id, domain.ErrTransportFailure
// wrapped with detail for everything else.
type Transport interface {
	// Exists checks whether a remote identifier is present
	Exists(ctx context.Context, remoteID string) (bool, error)

	// Upload copies a local file to the remote identifier, overwriting
	// any previous content
	Upload(ctx context.Context, localPath, remoteID string) error

	// Download copies the remote identifier's content to a local path
	Download(ctx context.Context, remoteID, localPath string) error

	// Delete removes a remote identifier
	Delete(ctx context.Context, remoteID string) error

	// Close releases any resources held by the transport
	Close() error
}

// Type identifies the transport backend
type Type string

const (
	// TypeLocal is a mounted directory reachable through plain file I/O
	TypeLocal Type = "local"
	// TypeSCP is a remote host reachable through ssh and scp
	TypeSCP Type = "scp"
	// TypeGDrive is a Google Drive folder
	TypeGDrive Type = "gdrive"
)

// IsValid checks if the transport type is a known value
func (t Type) IsValid() bool {
	switch t {
	case TypeLocal, TypeSCP, TypeGDrive:
		return true
	}
	return false
}
