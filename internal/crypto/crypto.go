package crypto

import "context"

// Cipher encrypts file content before it ever reaches the remote
// store, and decrypts it on the way back. Failures wrap
// domain.ErrCryptoFailure and are fatal to the current run.
type Cipher interface {
	// Encrypt turns plaintext into ciphertext
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt turns ciphertext back into plaintext. A wrong key or
	// corrupt ciphertext fails; it never returns garbage silently.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// Type identifies the cipher backend
type Type string

const (
	// TypeGPG shells out to gpg for symmetric encryption
	TypeGPG Type = "gpg"
	// TypeChaCha is the built-in scrypt + XChaCha20-Poly1305 cipher
	TypeChaCha Type = "chacha"
)

// IsValid checks if the cipher type is a known value
func (t Type) IsValid() bool {
	switch t {
	case TypeGPG, TypeChaCha:
		return true
	}
	return false
}
