package crypto

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/csync-dev/csync/internal/domain"
)

// Ciphertext layout: magic || salt || nonce || sealed.
// The salt feeds scrypt, the nonce feeds XChaCha20-Poly1305.
const (
	chachaMagic = "csync\x01"
	saltSize    = 16
)

// scrypt parameters, fixed so every machine derives the same key
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ChaChaCipher is the built-in cipher for hosts without gpg:
// passphrase-derived XChaCha20-Poly1305 with authenticated decryption.
type ChaChaCipher struct {
	passphrase []byte
}

// NewChaChaCipher creates a cipher from a passphrase
func NewChaChaCipher(passphrase string) (*ChaChaCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", domain.ErrCryptoFailure)
	}
	return &ChaChaCipher{passphrase: []byte(passphrase)}, nil
}

// NewChaChaCipherFromFile reads the passphrase from a file, trimming
// the trailing newline editors leave behind
func NewChaChaCipherFromFile(path string) (*ChaChaCipher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read passphrase file: %v", domain.ErrCryptoFailure, err)
	}
	return NewChaChaCipher(strings.TrimRight(string(data), "\r\n"))
}

// deriveKey runs scrypt over the passphrase and salt
func (c *ChaChaCipher) deriveKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key(c.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: derive key: %v", domain.ErrCryptoFailure, err)
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh salt and nonce
func (c *ChaChaCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}

	key, err := c.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}

	out := make([]byte, 0, len(chachaMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, chachaMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a sealed ciphertext; any tampering or a wrong
// passphrase fails authentication
func (c *ChaChaCipher) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(ciphertext, []byte(chachaMagic)) {
		return nil, fmt.Errorf("%w: not a csync ciphertext", domain.ErrCryptoFailure)
	}
	rest := ciphertext[len(chachaMagic):]

	nonceSize := chacha20poly1305.NonceSizeX
	if len(rest) < saltSize+nonceSize+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: truncated ciphertext", domain.ErrCryptoFailure)
	}

	salt := rest[:saltSize]
	nonce := rest[saltSize : saltSize+nonceSize]
	sealed := rest[saltSize+nonceSize:]

	key, err := c.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bad passphrase or corrupt ciphertext", domain.ErrCryptoFailure)
	}
	return plaintext, nil
}
