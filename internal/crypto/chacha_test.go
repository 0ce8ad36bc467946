package crypto

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/csync-dev/csync/internal/domain"
)

// TestChaChaRoundTrip tests encrypt/decrypt with the same passphrase
func TestChaChaRoundTrip(t *testing.T) {
	cipher, err := NewChaChaCipher("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewChaChaCipher failed: %v", err)
	}
	ctx := context.Background()

	plaintext := []byte("the file content\nwith several lines\n")
	ciphertext, err := cipher.Encrypt(ctx, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Contains(ciphertext, []byte("file content")) {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := cipher.Decrypt(ctx, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round-trip mismatch: got %q", got)
	}
}

// TestChaChaFreshNonce tests that encrypting twice yields different
// ciphertexts
func TestChaChaFreshNonce(t *testing.T) {
	cipher, _ := NewChaChaCipher("pw")
	ctx := context.Background()

	c1, err := cipher.Encrypt(ctx, []byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	c2, err := cipher.Encrypt(ctx, []byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(c1, c2) {
		t.Error("two encryptions produced identical ciphertext")
	}
}

// TestChaChaWrongPassphrase tests authenticated failure on a bad key
func TestChaChaWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	right, _ := NewChaChaCipher("right")
	wrong, _ := NewChaChaCipher("wrong")

	ciphertext, err := right.Encrypt(ctx, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err = wrong.Decrypt(ctx, ciphertext)
	if !errors.Is(err, domain.ErrCryptoFailure) {
		t.Errorf("expected ErrCryptoFailure, got: %v", err)
	}
}

// TestChaChaTamperedCiphertext tests that any bit flip fails
func TestChaChaTamperedCiphertext(t *testing.T) {
	ctx := context.Background()
	cipher, _ := NewChaChaCipher("pw")

	ciphertext, err := cipher.Encrypt(ctx, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tampered := bytes.Clone(ciphertext)
	tampered[len(tampered)-1] ^= 0x01

	_, err = cipher.Decrypt(ctx, tampered)
	if !errors.Is(err, domain.ErrCryptoFailure) {
		t.Errorf("expected ErrCryptoFailure, got: %v", err)
	}
}

// TestChaChaRejectsGarbage tests decryption of non-csync input
func TestChaChaRejectsGarbage(t *testing.T) {
	cipher, _ := NewChaChaCipher("pw")

	for _, input := range [][]byte{nil, []byte("short"), []byte("definitely not a csync ciphertext")} {
		_, err := cipher.Decrypt(context.Background(), input)
		if !errors.Is(err, domain.ErrCryptoFailure) {
			t.Errorf("Decrypt(%q): expected ErrCryptoFailure, got: %v", input, err)
		}
	}
}

// TestChaChaEmptyPassphrase tests that an empty passphrase is rejected
func TestChaChaEmptyPassphrase(t *testing.T) {
	_, err := NewChaChaCipher("")
	if !errors.Is(err, domain.ErrCryptoFailure) {
		t.Errorf("expected ErrCryptoFailure, got: %v", err)
	}
}

// TestChaChaFromFile tests reading the passphrase from a key file
func TestChaChaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("file passphrase\n"), 0600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	fromFile, err := NewChaChaCipherFromFile(path)
	if err != nil {
		t.Fatalf("NewChaChaCipherFromFile failed: %v", err)
	}
	direct, _ := NewChaChaCipher("file passphrase")

	ctx := context.Background()
	ciphertext, err := fromFile.Encrypt(ctx, []byte("data"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Trailing newline in the key file must not change the key
	if _, err := direct.Decrypt(ctx, ciphertext); err != nil {
		t.Errorf("Decrypt with trimmed passphrase failed: %v", err)
	}
}
