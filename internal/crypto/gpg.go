package crypto

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/csync-dev/csync/internal/domain"
)

// GPGCipher shells out to gpg for symmetric encryption. With an empty
// passphrase file it relies on the gpg agent / pinentry; with one set
// it runs fully non-interactive.
type GPGCipher struct {
	binary         string
	passphraseFile string
}

// NewGPGCipher creates a gpg-backed cipher. passphraseFile may be
// empty to defer to the agent.
func NewGPGCipher(passphraseFile string) *GPGCipher {
	return &GPGCipher{binary: "gpg", passphraseFile: passphraseFile}
}

// args assembles the common argument list
func (g *GPGCipher) args(op string) []string {
	args := []string{"--batch", "--yes", "-o", "-"}
	if g.passphraseFile != "" {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", g.passphraseFile)
	}
	return append(args, op)
}

// run pipes input through a gpg subprocess
func (g *GPGCipher) run(ctx context.Context, input []byte, args []string) ([]byte, error) {
	var out, errOut bytes.Buffer

	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(errOut.String())
		if i := strings.LastIndexByte(detail, '\n'); i >= 0 {
			detail = detail[i+1:]
		}
		return nil, fmt.Errorf("%w: gpg: %v: %s", domain.ErrCryptoFailure, err, detail)
	}
	return out.Bytes(), nil
}

// Encrypt encrypts plaintext with `gpg -c`
func (g *GPGCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	return g.run(ctx, plaintext, g.args("-c"))
}

// Decrypt decrypts ciphertext with `gpg -d`
func (g *GPGCipher) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	return g.run(ctx, ciphertext, g.args("-d"))
}
