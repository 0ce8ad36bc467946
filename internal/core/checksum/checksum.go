package checksum

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Algorithm represents the fingerprint algorithm to use
type Algorithm string

const (
	// SHA1 produces 40 hex characters, the historical default of the
	// history file format
	SHA1 Algorithm = "sha1"
	// SHA256 produces 64 hex characters
	SHA256 Algorithm = "sha256"
)

// IsValid checks if the algorithm is a known value
func (a Algorithm) IsValid() bool {
	switch a {
	case SHA1, SHA256:
		return true
	}
	return false
}

// Options configures the fingerprint calculator
type Options struct {
	// MaxSize: files larger than this fail instead of hashing forever
	// (0 = unlimited)
	MaxSize int64

	// BufferSize: size of the buffer for streaming reads
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		MaxSize:    0,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes content fingerprints
type Calculator interface {
	// Sum computes the hex fingerprint of everything readable from r
	Sum(ctx context.Context, r io.Reader, algo Algorithm) (string, error)

	// File computes the hex fingerprint of a file's current bytes
	File(ctx context.Context, path string, algo Algorithm) (string, error)
}

// StreamCalculator implements Calculator with buffered streaming reads
type StreamCalculator struct {
	opts Options
}

// New creates a calculator with the given options
func New(opts Options) *StreamCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &StreamCalculator{opts: opts}
}

// NewDefault creates a calculator with default options
func NewDefault() *StreamCalculator {
	return New(DefaultOptions())
}

// Sum implements the Calculator interface
func (c *StreamCalculator) Sum(ctx context.Context, r io.Reader, algo Algorithm) (string, error) {
	var h hash.Hash
	switch algo {
	case SHA1:
		h = sha1.New()
	case SHA256:
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported algorithm: %s", algo)
	}

	buf := make([]byte, c.opts.BufferSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("content exceeds maximum size (%d bytes)", c.opts.MaxSize)
			}
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("hash write: %w", werr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File implements the Calculator interface
func (c *StreamCalculator) File(ctx context.Context, path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return c.Sum(ctx, f, algo)
}
