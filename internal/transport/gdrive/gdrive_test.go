package gdrive

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/csync-dev/csync/internal/domain"
)

// TestNormalizeFolder tests folder path normalization
func TestNormalizeFolder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "/csync"},
		{"/", "/csync"},
		{"folder", "/folder"},
		{"/folder", "/folder"},
		{"/folder/sub/", "/folder/sub"},
		{"  /folder  ", "/folder"},
	}

	for _, tt := range tests {
		got := normalizeFolder(tt.input)
		if got != tt.expected {
			t.Errorf("normalizeFolder(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// TestEscapeQuery tests Drive query escaping for injection prevention
func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"notes.txt.gpg", "notes.txt.gpg"},
		{"file'name", "file\\'name"},
		{"back\\slash", "back\\\\slash"},
		{"' or '1'='1", "\\' or \\'1\\'=\\'1"},
	}

	for _, tt := range tests {
		got := escapeQuery(tt.input)
		if got != tt.expected {
			t.Errorf("escapeQuery(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}

	// Escaped names must not terminate the quoted query term
	for _, hostile := range []string{"x' and trashed=false and '1'='1", "'; drop"} {
		escaped := escapeQuery(hostile)
		if strings.Contains(strings.ReplaceAll(escaped, "\\'", ""), "'") {
			t.Errorf("escapeQuery(%q) left an unescaped quote: %q", hostile, escaped)
		}
	}
}

// TestMapError tests Google API error mapping to domain errors
func TestMapError(t *testing.T) {
	tr := &Transport{}

	if got := tr.mapError(nil); got != nil {
		t.Errorf("mapError(nil) = %v, want nil", got)
	}

	notFound := &googleapi.Error{Code: 404, Message: "not found"}
	if !errors.Is(tr.mapError(notFound), domain.ErrNotFound) {
		t.Error("404 should map to ErrNotFound")
	}

	rateLimited := &googleapi.Error{Code: 429, Message: "rate limit"}
	if !errors.Is(tr.mapError(rateLimited), domain.ErrTransportFailure) {
		t.Error("429 should map to ErrTransportFailure")
	}

	plain := fmt.Errorf("connection reset")
	if !errors.Is(tr.mapError(plain), domain.ErrTransportFailure) {
		t.Error("unknown errors should map to ErrTransportFailure")
	}
}

// TestIDCache tests the remote id cache under concurrent access
func TestIDCache(t *testing.T) {
	tr := &Transport{ids: make(map[string]string)}

	tr.mu.Lock()
	tr.ids["a.gpg"] = "drive-id-1"
	tr.mu.Unlock()

	tr.mu.RLock()
	id, ok := tr.ids["a.gpg"]
	tr.mu.RUnlock()
	if !ok || id != "drive-id-1" {
		t.Errorf("cache lookup: got (%q, %v)", id, ok)
	}

	tr.forget("a.gpg")
	tr.mu.RLock()
	_, ok = tr.ids["a.gpg"]
	tr.mu.RUnlock()
	if ok {
		t.Error("forget did not remove the cached id")
	}
}
