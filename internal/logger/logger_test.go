package logger

import (
	"bytes"
	"strings"
	"testing"
)

// TestParseLevel tests level parsing
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

// TestGetBeforeInit tests that Get is safe before Init
func TestGetBeforeInit(t *testing.T) {
	log := Get()
	if log == nil {
		t.Fatal("Get returned nil before Init")
	}
	// Must not panic
	log.Info("message", "key", "value")
	log.With("a", 1).Error("message")
}

// TestSlogLoggerOutput tests that messages reach the writer
func TestSlogLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}
	defer log.Shutdown()

	log.Info("sync complete", "file", "notes.txt", "relationship", "equal")

	out := buf.String()
	if !strings.Contains(out, "sync complete") || !strings.Contains(out, "notes.txt") {
		t.Errorf("output missing expected content: %s", out)
	}
}

// TestLevelFiltering tests that lower levels are dropped
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:  LevelWarn,
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}
	defer log.Shutdown()

	log.Debug("dropped debug")
	log.Info("dropped info")
	log.Warn("kept warn")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("low-level messages leaked: %s", out)
	}
	if !strings.Contains(out, "kept warn") {
		t.Errorf("warn message missing: %s", out)
	}
}

// TestSanitizerMasksSecrets tests masking of sensitive keys
func TestSanitizerMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}
	defer log.Shutdown()

	log.Info("opening cipher", "passphrase", "hunter2secret", "file", "notes.txt")

	out := buf.String()
	if strings.Contains(out, "hunter2secret") {
		t.Errorf("passphrase leaked: %s", out)
	}
	if !strings.Contains(out, "notes.txt") {
		t.Errorf("non-sensitive value over-masked: %s", out)
	}
}

// TestSanitizeArgs tests the masking rules directly
func TestSanitizeArgs(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name string
		args []any
		want []any
	}{
		{"empty", nil, nil},
		{"non-sensitive", []any{"file", "a.txt"}, []any{"file", "a.txt"}},
		{"short secret", []any{"token", "ab"}, []any{"token", "***"}},
		{"medium secret", []any{"password", "hunter2"}, []any{"password", "h***"}},
		{"long secret", []any{"key_ref", "/home/u/secret.key"}, []any{"key_ref", "/***y"}},
		{"odd trailing key", []any{"secret", "value", "dangling"}, []any{"secret", "v***", "dangling"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeArgs(tt.args)
			if len(got) != len(tt.want) {
				t.Fatalf("length mismatch: got %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("arg %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestWithChildLogger tests that bound attributes appear in output
func TestWithChildLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}
	defer log.Shutdown()

	child := log.With("file", "notes.txt")
	child.Info("fetched remote history")

	if !strings.Contains(buf.String(), "notes.txt") {
		t.Errorf("bound attribute missing: %s", buf.String())
	}
}
