package lock

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/csync-dev/csync/internal/domain"
)

// TestAcquireRelease tests the basic lock cycle
func TestAcquireRelease(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !l.IsLocked() {
		t.Error("IsLocked false after Acquire")
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if l.IsLocked() {
		t.Error("IsLocked true after Release")
	}
}

// TestAcquireTwice tests that a second handle cannot take a held lock
func TestAcquireTwice(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	second, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Acquire(); !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got: %v", err)
	}
}

// TestReacquireAfterRelease tests lock reuse
func TestReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	other, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := other.Acquire(); err != nil {
		t.Errorf("Acquire after Release failed: %v", err)
	}
	other.Release()
}

// TestCreatesDataDir tests that New creates the data directory
func TestCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	l, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	l.Release()
}
