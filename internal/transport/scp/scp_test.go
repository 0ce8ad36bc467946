package scp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/csync-dev/csync/internal/domain"
)

// call records one invocation seen by the fake runner
type call struct {
	name string
	args []string
}

// fakeRunner captures commands and replays canned responses. When
// respond is set it decides per invocation; otherwise out/err apply to
// every command.
type fakeRunner struct {
	calls   []call
	out     []byte
	err     error
	respond func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.respond != nil {
		return f.respond(name, args)
	}
	return f.out, f.err
}

// exitCodeOneError produces a genuine exec exit error with code 1, the
// way `test -e` reports a missing path
func exitCodeOneError(t *testing.T) error {
	t.Helper()
	err := exec.Command("false").Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Skipf("cannot produce exit status 1: %v", err)
	}
	return err
}

// TestUploadCommand tests the scp invocation shape for uploads
func TestUploadCommand(t *testing.T) {
	fake := &fakeRunner{}
	tr := NewWithRunner("bb", "sync", fake.run)

	if err := tr.Upload(context.Background(), "/tmp/notes.txt.gpg", "notes.txt.gpg"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 command, got %d", len(fake.calls))
	}
	got := fake.calls[0]
	want := "scp -q /tmp/notes.txt.gpg bb:sync/notes.txt.gpg"
	if full := got.name + " " + strings.Join(got.args, " "); full != want {
		t.Errorf("command mismatch:\ngot  %s\nwant %s", full, want)
	}
}

// TestDownloadCommand tests the invocation sequence for downloads: an
// existence probe, then the copy
func TestDownloadCommand(t *testing.T) {
	fake := &fakeRunner{}
	tr := NewWithRunner("bb", "sync", fake.run)

	if err := tr.Download(context.Background(), "notes.txt.history", "/tmp/remote.history"); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(fake.calls))
	}
	wants := []string{
		"ssh bb test -e sync/notes.txt.history",
		"scp -q bb:sync/notes.txt.history /tmp/remote.history",
	}
	for i, want := range wants {
		got := fake.calls[i]
		if full := got.name + " " + strings.Join(got.args, " "); full != want {
			t.Errorf("command %d mismatch:\ngot  %s\nwant %s", i, full, want)
		}
	}
}

// TestDownloadMissingRemote tests that a missing remote file maps to
// ErrNotFound via the exit status of the existence probe, independent
// of any output wording
func TestDownloadMissingRemote(t *testing.T) {
	missing := exitCodeOneError(t)
	fake := &fakeRunner{}
	fake.respond = func(name string, args []string) ([]byte, error) {
		if name == "ssh" {
			return nil, missing
		}
		return nil, nil
	}
	tr := NewWithRunner("bb", "sync", fake.run)

	err := tr.Download(context.Background(), "notes.txt.gpg", "/tmp/out")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	for _, c := range fake.calls {
		if c.name == "scp" {
			t.Error("scp must not run for a missing remote file")
		}
	}
}

// TestUploadFailure tests that scp failures map to transport failures
// and carry the subprocess output
func TestUploadFailure(t *testing.T) {
	fake := &fakeRunner{
		out: []byte("ssh: connect to host bb port 22: Connection refused\n"),
		err: fmt.Errorf("exit status 255"),
	}
	tr := NewWithRunner("bb", "sync", fake.run)

	err := tr.Upload(context.Background(), "/tmp/f", "f.gpg")
	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Connection refused") {
		t.Errorf("error should carry subprocess output: %v", err)
	}
}

// TestDeleteCommand tests the invocation sequence for deletions
func TestDeleteCommand(t *testing.T) {
	fake := &fakeRunner{}
	tr := NewWithRunner("bb", "sync", fake.run)

	if err := tr.Delete(context.Background(), "stale.gpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(fake.calls))
	}
	got := fake.calls[1]
	want := "ssh bb rm sync/stale.gpg"
	if full := got.name + " " + strings.Join(got.args, " "); full != want {
		t.Errorf("command mismatch:\ngot  %s\nwant %s", full, want)
	}
}

// TestDeleteMissingRemote tests the not-found mapping for deletions
func TestDeleteMissingRemote(t *testing.T) {
	missing := exitCodeOneError(t)
	fake := &fakeRunner{err: missing}
	tr := NewWithRunner("bb", "sync", fake.run)

	err := tr.Delete(context.Background(), "stale.gpg")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

// TestExistsPresent tests that a zero exit means present
func TestExistsPresent(t *testing.T) {
	fake := &fakeRunner{}
	tr := NewWithRunner("bb", "sync", fake.run)

	ok, err := tr.Exists(context.Background(), "notes.txt.gpg")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Exists reported false for present id")
	}

	got := fake.calls[0]
	want := "ssh bb test -e sync/notes.txt.gpg"
	if full := got.name + " " + strings.Join(got.args, " "); full != want {
		t.Errorf("command mismatch:\ngot  %s\nwant %s", full, want)
	}
}

// TestRejectShellMetacharacters tests that hostile ids never reach a
// subprocess
func TestRejectShellMetacharacters(t *testing.T) {
	fake := &fakeRunner{}
	tr := NewWithRunner("bb", "sync", fake.run)
	ctx := context.Background()

	bad := []string{"a;rm -rf /", "a b", "../../etc/passwd", "a$(x)", "a|b", ""}
	for _, id := range bad {
		if _, err := tr.Exists(ctx, id); !errors.Is(err, domain.ErrTransportFailure) {
			t.Errorf("Exists(%q): expected ErrTransportFailure, got: %v", id, err)
		}
	}
	if len(fake.calls) != 0 {
		t.Errorf("hostile ids must not reach the runner; saw %d calls", len(fake.calls))
	}
}
