//go:build !windows

package lock

import (
	"os"
	"strconv"
	"testing"
)

func TestPIDFileWriteAndRead(t *testing.T) {
	p, err := NewPIDFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewPIDFile() error = %v", err)
	}

	if err := p.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	defer p.Remove()

	pid, err := p.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestPIDFileRejectsLiveProcess(t *testing.T) {
	p, err := NewPIDFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Write(); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	defer p.Remove()

	if err := p.Write(); err == nil {
		t.Error("second Write() should fail while the process is alive")
	}
}

func TestPIDFileReplacesStaleEntry(t *testing.T) {
	p, err := NewPIDFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// a pid far beyond pid_max on test machines
	stale := strconv.Itoa(1 << 22)
	if err := os.WriteFile(p.path, []byte(stale+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := p.Write(); err != nil {
		t.Fatalf("Write() over stale pid error = %v", err)
	}
	defer p.Remove()

	pid, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestPIDFileRemoveTolerant(t *testing.T) {
	p, err := NewPIDFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Remove(); err != nil {
		t.Errorf("Remove() without a pid file error = %v", err)
	}
}
