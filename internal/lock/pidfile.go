package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFileName is the daemon pid file inside the data directory
const PIDFileName = "csync.pid"

// PIDFile records the daemon's process id so a second invocation can
// detect it or stop it
type PIDFile struct {
	path string
}

// NewPIDFile creates a pid file manager under dataDir
func NewPIDFile(dataDir string) (*PIDFile, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &PIDFile{path: filepath.Join(dataDir, PIDFileName)}, nil
}

// Write records the current process id. A pid file naming a live
// process is an error; a stale one is replaced.
func (p *PIDFile) Write() error {
	if _, err := os.Stat(p.path); err == nil {
		if running, _ := p.IsRunning(); running {
			return fmt.Errorf("daemon already running (%s)", p.path)
		}
		os.Remove(p.path)
	}

	content := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Read returns the recorded process id
func (p *PIDFile) Read() (int, error) {
	content, err := os.ReadFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %q", p.path, content)
	}
	return pid, nil
}

// Remove deletes the pid file, tolerating its absence
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is alive
func (p *PIDFile) IsRunning() (bool, error) {
	pid, err := p.Read()
	if err != nil {
		return false, err
	}
	return isProcessRunning(pid), nil
}

// Stop signals the recorded process to terminate
func (p *PIDFile) Stop() error {
	pid, err := p.Read()
	if err != nil {
		return err
	}
	return stopProcess(pid)
}
