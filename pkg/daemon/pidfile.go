// Package daemon manages the optional pid file of a running pulsebar, and
// lets a second invocation signal the instance recorded in it.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrRunning is returned by AcquirePID when a live process holds the file.
var ErrRunning = errors.New("pulsebar already running")

// AcquirePID creates a PID file at path with the current process PID.
// It fails if another live process already holds it. A file pointing to a
// dead process is replaced.
//
// The write is atomic: content is written to a temporary file in the same
// directory, then renamed into place.
func AcquirePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}

	if existing, err := ReadPID(path); err == nil {
		if existing != os.Getpid() && IsProcessAlive(existing) {
			return fmt.Errorf("%s: PID %d: %w", path, existing, ErrRunning)
		}
		os.Remove(path)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp PID file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename PID file: %w", err)
	}
	return nil
}

// ReleasePID removes the PID file at path if it still names this process.
func ReleasePID(path string) error {
	pid, err := ReadPID(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// ReadPID reads and parses the PID from the given file.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("parse PID file: invalid PID %d", pid)
	}
	return pid, nil
}

// IsProcessAlive reports whether pid exists. A process owned by another
// user counts as alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// SignalRunning sends sig to the process recorded in the PID file at path.
func SignalRunning(path string, sig unix.Signal) (int, error) {
	pid, err := ReadPID(path)
	if err != nil {
		return 0, err
	}
	if err := unix.Kill(pid, sig); err != nil {
		return pid, fmt.Errorf("signal PID %d: %w", pid, err)
	}
	return pid, nil
}
