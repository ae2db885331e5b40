package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/sidecar/internal/logging"
)

// LockFileName is the name of the lock file within the state directory
const LockFileName = "panel.lock"

// ErrPanelLocked is returned when another panel already owns the state
// directory. Two panels on one state directory would double-send
// approvals and interleave log writes.
var ErrPanelLocked = errors.New("another panel is already running")

// Lock represents an acquired panel lock
type Lock struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`

	// Internal fields (not serialized)
	lockFile string
	logger   *logging.Logger
}

// AcquireLock attempts to acquire an exclusive lock on the state
// directory. Returns ErrPanelLocked if another live panel holds it;
// locks left behind by dead processes are cleaned automatically.
// The logger parameter is optional and can be nil.
func AcquireLock(stateDir string, logger *logging.Logger) (*Lock, error) {
	lockPath := filepath.Join(stateDir, LockFileName)

	// Check for existing lock
	if existing, err := ReadLock(lockPath); err == nil {
		if isProcessAlive(existing.PID) {
			if logger != nil {
				logger.Error("failed to acquire panel lock",
					"pid", existing.PID,
					"hostname", existing.Hostname,
				)
			}
			return nil, fmt.Errorf("%w: PID %d on %s", ErrPanelLocked, existing.PID, existing.Hostname)
		}
		// Stale lock - remove it
		oldPID := existing.PID
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		if logger != nil {
			logger.Warn("stale panel lock cleaned", "old_pid", oldPID)
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	lock := &Lock{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		lockFile:  lockPath,
		logger:    logger,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL fails if the file already exists, so two panels racing for
	// the same state dir cannot both win.
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			if existing, readErr := ReadLock(lockPath); readErr == nil {
				return nil, fmt.Errorf("%w: PID %d on %s", ErrPanelLocked, existing.PID, existing.Hostname)
			}
			return nil, ErrPanelLocked
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	if logger != nil {
		logger.Info("panel lock acquired", "pid", lock.PID)
	}

	return lock, nil
}

// Release releases the panel lock by removing the lock file.
// Safe to call multiple times.
func (l *Lock) Release() error {
	if l == nil || l.lockFile == "" {
		return nil
	}

	// Only remove if we own the lock (PID matches)
	existing, err := ReadLock(l.lockFile)
	if err != nil {
		return nil
	}
	if existing.PID != l.PID {
		return nil
	}

	if err := os.Remove(l.lockFile); err != nil {
		return err
	}

	if l.logger != nil {
		l.logger.Info("panel lock released")
	}
	return nil
}

// ReadLock reads a lock file and returns the Lock info.
func ReadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	lock.lockFile = lockPath

	return &lock, nil
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	// On Unix, sending signal 0 checks if process exists without affecting it
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
