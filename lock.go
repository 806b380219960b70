package rugsync

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// lockPollInterval is the retry cadence while another process holds the lock.
const lockPollInterval = 250 * time.Millisecond

// FileLock is the cross-process mutual exclusion guarding sync operations.
// Acquisition is an atomic create-or-fail of the lock file; the holder's PID
// is written into it for operator diagnosis. Every coordinator instance that
// shares a database must share this lock path.
type FileLock struct {
	path    string
	timeout time.Duration
}

// NewFileLock creates a lock at path with the given acquisition timeout.
// A zero timeout uses DefaultLockTimeout.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &FileLock{path: path, timeout: timeout}
}

// Path returns the lock file location.
func (l *FileLock) Path() string { return l.path }

// Acquire takes the lock, polling every 250ms until the timeout. On timeout
// it fails with an error wrapping ErrSyncInProgress; it never blocks
// indefinitely. Deleting the lock file externally releases a stale lock.
func (l *FileLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	deadline := time.Now().Add(l.timeout)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("lock: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w (lock file %s)", ErrSyncInProgress, l.path)
		}
		time.Sleep(lockPollInterval)
	}
}

// Release deletes the lock file. A missing file is not an error: either the
// lock was already cleaned up, or the holder crashed and someone removed it.
func (l *FileLock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}
