package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// GateLock serializes gate executions within one working directory so two
// relgate run invocations cannot race on the same audit log and store.
type GateLock struct {
	file *os.File
}

// TryAcquireGateLock attempts to lock <dir>/locks/gate.lock without
// blocking. The second return value reports whether the lock was taken.
func TryAcquireGateLock(dir string) (*GateLock, bool, error) {
	locksDir := filepath.Join(dir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create locks dir: %w", err)
	}
	lockPath := filepath.Join(locksDir, "gate.lock")
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return nil, false, nil
	}
	return &GateLock{file: file}, true, nil
}

// Release releases the lock.
func (l *GateLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
