package state

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLocked means another process holds the state lock.
var ErrLocked = errors.New("state file is locked by another process")

// lockStaleAfter is how old a lock file must be before it is treated as
// abandoned and reclaimed.
const lockStaleAfter = 10 * time.Minute

// Lock is a file-based lock guarding the state file against concurrent
// out-of-process reconciliation runs (cron, launchd, systemd timers).
type Lock struct {
	path string
}

// AcquireLock takes the lock at the given path. A lock file older than the
// staleness timeout is reclaimed; a fresh one returns ErrLocked.
func AcquireLock(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("writing lock file: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}

		info, serr := os.Stat(path)
		if serr != nil {
			// Holder released between our open and stat; retry.
			continue
		}
		if time.Since(info.ModTime()) < lockStaleAfter {
			return nil, fmt.Errorf("%w (held since %s)", ErrLocked, info.ModTime().Format(time.RFC3339))
		}
		// Stale lock from a dead process; reclaim and retry once.
		_ = os.Remove(path)
	}
	return nil, ErrLocked
}

// Release removes the lock file. Always call it, regardless of outcome.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// LockPID reports the PID recorded in a lock file, for diagnostics.
func LockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := string(data)
	var pid int
	if _, err := fmt.Sscanf(fields, "%d", &pid); err != nil {
		return 0, fmt.Errorf("malformed lock file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d in %s", pid, path)
	}
	return pid, nil
}
