package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"ptc/internal/infra/filestore"
)

// ErrLocked is returned by AcquireLock when another process already holds the
// advisory lock for an agent.
var ErrLocked = errors.New("session: already locked by another process")

// Lock is a best-effort, single-machine advisory lock preventing two ptc
// instances from racing on the same agent's persisted session. It is
// created with O_EXCL so only one caller can win the create; it is not a
// substitute for real cross-machine coordination.
type Lock struct {
	path string
}

// AcquireLock creates <baseDir>/<agentName>/session.lock, failing with
// ErrLocked if it already exists and its owning pid is still alive.
func AcquireLock(baseDir, agentName string) (*Lock, error) {
	if !filestore.IsPathSafe(agentName) {
		return nil, fmt.Errorf("session: unsafe agent name %q", agentName)
	}
	path := filepath.Join(baseDir, agentName, "session.lock")
	if err := filestore.EnsureParentDir(path); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			if pid, perr := readLockPID(path); perr == nil && processAlive(pid) {
				return nil, ErrLocked
			}
			// Stale lock from a dead process: reclaim it.
			_ = os.Remove(path)
			return AcquireLock(baseDir, agentName)
		}
		return nil, err
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return nil, err
	}
	return &Lock{path: path}, nil
}

// Release removes the lockfile.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
