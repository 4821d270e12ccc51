package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// ErrLocked is returned when another process holds the session lock.
var ErrLocked = errors.New("session is locked by another process")

// Lock is an exclusive advisory lock on a single session. Only one
// process may advance a session at a time; readers are unaffected.
type Lock struct {
	path string
}

type lockInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// AcquireLock takes the exclusive lock for the given session id under
// basePath. A lock left behind by a dead process on the same host is
// reclaimed automatically.
func AcquireLock(basePath, id string) (*Lock, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}
	path := filepath.Join(basePath, id+".lock")

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			hostname, _ := os.Hostname()
			info := lockInfo{PID: os.Getpid(), Hostname: hostname, AcquiredAt: time.Now()}
			if encErr := json.NewEncoder(file).Encode(info); encErr != nil {
				file.Close()
				os.Remove(path)
				return nil, errors.Wrap(encErr, "failed to write lock file")
			}
			if closeErr := file.Close(); closeErr != nil {
				os.Remove(path)
				return nil, errors.Wrap(closeErr, "failed to write lock file")
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "failed to create lock file")
		}
		if !stale(path) {
			return nil, errors.Wrapf(ErrLocked, "session %s", id)
		}
		// Stale holder: clear and retry once.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, errors.Wrap(rmErr, "failed to remove stale lock")
		}
	}
	return nil, errors.Wrapf(ErrLocked, "session %s", id)
}

// stale reports whether the lock file belongs to a process that no
// longer exists on this host. An unreadable lock is treated as held.
func stale(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return false
	}
	hostname, _ := os.Hostname()
	if info.Hostname != hostname || info.PID <= 0 {
		return false
	}
	if info.PID == os.Getpid() {
		return false
	}
	return !processAlive(info.PID)
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to release session lock")
	}
	return nil
}
