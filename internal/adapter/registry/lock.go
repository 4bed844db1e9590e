package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"nvup/internal/domain"
)

// lockName is the fixed lock file inside the installation root. All
// registry-mutating operations serialize on it; dispatch only reads the
// pointer and never takes it.
const lockName = ".nvup.lock"

// Lock is a scoped exclusive lock on the installation root. It is held by
// file lock (flock), so a crashed holder's lock is released by the kernel
// and can never go permanently stale. The holder records its PID in the
// lock file purely for diagnostics when acquisition fails.
type Lock struct {
	path  string
	fl    *flock.Flock
	depth int
}

// NewLock creates the lock for an installation root.
func NewLock(root string) *Lock {
	path := filepath.Join(root, lockName)
	return &Lock{path: path, fl: flock.New(path)}
}

// WithLock runs fn while holding the exclusive lock, releasing it on every
// exit path. Nested calls from the same invocation re-enter without
// re-acquiring; the process is single-threaded per the execution model.
func (l *Lock) WithLock(fn func() error) error {
	if l.depth > 0 {
		l.depth++
		defer func() { l.depth-- }()
		return fn()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("prepare lock dir: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return &domain.LockHeldError{Path: l.path, PID: l.holderPID()}
	}

	_ = os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)

	l.depth = 1
	defer func() {
		l.depth = 0
		_ = l.fl.Unlock()
	}()
	return fn()
}

func (l *Lock) holderPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
