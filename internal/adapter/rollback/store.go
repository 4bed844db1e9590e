// Package rollback keeps a bounded history of superseded nightly builds
// so an update that breaks a workflow can be undone. Slots are plain
// directories under the installation root's rollback dir, named after the
// build's commit and archive time.
package rollback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"nvup/internal/adapter/registry"
	"nvup/internal/domain"
)

// slotRe matches slot directory names: nightly-<shortcommit>-<unixnano>.
var slotRe = regexp.MustCompile(`^nightly-([0-9a-z]+)-(\d+)$`)

const unknownCommit = "unknown"

// Store archives and restores nightly installations through the registry's
// lock, so a rollback composes its renames atomically with other mutations.
type Store struct {
	reg    *registry.Registry
	limit  int
	logger domain.Logger
}

// New creates a store retaining at most limit slots. A limit of zero
// disables history: superseded nightlies are deleted instead of kept.
func New(reg *registry.Registry, limit int, logger domain.Logger) *Store {
	return &Store{reg: reg, limit: limit, logger: logger}
}

// Archive moves a superseded nightly installation into a new slot and
// prunes the oldest slots beyond the retention limit. Only nightly builds
// carry history; anything else is the caller's bug.
func (s *Store) Archive(prev domain.InstalledVersion) error {
	if prev.Token.Kind != domain.Nightly {
		return fmt.Errorf("archive %s: only nightly builds are archived", prev.Token)
	}
	return s.reg.WithLock(func() error {
		if s.limit == 0 {
			if err := os.RemoveAll(prev.InstallPath); err != nil {
				return fmt.Errorf("discard superseded nightly: %w", err)
			}
			return nil
		}

		commit := unknownCommit
		if sc, err := s.reg.ReadSidecar(prev.Token); err == nil && sc.CommitHash != "" {
			commit = domain.ShortHash(sc.CommitHash)
		}

		slotDir := s.reg.RollbackDir()
		if err := os.MkdirAll(slotDir, 0o755); err != nil {
			return fmt.Errorf("prepare rollback dir: %w", err)
		}
		name := fmt.Sprintf("nightly-%s-%d", commit, time.Now().UnixNano())
		if err := os.Rename(prev.InstallPath, filepath.Join(slotDir, name)); err != nil {
			return fmt.Errorf("archive nightly to %s: %w", name, err)
		}
		return s.prune()
	})
}

// List returns the archived slots, newest first.
func (s *Store) List() ([]domain.RollbackSlot, error) {
	entries, err := os.ReadDir(s.reg.RollbackDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rollback dir: %w", err)
	}

	var slots []domain.RollbackSlot
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := slotRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		nanos, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		slots = append(slots, domain.RollbackSlot{
			ID:         entry.Name(),
			Path:       filepath.Join(s.reg.RollbackDir(), entry.Name()),
			Commit:     m[1],
			ArchivedAt: time.Unix(0, nanos),
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].ArchivedAt.After(slots[j].ArchivedAt)
	})
	return slots, nil
}

// Rollback restores an archived nightly as the current one. With an empty
// selector the newest slot is chosen; otherwise the selector must prefix
// the slot's commit hash. The current nightly, if present, is swapped into
// a fresh slot. Pruning runs after the swap so the restored build can
// never be the one evicted.
func (s *Store) Rollback(selector string) (domain.RollbackSlot, error) {
	var restored domain.RollbackSlot
	err := s.reg.WithLock(func() error {
		slots, err := s.List()
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			return domain.ErrNoRollbackAvailable
		}

		chosen, err := pickSlot(slots, selector)
		if err != nil {
			return err
		}

		nightly := domain.VersionToken{Kind: domain.Nightly}
		current := s.reg.InstallPath(nightly)
		if _, err := os.Stat(current); err == nil {
			commit := unknownCommit
			if sc, err := s.reg.ReadSidecar(nightly); err == nil && sc.CommitHash != "" {
				commit = domain.ShortHash(sc.CommitHash)
			}
			name := fmt.Sprintf("nightly-%s-%d", commit, time.Now().UnixNano())
			if err := os.Rename(current, filepath.Join(s.reg.RollbackDir(), name)); err != nil {
				return fmt.Errorf("set aside current nightly: %w", err)
			}
		}

		if err := os.Rename(chosen.Path, current); err != nil {
			return fmt.Errorf("restore %s: %w", chosen.ID, err)
		}
		restored = chosen

		if err := s.reg.Activate(nightly); err != nil {
			return err
		}
		return s.prune()
	})
	return restored, err
}

// pickSlot matches a selector against the slot list. Ambiguity is not an
// error: the newest matching slot wins, which is what a short prefix of a
// recently archived commit means in practice.
func pickSlot(slots []domain.RollbackSlot, selector string) (domain.RollbackSlot, error) {
	if selector == "" {
		return slots[0], nil
	}
	sel := strings.ToLower(selector)
	for _, slot := range slots {
		if strings.HasPrefix(slot.Commit, sel) {
			return slot, nil
		}
	}
	return domain.RollbackSlot{}, fmt.Errorf("rollback %q: %w", selector, domain.ErrNoRollbackAvailable)
}

// prune drops the oldest slots until the count fits the retention limit.
func (s *Store) prune() error {
	slots, err := s.List()
	if err != nil {
		return err
	}
	for len(slots) > s.limit {
		oldest := slots[len(slots)-1]
		if err := os.RemoveAll(oldest.Path); err != nil {
			return fmt.Errorf("prune slot %s: %w", oldest.ID, err)
		}
		if s.logger != nil {
			s.logger.Info("pruned rollback slot", "slot", oldest.ID)
		}
		slots = slots[:len(slots)-1]
	}
	return nil
}
