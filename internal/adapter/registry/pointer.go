package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nvup/internal/adapter/platform"
	"nvup/internal/domain"
)

// activeName is the pointer entry inside the installation root.
const activeName = "active"

// Pointer is the durable record of which installation is active. Both
// implementations swap atomically: a new pointer is written at a temporary
// name and renamed over the old one, so a concurrently-starting dispatch
// never observes a missing or half-written pointer.
type Pointer interface {
	Set(targetDir string) error
	Resolve() (string, error)
	Clear() error
}

// NewPointer picks the symlink implementation when the platform allows
// unprivileged symlinks in root, and the marker-file fallback otherwise.
func NewPointer(root string) Pointer {
	if err := os.MkdirAll(root, 0o755); err == nil && platform.CanSymlink(root) {
		return &symlinkPointer{root: root}
	}
	return &markerPointer{root: root}
}

// symlinkPointer realizes the active pointer as <root>/active -> version dir.
type symlinkPointer struct {
	root string
}

func (p *symlinkPointer) path() string { return filepath.Join(p.root, activeName) }

func (p *symlinkPointer) Set(targetDir string) error {
	tmp := fmt.Sprintf("%s.tmp%d", p.path(), os.Getpid())
	_ = os.Remove(tmp)
	if err := os.Symlink(targetDir, tmp); err != nil {
		return fmt.Errorf("write active pointer: %w", err)
	}
	if err := os.Rename(tmp, p.path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap active pointer: %w", err)
	}
	return nil
}

func (p *symlinkPointer) Resolve() (string, error) {
	target, err := os.Readlink(p.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNoActiveVersion
		}
		return "", fmt.Errorf("read active pointer %s: %w", p.path(), err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(p.root, target)
	}
	return target, nil
}

func (p *symlinkPointer) Clear() error {
	if err := os.Remove(p.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear active pointer: %w", err)
	}
	return nil
}

// markerPointer stores the target directory in a plain file, for platforms
// where creating symlinks needs privileges the user may not have.
type markerPointer struct {
	root string
}

func (p *markerPointer) path() string { return filepath.Join(p.root, activeName) }

func (p *markerPointer) Set(targetDir string) error {
	tmp := fmt.Sprintf("%s.tmp%d", p.path(), os.Getpid())
	if err := os.WriteFile(tmp, []byte(targetDir+"\n"), 0o644); err != nil {
		return fmt.Errorf("write active marker: %w", err)
	}
	if err := os.Rename(tmp, p.path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap active marker: %w", err)
	}
	return nil
}

func (p *markerPointer) Resolve() (string, error) {
	data, err := os.ReadFile(p.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNoActiveVersion
		}
		return "", fmt.Errorf("read active marker %s: %w", p.path(), err)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", domain.ErrNoActiveVersion
	}
	return target, nil
}

func (p *markerPointer) Clear() error {
	if err := os.Remove(p.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear active marker: %w", err)
	}
	return nil
}
