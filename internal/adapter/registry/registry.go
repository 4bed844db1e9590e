// Package registry is the durable record of installed versions and the one
// active version. It is the only component that mutates the installation
// tree: installs stage into hidden temp directories and are promoted by a
// single rename, the active pointer swaps atomically, and every mutating
// operation runs under the root's exclusive lock.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"nvup/internal/domain"
)

const (
	// rollbackDirName holds archived nightly slots inside the root.
	rollbackDirName = "rollback"
	// sidecarName is the per-install release metadata file.
	sidecarName = "release.json"
	// stagePattern prefixes staging dirs; ParseToken never accepts these
	// names, so an interrupted install is invisible to lookups.
	stagePattern = ".stage-"
)

// Registry manages the installation root on disk.
type Registry struct {
	root      string
	downloads string
	ptr       Pointer
	lock      *Lock
	archiver  domain.Archiver
	logger    domain.Logger
}

// New creates a registry over installDir. downloadsDir is only touched by
// EraseAll; archives themselves are owned by the downloader.
func New(installDir, downloadsDir string, logger domain.Logger) *Registry {
	return &Registry{
		root:      installDir,
		downloads: downloadsDir,
		ptr:       NewPointer(installDir),
		lock:      NewLock(installDir),
		logger:    logger,
	}
}

// SetArchiver wires the rollback store in after construction; the store is
// built on top of the registry, so the two cannot be constructed at once.
func (r *Registry) SetArchiver(a domain.Archiver) { r.archiver = a }

// Root returns the installation root directory.
func (r *Registry) Root() string { return r.root }

// RollbackDir returns where archived nightly slots live.
func (r *Registry) RollbackDir() string { return filepath.Join(r.root, rollbackDirName) }

// WithLock exposes the root's exclusive lock so operations layered on the
// registry (rollback swaps) can compose multiple steps atomically.
func (r *Registry) WithLock(fn func() error) error { return r.lock.WithLock(fn) }

// InstallPath is the canonical directory for a token.
func (r *Registry) InstallPath(tok domain.VersionToken) string {
	return filepath.Join(r.root, tok.DirName())
}

// IsInstalled checks for the canonical directory. Staged or interrupted
// installs never carry a canonical name, so existence is sufficient.
func (r *Registry) IsInstalled(tok domain.VersionToken) bool {
	if tok.DirName() == "" {
		return false
	}
	info, err := os.Stat(r.InstallPath(tok))
	return err == nil && info.IsDir()
}

// List scans the installation root for version directories, in lexical
// order. Entries that do not spell a canonical token name (the pointer,
// the rollback dir, staging leftovers) are skipped.
func (r *Registry) List() ([]domain.InstalledVersion, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read install root %s: %w", r.root, err)
	}

	var versions []domain.InstalledVersion
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tok, err := domain.ParseToken(entry.Name())
		if err != nil || tok.DirName() != entry.Name() {
			continue
		}
		versions = append(versions, r.installedVersion(tok))
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Token.DirName() < versions[j].Token.DirName()
	})
	return versions, nil
}

func (r *Registry) installedVersion(tok domain.VersionToken) domain.InstalledVersion {
	path := r.InstallPath(tok)
	iv := domain.InstalledVersion{Token: tok, InstallPath: path}
	if info, err := os.Stat(path); err == nil {
		iv.InstalledAt = info.ModTime()
	}
	if sc, err := r.ReadSidecar(tok); err == nil {
		iv.FullCommitHash = sc.CommitHash
		iv.BuiltFromSource = sc.SourceBuild
	}
	return iv
}

// Active resolves the pointer to the active installation. It reads through
// the same atomic-rename-protected path as dispatch and takes no lock.
func (r *Registry) Active() (domain.InstalledVersion, error) {
	dir, err := r.ptr.Resolve()
	if err != nil {
		return domain.InstalledVersion{}, err
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return domain.InstalledVersion{}, domain.ErrNoActiveVersion
	}
	tok, err := domain.ParseToken(filepath.Base(dir))
	if err != nil {
		return domain.InstalledVersion{}, fmt.Errorf("active pointer targets %s: %w", dir, err)
	}
	return r.installedVersion(tok), nil
}

// Activate points the active pointer at the token's installation. When the
// previously active version is a nightly other than the target, it is
// handed to the rollback store after the pointer moves, so a concurrent
// dispatch never resolves a directory mid-relocation.
func (r *Registry) Activate(tok domain.VersionToken) error {
	if tok.DirName() == "" {
		return domain.ErrUnresolvedToken
	}
	return r.WithLock(func() error {
		path := r.InstallPath(tok)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			return fmt.Errorf("activate %s: %w", tok, domain.ErrNotInstalled)
		}

		prev, prevErr := r.Active()

		if err := r.ptr.Set(path); err != nil {
			return err
		}

		if prevErr == nil && prev.Token.Kind == domain.Nightly && !prev.Token.Equal(tok) && r.archiver != nil {
			if err := r.archiver.Archive(prev); err != nil {
				return fmt.Errorf("archive superseded nightly: %w", err)
			}
		}
		return nil
	})
}

// Remove deletes a version's directory and, for the nightly, its rollback
// slots. Removing the active version is refused unless force is set,
// in which case the pointer is cleared first so it never references a
// deleted path.
func (r *Registry) Remove(tok domain.VersionToken, force bool) error {
	if tok.DirName() == "" {
		return domain.ErrUnresolvedToken
	}
	return r.WithLock(func() error {
		path := r.InstallPath(tok)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			return fmt.Errorf("remove %s: %w", tok, domain.ErrNotInstalled)
		}

		if active, err := r.Active(); err == nil && active.Token.Equal(tok) {
			if !force {
				return fmt.Errorf("remove %s: %w", tok, domain.ErrActiveVersionInUse)
			}
			if err := r.ptr.Clear(); err != nil {
				return err
			}
		}

		if err := removeTree(path); err != nil {
			return err
		}

		if tok.Kind == domain.Nightly {
			slots, _ := filepath.Glob(filepath.Join(r.RollbackDir(), "nightly-*"))
			for _, slot := range slots {
				if err := removeTree(slot); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// EraseAll removes the installation tree, the downloads cache, and the
// active pointer. Calling it on an already-clean state is not an error.
func (r *Registry) EraseAll() error {
	return r.WithLock(func() error {
		entries, err := os.ReadDir(r.root)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return removeTree(r.downloads)
			}
			return fmt.Errorf("read install root %s: %w", r.root, err)
		}
		for _, entry := range entries {
			if entry.Name() == lockName {
				// The held lock file goes last, with the root itself.
				continue
			}
			if err := removeTree(filepath.Join(r.root, entry.Name())); err != nil {
				return err
			}
		}
		if err := removeTree(r.downloads); err != nil {
			return err
		}
		return nil
	})
}

// StageDir creates a hidden staging directory in the root. Content only
// becomes addressable once Promote renames it to a canonical name, so an
// interrupted install leaves nothing a lookup can see and retrying is
// always safe.
func (r *Registry) StageDir() (string, error) {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return "", fmt.Errorf("prepare install root %s: %w", r.root, err)
	}
	dir, err := os.MkdirTemp(r.root, stagePattern)
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// Promote renames a staging directory onto the token's canonical name.
// A previous install of the same token is replaced wholesale; when that
// previous install is the active nightly it is archived instead of
// deleted, which is how a nightly update feeds the rollback history.
func (r *Registry) Promote(stagedDir string, tok domain.VersionToken) error {
	if tok.DirName() == "" {
		return domain.ErrUnresolvedToken
	}
	return r.WithLock(func() error {
		dest := r.InstallPath(tok)

		if _, err := os.Stat(dest); err == nil {
			active, activeErr := r.Active()
			isActiveNightly := activeErr == nil && active.Token.Equal(tok) && tok.Kind == domain.Nightly
			if isActiveNightly && r.archiver != nil {
				if err := r.archiver.Archive(r.installedVersion(tok)); err != nil {
					return fmt.Errorf("archive superseded nightly: %w", err)
				}
			} else if err := removeTree(dest); err != nil {
				return err
			}
		}

		if err := os.Rename(stagedDir, dest); err != nil {
			return fmt.Errorf("promote %s: %w", tok, err)
		}
		return nil
	})
}

// ReadSidecar loads the release metadata for an installed token.
func (r *Registry) ReadSidecar(tok domain.VersionToken) (domain.Sidecar, error) {
	data, err := os.ReadFile(filepath.Join(r.InstallPath(tok), sidecarName))
	if err != nil {
		return domain.Sidecar{}, err
	}
	var sc domain.Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return domain.Sidecar{}, fmt.Errorf("parse %s for %s: %w", sidecarName, tok, err)
	}
	return sc, nil
}

// WriteSidecar stores release metadata into an install or staging dir.
func (r *Registry) WriteSidecar(dir string, sc domain.Sidecar) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, sidecarName), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", sidecarName, err)
	}
	return nil
}

// removeTree deletes recursively, reporting a path that stays behind (a
// file locked by a running process) as in-use rather than claiming
// success. Permission errors surface verbatim with the attempted path.
func removeTree(path string) error {
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return &domain.RemovalInUseError{Path: pathErr.Path, Err: pathErr.Err}
	}
	return fmt.Errorf("remove %s: %w", path, err)
}
