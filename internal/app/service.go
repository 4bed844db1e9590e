package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nvup/internal/adapter/platform"
	"nvup/internal/domain"
)

// Config holds resolved runtime configuration for the service.
type Config struct {
	// SyncVersionFile, when set, is written on every successful Use and
	// read back by Sync. It lets dotfile repos pin the editor version.
	SyncVersionFile string
}

// Service orchestrates version lifecycle operations. Every method works in
// terms of version tokens; resolving the symbolic ones (stable, nightly,
// latest) against the release API happens at the top of each operation.
type Service struct {
	client     domain.ReleaseClient
	downloader domain.Downloader
	extractor  domain.Extractor
	builder    domain.SourceBuilder
	registry   domain.Registry
	rollback   domain.RollbackStore
	logger     domain.Logger
	cfg        Config
}

// NewService creates the application service with all dependencies injected.
func NewService(
	rc domain.ReleaseClient,
	dl domain.Downloader,
	ex domain.Extractor,
	sb domain.SourceBuilder,
	rg domain.Registry,
	rb domain.RollbackStore,
	lg domain.Logger,
	cfg Config,
) *Service {
	return &Service{
		client:     rc,
		downloader: dl,
		extractor:  ex,
		builder:    sb,
		registry:   rg,
		rollback:   rb,
		logger:     lg,
		cfg:        cfg,
	}
}

// Resolve expands the latest token to whichever of stable or nightly was
// published most recently. Other tokens pass through unchanged.
func (s *Service) Resolve(tok domain.VersionToken) (domain.VersionToken, error) {
	if tok.Kind != domain.Latest {
		return tok, nil
	}
	stable, err := s.client.LatestStable()
	if err != nil {
		return tok, fmt.Errorf("resolve latest: %w", err)
	}
	nightly, err := s.client.LatestNightly()
	if err != nil {
		return tok, fmt.Errorf("resolve latest: %w", err)
	}
	if nightly.PublishedAt.After(stable.PublishedAt) {
		return domain.VersionToken{Kind: domain.Nightly}, nil
	}
	return domain.VersionToken{Kind: domain.Stable}, nil
}

// Install materializes a version. Installing an already-installed version
// is a no-op, except for the nightly, which re-installs when upstream has
// published a newer build. Returns the concrete token that was installed.
func (s *Service) Install(tok domain.VersionToken) (domain.VersionToken, error) {
	tok, err := s.Resolve(tok)
	if err != nil {
		return tok, err
	}

	switch tok.Kind {
	case domain.Commit:
		return tok, s.installCommit(tok)
	case domain.Nightly:
		return tok, s.installNightly()
	case domain.Stable:
		return tok, s.installStable()
	case domain.Semantic:
		if s.registry.IsInstalled(tok) {
			s.logger.Info("already installed", "version", tok.DirName())
			return tok, nil
		}
		rel := domain.Release{TagName: tok.TagName()}
		return tok, s.installRelease(tok, rel, false)
	default:
		return tok, domain.ErrUnresolvedToken
	}
}

// installStable keeps the stable directory tracking the latest tagged
// release; the sidecar records which tag is materialized there.
func (s *Service) installStable() error {
	tok := domain.VersionToken{Kind: domain.Stable}
	rel, err := s.client.LatestStable()
	if err != nil {
		return err
	}

	if s.registry.IsInstalled(tok) {
		sc, err := s.registry.ReadSidecar(tok)
		if err == nil && sc.TagName == rel.TagName {
			s.logger.Info("stable is up to date", "tag", sc.TagName)
			return nil
		}
	}
	return s.installRelease(tok, rel, false)
}

func (s *Service) installNightly() error {
	tok := domain.VersionToken{Kind: domain.Nightly}
	rel, err := s.client.LatestNightly()
	if err != nil {
		return err
	}

	if s.registry.IsInstalled(tok) {
		sc, err := s.registry.ReadSidecar(tok)
		if err == nil && !rel.PublishedAt.After(sc.PublishedAt) {
			s.logger.Info("nightly is up to date", "published", sc.PublishedAt)
			return nil
		}
	}
	// The nightly tag is reused across builds; the cached archive under it
	// is stale by definition.
	return s.installRelease(tok, rel, true)
}

func (s *Service) installRelease(tok domain.VersionToken, rel domain.Release, refresh bool) error {
	asset := platform.AssetName(rel.TagName)
	archive, err := s.downloader.Download(rel.TagName, asset, platform.ArchiveExt(), refresh)
	if err != nil {
		return fmt.Errorf("download %s: %w", tok, err)
	}

	staged, err := s.registry.StageDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(staged)

	if err := s.extractor.Extract(archive, staged); err != nil {
		return fmt.Errorf("extract %s: %w", tok, err)
	}
	sc := domain.Sidecar{
		TagName:     rel.TagName,
		CommitHash:  rel.CommitHash,
		PublishedAt: rel.PublishedAt,
	}
	if err := s.registry.WriteSidecar(staged, sc); err != nil {
		return err
	}
	if err := s.registry.Promote(staged, tok); err != nil {
		return err
	}
	s.logger.Info("installed", "version", tok.DirName())
	return nil
}

// installCommit builds a commit-addressed version from source; commits
// have no release assets.
func (s *Service) installCommit(tok domain.VersionToken) error {
	if s.registry.IsInstalled(tok) {
		s.logger.Info("already installed", "version", tok.DirName())
		return nil
	}

	fullHash, err := s.client.ResolveCommit(tok.Hash)
	if err != nil {
		return err
	}

	staged, err := s.registry.StageDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(staged)

	builtHash, err := s.builder.Build(fullHash, staged)
	if err != nil {
		return err
	}
	sc := domain.Sidecar{
		TagName:     tok.DirName(),
		CommitHash:  builtHash,
		SourceBuild: true,
	}
	if err := s.registry.WriteSidecar(staged, sc); err != nil {
		return err
	}
	if err := s.registry.Promote(staged, tok); err != nil {
		return err
	}
	s.logger.Info("installed from source", "version", tok.DirName(), "commit", builtHash)
	return nil
}

// Use makes a version active, installing it first when missing. With
// noInstall set a missing version is an error instead.
func (s *Service) Use(tok domain.VersionToken, noInstall bool) (domain.VersionToken, error) {
	tok, err := s.Resolve(tok)
	if err != nil {
		return tok, err
	}

	if noInstall {
		if !s.registry.IsInstalled(tok) {
			return tok, fmt.Errorf("use %s: %w", tok, domain.ErrNotInstalled)
		}
	} else {
		if tok, err = s.Install(tok); err != nil {
			return tok, err
		}
	}

	if err := s.registry.Activate(tok); err != nil {
		return tok, err
	}
	s.logger.Info("now active", "version", tok.DirName())

	if s.cfg.SyncVersionFile != "" {
		if err := s.writeSyncFile(tok); err != nil {
			s.logger.Error("sync file not updated", "err", err)
		}
	}
	return tok, nil
}

// Uninstall removes an installed version. The active version is refused
// unless force is set.
func (s *Service) Uninstall(tok domain.VersionToken, force bool) error {
	tok, err := s.Resolve(tok)
	if err != nil {
		return err
	}
	if err := s.registry.Remove(tok, force); err != nil {
		return err
	}
	s.logger.Info("uninstalled", "version", tok.DirName())
	return nil
}

// Sync activates the version named in the sync file, installing it when
// missing. Hash-pinned entries are rejected: a commit in the sync file
// would silently drift from what teammates resolve.
func (s *Service) Sync() (domain.VersionToken, error) {
	if s.cfg.SyncVersionFile == "" {
		return domain.VersionToken{}, errors.New("sync: no sync file configured")
	}
	data, err := os.ReadFile(s.cfg.SyncVersionFile)
	if err != nil {
		return domain.VersionToken{}, fmt.Errorf("sync: read %s: %w", s.cfg.SyncVersionFile, err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return domain.VersionToken{}, fmt.Errorf("sync: %s is empty", s.cfg.SyncVersionFile)
	}

	tok, err := domain.ParseToken(raw)
	if err != nil {
		return domain.VersionToken{}, fmt.Errorf("sync: %w", err)
	}
	if tok.Kind == domain.Commit {
		return domain.VersionToken{}, fmt.Errorf("sync: %s pins commit %s; sync files carry named versions only", s.cfg.SyncVersionFile, tok.DirName())
	}
	return s.Use(tok, false)
}

// Rollback restores an archived nightly build.
func (s *Service) Rollback(selector string) (domain.RollbackSlot, error) {
	slot, err := s.rollback.Rollback(selector)
	if err != nil {
		return slot, err
	}
	s.logger.Info("rolled back", "commit", slot.Commit)
	return slot, nil
}

// RollbackSlots lists the archived nightly builds, newest first.
func (s *Service) RollbackSlots() ([]domain.RollbackSlot, error) {
	return s.rollback.List()
}

// Erase removes every installation, the downloads cache, and the active
// pointer.
func (s *Service) Erase() error {
	if err := s.registry.EraseAll(); err != nil {
		return err
	}
	s.logger.Info("erased all managed state")
	return nil
}

// List returns the installed versions and the active one, when any.
func (s *Service) List() ([]domain.InstalledVersion, *domain.VersionToken, error) {
	versions, err := s.registry.List()
	if err != nil {
		return nil, nil, err
	}
	active, err := s.registry.Active()
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveVersion) {
			return versions, nil, nil
		}
		return nil, nil, err
	}
	return versions, &active.Token, nil
}

// ListRemote returns the upstream releases as the API orders them, the
// rolling nightly first.
func (s *Service) ListRemote() ([]domain.Release, error) {
	return s.client.Releases()
}

// RunBinPath resolves the editor binary of a specific version, installing
// it first when missing. The caller hands execution over to the returned
// path.
func (s *Service) RunBinPath(tok domain.VersionToken) (string, error) {
	tok, err := s.Install(tok)
	if err != nil {
		return "", err
	}
	bin := filepath.Join(s.registry.InstallPath(tok), "bin", platform.ExeName("nvim"))
	if _, err := os.Stat(bin); err != nil {
		return "", &domain.BinaryMissingError{Name: "nvim", Dir: filepath.Dir(bin)}
	}
	return bin, nil
}

func (s *Service) writeSyncFile(tok domain.VersionToken) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.SyncVersionFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.cfg.SyncVersionFile, []byte(tok.DirName()+"\n"), 0o644)
}
