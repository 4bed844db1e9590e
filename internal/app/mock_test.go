package app

import (
	"errors"
	"os"
	"path/filepath"

	"nvup/internal/domain"
)

// mockReleaseClient returns configured releases and records calls.
type mockReleaseClient struct {
	stable   domain.Release
	nightly  domain.Release
	releases []domain.Release
	full     string
	err      error

	stableCalls  int
	nightlyCalls int
	resolveCalls int
}

func (m *mockReleaseClient) LatestStable() (domain.Release, error) {
	m.stableCalls++
	return m.stable, m.err
}

func (m *mockReleaseClient) LatestNightly() (domain.Release, error) {
	m.nightlyCalls++
	return m.nightly, m.err
}

func (m *mockReleaseClient) Releases() ([]domain.Release, error) {
	return m.releases, m.err
}

func (m *mockReleaseClient) ResolveCommit(short string) (string, error) {
	m.resolveCalls++
	if m.err != nil {
		return "", m.err
	}
	return m.full, nil
}

// mockDownloader records the last download and returns a fake archive path.
type mockDownloader struct {
	err         error
	called      bool
	lastTag     string
	lastAsset   string
	lastRefresh bool
}

func (m *mockDownloader) Download(tag, asset, ext string, refresh bool) (string, error) {
	m.called = true
	m.lastTag = tag
	m.lastAsset = asset
	m.lastRefresh = refresh
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join(os.TempDir(), tag+"-"+asset+"."+ext), nil
}

// mockExtractor materializes a plausible install layout in the target.
type mockExtractor struct {
	err         error
	called      bool
	lastArchive string
}

func (m *mockExtractor) Extract(archivePath, targetDir string) error {
	m.called = true
	m.lastArchive = archivePath
	if m.err != nil {
		return m.err
	}
	if err := os.MkdirAll(filepath.Join(targetDir, "bin"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(targetDir, "bin", "nvim"), []byte("bin"), 0o755)
}

// mockBuilder fakes a source build.
type mockBuilder struct {
	full       string
	err        error
	called     bool
	lastCommit string
}

func (m *mockBuilder) Build(commit, targetDir string) (string, error) {
	m.called = true
	m.lastCommit = commit
	if m.err != nil {
		return "", m.err
	}
	if err := os.MkdirAll(filepath.Join(targetDir, "bin"), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(targetDir, "bin", "nvim"), []byte("bin"), 0o755); err != nil {
		return "", err
	}
	return m.full, nil
}

// mockRegistry is a file-backed registry over a temp root, close enough to
// the real one to let install flows run end to end.
type mockRegistry struct {
	root           string
	sidecars       map[string]domain.Sidecar
	stagedSidecars map[string]domain.Sidecar
	active         string

	activated []string
	promoted  []string
	removed   []string
	erased    bool
}

func newMockRegistry(root string) *mockRegistry {
	return &mockRegistry{
		root:           root,
		sidecars:       make(map[string]domain.Sidecar),
		stagedSidecars: make(map[string]domain.Sidecar),
	}
}

func (m *mockRegistry) InstallPath(tok domain.VersionToken) string {
	return filepath.Join(m.root, tok.DirName())
}

func (m *mockRegistry) IsInstalled(tok domain.VersionToken) bool {
	info, err := os.Stat(m.InstallPath(tok))
	return err == nil && info.IsDir()
}

func (m *mockRegistry) List() ([]domain.InstalledVersion, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, nil
	}
	var out []domain.InstalledVersion
	for _, e := range entries {
		tok, err := domain.ParseToken(e.Name())
		if err != nil {
			continue
		}
		out = append(out, domain.InstalledVersion{Token: tok, InstallPath: m.InstallPath(tok)})
	}
	return out, nil
}

func (m *mockRegistry) Active() (domain.InstalledVersion, error) {
	if m.active == "" {
		return domain.InstalledVersion{}, domain.ErrNoActiveVersion
	}
	tok, err := domain.ParseToken(m.active)
	if err != nil {
		return domain.InstalledVersion{}, err
	}
	return domain.InstalledVersion{Token: tok, InstallPath: m.InstallPath(tok)}, nil
}

func (m *mockRegistry) Activate(tok domain.VersionToken) error {
	if !m.IsInstalled(tok) {
		return domain.ErrNotInstalled
	}
	m.active = tok.DirName()
	m.activated = append(m.activated, tok.DirName())
	return nil
}

func (m *mockRegistry) Remove(tok domain.VersionToken, force bool) error {
	if !m.IsInstalled(tok) {
		return domain.ErrNotInstalled
	}
	if m.active == tok.DirName() && !force {
		return domain.ErrActiveVersionInUse
	}
	if m.active == tok.DirName() {
		m.active = ""
	}
	m.removed = append(m.removed, tok.DirName())
	return os.RemoveAll(m.InstallPath(tok))
}

func (m *mockRegistry) EraseAll() error {
	m.erased = true
	m.active = ""
	if err := os.RemoveAll(m.root); err != nil {
		return err
	}
	return os.MkdirAll(m.root, 0o755)
}

func (m *mockRegistry) StageDir() (string, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(m.root, ".stage-")
}

func (m *mockRegistry) Promote(stagedDir string, tok domain.VersionToken) error {
	dest := m.InstallPath(tok)
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.Rename(stagedDir, dest); err != nil {
		return err
	}
	if sc, ok := m.stagedSidecars[stagedDir]; ok {
		m.sidecars[tok.DirName()] = sc
		delete(m.stagedSidecars, stagedDir)
	}
	m.promoted = append(m.promoted, tok.DirName())
	return nil
}

func (m *mockRegistry) ReadSidecar(tok domain.VersionToken) (domain.Sidecar, error) {
	sc, ok := m.sidecars[tok.DirName()]
	if !ok {
		return domain.Sidecar{}, os.ErrNotExist
	}
	return sc, nil
}

func (m *mockRegistry) WriteSidecar(dir string, sc domain.Sidecar) error {
	m.stagedSidecars[dir] = sc
	return nil
}

// mockRollback records archive and rollback calls.
type mockRollback struct {
	slots []domain.RollbackSlot
	err   error

	archived      []domain.InstalledVersion
	lastSelector  string
	rollbackCalls int
}

func (m *mockRollback) Archive(prev domain.InstalledVersion) error {
	m.archived = append(m.archived, prev)
	return nil
}

func (m *mockRollback) List() ([]domain.RollbackSlot, error) {
	return m.slots, m.err
}

func (m *mockRollback) Rollback(selector string) (domain.RollbackSlot, error) {
	m.rollbackCalls++
	m.lastSelector = selector
	if m.err != nil {
		return domain.RollbackSlot{}, m.err
	}
	if len(m.slots) == 0 {
		return domain.RollbackSlot{}, domain.ErrNoRollbackAvailable
	}
	return m.slots[0], nil
}

// mockLogger collects messages.
type mockLogger struct {
	messages []string
}

func (m *mockLogger) Info(msg string, args ...any)  { m.messages = append(m.messages, msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.messages = append(m.messages, "ERROR: "+msg) }

var errBoom = errors.New("boom")
