package domain

// ReleaseClient talks to the upstream release API. Resolving the symbolic
// stable/nightly/latest tokens to concrete releases happens here, never in
// the token parser.
type ReleaseClient interface {
	LatestStable() (Release, error)
	LatestNightly() (Release, error)
	Releases() ([]Release, error)
	// ResolveCommit expands a short hash to the full commit hash.
	ResolveCommit(short string) (string, error)
}

// Downloader fetches the release archive for a tag and platform asset.
// Cached archives are returned immediately unless refresh is set (nightly
// archives go stale under the same tag).
type Downloader interface {
	Download(tag, asset, ext string, refresh bool) (archivePath string, err error)
}

// Extractor unpacks a release archive into a target directory, normalizing
// the layout so the binaries end up under <target>/bin/.
type Extractor interface {
	Extract(archivePath, targetDir string) error
}

// SourceBuilder materializes a commit-addressed version by building from
// source into targetDir. Returns the full commit hash that was built.
type SourceBuilder interface {
	Build(commit, targetDir string) (fullHash string, err error)
}

// Registry is the single source of truth for what is installed and what is
// active, and the only component allowed to mutate the installation tree.
type Registry interface {
	List() ([]InstalledVersion, error)
	IsInstalled(tok VersionToken) bool
	InstallPath(tok VersionToken) string
	Active() (InstalledVersion, error)
	Activate(tok VersionToken) error
	Remove(tok VersionToken, force bool) error
	EraseAll() error
	// StageDir creates a fresh staging directory inside the installation
	// root. Staged content only becomes visible through Promote.
	StageDir() (string, error)
	// Promote atomically renames a staging directory onto the token's
	// canonical name, replacing any previous install wholesale.
	Promote(stagedDir string, tok VersionToken) error
	// ReadSidecar loads the release.json for an installed token.
	ReadSidecar(tok VersionToken) (Sidecar, error)
	// WriteSidecar stores release.json into an install or staging dir.
	WriteSidecar(dir string, sc Sidecar) error
}

// Archiver accepts a superseded nightly installation for retention.
type Archiver interface {
	Archive(prev InstalledVersion) error
}

// RollbackStore keeps the bounded history of superseded nightly installs.
type RollbackStore interface {
	Archiver
	List() ([]RollbackSlot, error)
	// Rollback re-activates a slot; the empty selector means the newest.
	Rollback(selector string) (RollbackSlot, error)
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}
