package domain

import "time"

// InstalledVersion describes one materialized installation. It is created
// when an install completes, destroyed on uninstall or erase, and never
// mutated in place; a re-install replaces the directory wholesale.
type InstalledVersion struct {
	Token           VersionToken
	InstallPath     string
	BuiltFromSource bool
	// FullCommitHash is the full source commit, when known. For installs
	// addressed by a short hash it comes from the release sidecar.
	FullCommitHash string
	InstalledAt    time.Time
}

// RollbackSlot is an archived, previously-active nightly installation.
type RollbackSlot struct {
	// ID is the slot directory name, nightly-<shortcommit>-<unixts>.
	ID         string
	Path       string
	Commit     string
	ArchivedAt time.Time
}

// Release is one upstream release as reported by the release API.
type Release struct {
	TagName     string    `json:"tag_name"`
	CommitHash  string    `json:"target_commitish"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

// Sidecar is the release.json metadata written into every install
// directory. It carries the full commit for short-hash installs and the
// publish timestamp that nightly update detection and rollback identity
// depend on.
type Sidecar struct {
	TagName     string    `json:"tag_name"`
	CommitHash  string    `json:"commit_hash,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	SourceBuild bool      `json:"source_build,omitempty"`
}
