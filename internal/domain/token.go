package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TokenKind enumerates the ways a user can reference a version.
type TokenKind int

const (
	// Stable is the latest tagged stable release.
	Stable TokenKind = iota
	// Nightly is the rolling pre-release build.
	Nightly
	// Latest is whichever of stable or nightly was published last.
	// It has no on-disk identity until resolved against the release API.
	Latest
	// Semantic is an exact released version (major.minor.patch).
	Semantic
	// Commit is a source commit to build from.
	Commit
)

var (
	semanticRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	hexHashRe  = regexp.MustCompile(`^[0-9a-fA-F]{5,40}$`)
)

// shortHashLen is the canonical length for commit directory names.
const shortHashLen = 7

// VersionToken is a parsed, immutable version reference. Two tokens are
// interchangeable exactly when their DirName is equal.
type VersionToken struct {
	Kind  TokenKind
	Major int
	Minor int
	Patch int
	// Hash is the lowercased commit hash as given (5-40 hex chars).
	Hash string
}

// ParseToken canonicalizes a user-supplied version string. It never touches
// the network: latest/stable/nightly stay symbolic until the release client
// resolves them.
func ParseToken(input string) (VersionToken, error) {
	trimmed := strings.TrimSpace(input)

	switch trimmed {
	case "stable":
		return VersionToken{Kind: Stable}, nil
	case "nightly":
		return VersionToken{Kind: Nightly}, nil
	case "latest":
		return VersionToken{Kind: Latest}, nil
	}

	numeric := strings.TrimPrefix(trimmed, "v")
	if semanticRe.MatchString(numeric) {
		parts := strings.SplitN(numeric, ".", 3)
		major, _ := strconv.Atoi(parts[0])
		minor, _ := strconv.Atoi(parts[1])
		patch, _ := strconv.Atoi(parts[2])
		return VersionToken{Kind: Semantic, Major: major, Minor: minor, Patch: patch}, nil
	}

	if hexHashRe.MatchString(trimmed) {
		return VersionToken{Kind: Commit, Hash: strings.ToLower(trimmed)}, nil
	}

	return VersionToken{}, &ParseError{Input: input}
}

// DirName is the canonical on-disk directory name for the token. It is a
// pure function of the token so lookups never scan directory content.
// Latest has no directory name; it must be resolved first.
func (t VersionToken) DirName() string {
	switch t.Kind {
	case Stable:
		return "stable"
	case Nightly:
		return "nightly"
	case Semantic:
		return fmt.Sprintf("v%d.%d.%d", t.Major, t.Minor, t.Patch)
	case Commit:
		return ShortHash(t.Hash)
	default:
		return ""
	}
}

// TagName is the release tag the token downloads as. For Stable the actual
// tag comes from the release API; callers pass that through instead.
func (t VersionToken) TagName() string {
	switch t.Kind {
	case Nightly:
		return "nightly"
	case Semantic:
		return fmt.Sprintf("v%d.%d.%d", t.Major, t.Minor, t.Patch)
	default:
		return ""
	}
}

// Equal reports whether two tokens address the same installation.
func (t VersionToken) Equal(other VersionToken) bool {
	return t.DirName() != "" && t.DirName() == other.DirName()
}

// String renders the token the way a user would type it.
func (t VersionToken) String() string {
	switch t.Kind {
	case Latest:
		return "latest"
	default:
		return t.DirName()
	}
}

// ShortHash truncates a commit hash to the canonical directory-name length.
func ShortHash(hash string) string {
	hash = strings.ToLower(hash)
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}
