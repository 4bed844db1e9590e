// Package platform resolves OS- and architecture-dependent names: which
// release asset to download, how executables are spelled, and whether the
// current user can create symbolic links.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// Upstream renamed its release assets over time; these are the last tags
// shipped under the old names.
const (
	lastLegacyLinuxTag  = "v0.10.3"
	lastUniversalMacTag = "v0.9.5"
)

// AssetName returns the upstream archive name (without extension) for a
// release tag on the current platform. Non-semver tags (the nightly) use
// the modern naming scheme.
func AssetName(tag string) string {
	return assetNameFor(runtime.GOOS, runtime.GOARCH, tag)
}

func assetNameFor(goos, goarch, tag string) string {
	switch goos {
	case "windows":
		return "nvim-win64"
	case "darwin":
		if semver.IsValid(tag) && semver.Compare(tag, lastUniversalMacTag) <= 0 {
			return "nvim-macos"
		}
		if goarch == "arm64" {
			return "nvim-macos-arm64"
		}
		return "nvim-macos-x86_64"
	default:
		if semver.IsValid(tag) && semver.Compare(tag, lastLegacyLinuxTag) <= 0 {
			return "nvim-linux64"
		}
		if goarch == "arm64" {
			return "nvim-linux-arm64"
		}
		return "nvim-linux-x86_64"
	}
}

// ArchiveExt is the archive format upstream publishes for this OS.
func ArchiveExt() string {
	if runtime.GOOS == "windows" {
		return "zip"
	}
	return "tar.gz"
}

// ExeName appends the platform executable suffix.
func ExeName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		return name + ".exe"
	}
	return name
}

// CommandName strips the path and platform executable suffix from an
// invocation name, so dispatch compares bare command names.
func CommandName(invoked string) string {
	base := filepath.Base(invoked)
	return strings.TrimSuffix(base, ".exe")
}

// CanSymlink probes whether the current user may create symbolic links in
// dir. On Unix this is effectively always true; on Windows it depends on
// developer mode or elevation, so the pointer falls back to marker files.
func CanSymlink(dir string) bool {
	target := filepath.Join(dir, ".symlink-probe-target")
	link := filepath.Join(dir, ".symlink-probe")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		return false
	}
	defer os.Remove(target)
	if err := os.Symlink(target, link); err != nil {
		return false
	}
	os.Remove(link)
	return true
}
