// Package builder materializes commit-addressed versions by compiling the
// upstream source, for commits that never shipped a release asset.
package builder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"nvup/internal/domain"
)

const defaultRepoURL = "https://github.com/neovim/neovim.git"

// SourceBuilder clones upstream, checks out a commit, and runs the build.
// It shells out to git and make; both must be on PATH.
type SourceBuilder struct {
	repoURL string
	workDir string
	logger  domain.Logger
}

// NewSourceBuilder creates a builder that clones into workDir. A non-empty
// mirror replaces the github.com host for the clone URL.
func NewSourceBuilder(workDir, mirror string, logger domain.Logger) *SourceBuilder {
	repoURL := defaultRepoURL
	if mirror != "" {
		repoURL = strings.TrimRight(mirror, "/") + "/neovim/neovim.git"
	}
	return &SourceBuilder{repoURL: repoURL, workDir: workDir, logger: logger}
}

// Build checks out the commit and installs the result into targetDir.
// Returns the full commit hash that was built. The clone is kept between
// builds so only the first commit install pays for a full fetch.
func (b *SourceBuilder) Build(commit, targetDir string) (string, error) {
	repoDir := filepath.Join(b.workDir, "neovim-src")

	if _, err := os.Stat(filepath.Join(repoDir, ".git")); err != nil {
		b.logger.Info("cloning source repository", "url", b.repoURL)
		if err := b.run("", "git", "clone", b.repoURL, repoDir); err != nil {
			return "", err
		}
	} else {
		if err := b.run(repoDir, "git", "fetch", "origin"); err != nil {
			return "", err
		}
	}

	if err := b.run(repoDir, "git", "checkout", commit); err != nil {
		return "", fmt.Errorf("checkout %s: %w", commit, err)
	}

	fullHash, err := b.output(repoDir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}

	b.logger.Info("building from source", "commit", fullHash)
	if err := b.run(repoDir, "make", "CMAKE_BUILD_TYPE=RelWithDebInfo",
		fmt.Sprintf("CMAKE_EXTRA_FLAGS=-DCMAKE_INSTALL_PREFIX=%s", targetDir)); err != nil {
		return "", fmt.Errorf("build %s: %w", commit, err)
	}
	if err := b.run(repoDir, "make", "install"); err != nil {
		return "", fmt.Errorf("install %s: %w", commit, err)
	}

	return fullHash, nil
}

func (b *SourceBuilder) run(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (b *SourceBuilder) output(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
