// Package extractor unpacks release archives with the system tar and
// unzip commands.
package extractor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"nvup/internal/adapter/platform"
	"nvup/internal/domain"
)

// ArchiveExtractor unpacks release archives into staging directories.
type ArchiveExtractor struct {
	logger domain.Logger
}

// NewArchiveExtractor creates an extractor.
func NewArchiveExtractor(logger domain.Logger) *ArchiveExtractor {
	return &ArchiveExtractor{logger: logger}
}

// Extract unpacks the archive into targetDir, stripping the archive's
// single top-level directory so the binaries land under targetDir/bin/.
// targetDir is expected to be a staging directory; visibility and cleanup
// on failure are the caller's concern.
func (e *ArchiveExtractor) Extract(archivePath, targetDir string) error {
	e.logger.Info("extracting archive", "archive", archivePath, "target", targetDir)

	var err error
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"):
		err = extractTar(archivePath, targetDir)
	case strings.HasSuffix(archivePath, ".zip"):
		err = extractZip(archivePath, targetDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", archivePath)
	}
	if err != nil {
		return err
	}

	// Verify the editor binary exists in the extracted output
	bin := filepath.Join(targetDir, "bin", platform.ExeName("nvim"))
	if _, err := os.Stat(bin); err != nil {
		return fmt.Errorf("extracted archive has no bin/nvim; delete %s and retry", archivePath)
	}

	e.logger.Info("extraction complete", "path", targetDir)
	return nil
}

func extractTar(archivePath, targetDir string) error {
	cmd := exec.Command("tar", "xzf", archivePath, "-C", targetDir, "--strip-components=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tar extract: %w", err)
	}
	return nil
}

// extractZip unpacks to a scratch dir first; unzip has no
// --strip-components, so the single top-level directory is flattened by
// moving its entries up.
func extractZip(archivePath, targetDir string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(targetDir), ".unzip-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	cmd := exec.Command("unzip", "-q", archivePath, "-d", scratch)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unzip extract: %w", err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return fmt.Errorf("read extracted output: %w", err)
	}
	root := scratch
	if len(entries) == 1 && entries[0].IsDir() {
		root = filepath.Join(scratch, entries[0].Name())
		entries, err = os.ReadDir(root)
		if err != nil {
			return fmt.Errorf("read extracted output: %w", err)
		}
	}
	for _, entry := range entries {
		if err := os.Rename(filepath.Join(root, entry.Name()), filepath.Join(targetDir, entry.Name())); err != nil {
			return fmt.Errorf("move extracted entry %s: %w", entry.Name(), err)
		}
	}
	return nil
}
