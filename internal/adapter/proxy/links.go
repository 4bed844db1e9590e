package proxy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nvup/internal/adapter/platform"
)

// proxiedNames are the commands exposed through the proxy bin directory.
var proxiedNames = []string{"nvim"}

// EnsureLinks populates proxyBinDir with entries for the proxied commands,
// each resolving to the managing executable itself. Users put this one
// directory on PATH; invocation under a proxied name routes through
// Dispatch. Symlinks are used where the filesystem allows them, with a
// plain copy of the executable as the fallback.
func EnsureLinks(proxyBinDir string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own executable: %w", err)
	}
	if err := os.MkdirAll(proxyBinDir, 0o755); err != nil {
		return fmt.Errorf("create proxy bin dir: %w", err)
	}

	symlinks := platform.CanSymlink(proxyBinDir)
	for _, name := range proxiedNames {
		link := filepath.Join(proxyBinDir, platform.ExeName(name))
		if symlinks {
			err = ensureSymlink(self, link)
		} else {
			err = copyExecutable(self, link)
		}
		if err != nil {
			return fmt.Errorf("proxy entry %s: %w", name, err)
		}
	}
	return nil
}

// RemoveLinks deletes the proxy entries from proxyBinDir. Entries that do
// not exist are skipped; anything else in the directory is left alone.
func RemoveLinks(proxyBinDir string) error {
	for _, name := range proxiedNames {
		link := filepath.Join(proxyBinDir, platform.ExeName(name))
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove proxy entry %s: %w", name, err)
		}
	}
	return nil
}

func ensureSymlink(target, link string) error {
	if existing, err := os.Readlink(link); err == nil && existing == target {
		return nil
	}
	tmp := fmt.Sprintf("%s.tmp%d", link, os.Getpid())
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := fmt.Sprintf("%s.tmp%d", dst, os.Getpid())
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tmp)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmp)
		return closeErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
