package downloader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nvup/internal/domain"
)

const defaultBaseURL = "https://github.com"

// HTTPDownloader fetches release archives from GitHub, caching them by tag
// and asset name.
type HTTPDownloader struct {
	cacheDir string
	baseURL  string
	client   *http.Client
	logger   domain.Logger
}

// NewHTTPDownloader creates a downloader that caches archives in cacheDir.
// A non-empty mirror replaces the github.com host for the download URLs.
func NewHTTPDownloader(cacheDir, mirror string, logger domain.Logger) *HTTPDownloader {
	base := defaultBaseURL
	if mirror != "" {
		base = strings.TrimRight(mirror, "/")
	}
	return &HTTPDownloader{
		cacheDir: cacheDir,
		baseURL:  base,
		client:   &http.Client{Timeout: 10 * time.Minute},
		logger:   logger,
	}
}

// Download fetches the archive for the given release tag and platform
// asset. Returns the path to the cached archive. A cached copy is reused
// unless refresh is set; nightly archives change under the same tag, so
// their installs always refresh.
func (d *HTTPDownloader) Download(tag, asset, ext string, refresh bool) (string, error) {
	filename := fmt.Sprintf("%s-%s.%s", tag, asset, ext)
	dest := filepath.Join(d.cacheDir, filename)

	if !refresh {
		if _, err := os.Stat(dest); err == nil {
			d.logger.Info("using cached archive", "path", dest)
			return dest, nil
		}
	}

	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	url := fmt.Sprintf("%s/neovim/neovim/releases/download/%s/%s.%s", d.baseURL, tag, asset, ext)
	d.logger.Info("downloading release archive", "tag", tag, "asset", asset)

	resp, err := d.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("release %s has no asset %s.%s; the tag may predate this platform's packaging", tag, asset, ext)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned HTTP %d", resp.StatusCode)
	}

	// Write to temp file then rename atomically
	tmp, err := os.CreateTemp(d.cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write archive: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename archive: %w", err)
	}

	d.logger.Info("download complete", "path", dest)
	return dest, nil
}
