// Package release talks to the GitHub release API for the upstream
// neovim/neovim repository.
package release

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"nvup/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	repoPath       = "repos/neovim/neovim"

	// EnvToken carries an optional GitHub token; unauthenticated requests
	// hit a low rate limit on shared networks.
	EnvToken = "NVUP_GITHUB_TOKEN"
)

// Client resolves symbolic versions against GitHub releases.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a release client against api.github.com.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// LatestStable returns the release GitHub marks as latest.
func (c *Client) LatestStable() (domain.Release, error) {
	var rel domain.Release
	err := c.getJSON(fmt.Sprintf("%s/%s/releases/latest", c.baseURL, repoPath), &rel)
	return rel, err
}

// LatestNightly returns the rolling prerelease published under the
// nightly tag. Its target commitish identifies the actual build.
func (c *Client) LatestNightly() (domain.Release, error) {
	var rel domain.Release
	err := c.getJSON(fmt.Sprintf("%s/%s/releases/tags/nightly", c.baseURL, repoPath), &rel)
	return rel, err
}

// Releases lists the published releases, newest first as GitHub returns
// them. Pagination beyond the first page is not needed; the list feeds an
// interactive listing, not an archive.
func (c *Client) Releases() ([]domain.Release, error) {
	var rels []domain.Release
	err := c.getJSON(fmt.Sprintf("%s/%s/releases?per_page=100", c.baseURL, repoPath), &rels)
	return rels, err
}

// ResolveCommit expands a short hash to the full commit hash via the
// commits endpoint.
func (c *Client) ResolveCommit(short string) (string, error) {
	var commit struct {
		SHA string `json:"sha"`
	}
	err := c.getJSON(fmt.Sprintf("%s/%s/commits/%s", c.baseURL, repoPath, short), &commit)
	if err != nil {
		return "", fmt.Errorf("resolve commit %s: %w", short, err)
	}
	return commit.SHA, nil
}

func (c *Client) getJSON(url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "nvup")
	if token := os.Getenv(EnvToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("release API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Ratelimit-Remaining") == "0" {
		return fmt.Errorf("release API rate limit exceeded; set %s to raise it", EnvToken)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("release API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("release API: invalid response: %w", err)
	}
	return nil
}
