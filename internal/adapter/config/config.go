// Package config loads the nvup configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath overrides where the config file is read from.
const EnvConfigPath = "NVUP_CONFIG"

// defaultRollbackLimit matches the retention depth users expect out of the
// box: enough to undo a bad nightly without hoarding old builds.
const defaultRollbackLimit = 3

// Config is the user-facing configuration, read once per invocation and
// treated as read-only afterwards. All path values support $VAR expansion.
type Config struct {
	// InstallDir is the installation root: version directories, the active
	// pointer, the rollback history, and the lock file live here.
	InstallDir string `toml:"install_dir"`

	// DownloadsDir caches release archives before extraction.
	DownloadsDir string `toml:"downloads_dir"`

	// ProxyBinDir receives the proxy links (nvim -> nvup) that give the
	// user's PATH a single stable invocation point.
	ProxyBinDir string `toml:"proxy_bin_dir"`

	// SyncVersionFile, when set, names a file holding a single version
	// token shared across machines (read by `nvup sync`, written on use).
	SyncVersionFile string `toml:"sync_version_file"`

	// GithubMirror replaces the default download host, for networks where
	// github.com is slow or unreachable.
	GithubMirror string `toml:"github_mirror"`

	// RollbackLimit bounds the nightly rollback history (0 disables it).
	RollbackLimit int `toml:"rollback_limit"`
}

// Load reads the config from NVUP_CONFIG or ~/.config/nvup/config.toml.
// A missing file yields the defaults; a malformed file is an error.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	cfg := Config{RollbackLimit: defaultRollbackLimit}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.RollbackLimit < 0 || cfg.RollbackLimit > 255 {
		return Config{}, fmt.Errorf("config %s: rollback_limit %d out of range 0-255", path, cfg.RollbackLimit)
	}

	expandPaths(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration with no file applied. The proxy
// dispatch path falls back to this when the config file is unreadable.
func Defaults() (Config, error) {
	cfg := Config{RollbackLimit: defaultRollbackLimit}
	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configPath() (string, error) {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nvup", "config.toml"), nil
}

// expandPaths substitutes $VAR references so configs can say things like
// downloads_dir = "$HOME/Downloads/nvup".
func expandPaths(cfg *Config) {
	cfg.InstallDir = os.ExpandEnv(cfg.InstallDir)
	cfg.DownloadsDir = os.ExpandEnv(cfg.DownloadsDir)
	cfg.ProxyBinDir = os.ExpandEnv(cfg.ProxyBinDir)
	cfg.SyncVersionFile = os.ExpandEnv(cfg.SyncVersionFile)
	cfg.GithubMirror = os.ExpandEnv(cfg.GithubMirror)
}

func applyDefaults(cfg *Config) error {
	if cfg.InstallDir != "" && cfg.DownloadsDir != "" && cfg.ProxyBinDir != "" {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = filepath.Join(home, ".local", "share", "nvup")
	}
	if cfg.DownloadsDir == "" {
		cfg.DownloadsDir = filepath.Join(home, ".cache", "nvup")
	}
	if cfg.ProxyBinDir == "" {
		cfg.ProxyBinDir = filepath.Join(cfg.InstallDir, "bin")
	}
	return nil
}
