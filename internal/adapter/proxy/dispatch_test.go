package proxy

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvup/internal/adapter/platform"
	"nvup/internal/domain"
)

type fakeResolver struct {
	active domain.InstalledVersion
	err    error
}

func (f *fakeResolver) Active() (domain.InstalledVersion, error) {
	return f.active, f.err
}

func activeInstall(t *testing.T, binaries ...string) domain.InstalledVersion {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	for _, name := range binaries {
		path := filepath.Join(dir, "bin", platform.ExeName(name))
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	}
	tok, err := domain.ParseToken("v0.10.2")
	require.NoError(t, err)
	return domain.InstalledVersion{Token: tok, InstallPath: dir}
}

func TestBinPathResolvesActiveBinary(t *testing.T) {
	active := activeInstall(t, "nvim")
	d := NewDispatcher(&fakeResolver{active: active})

	bin, err := d.BinPath("nvim")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(active.InstallPath, "bin", platform.ExeName("nvim")), bin)
}

func TestBinPathAnySiblingBinary(t *testing.T) {
	active := activeInstall(t, "nvim", "vim-diff-tool")
	d := NewDispatcher(&fakeResolver{active: active})

	bin, err := d.BinPath("vim-diff-tool")
	require.NoError(t, err)
	assert.Contains(t, bin, "vim-diff-tool")
}

func TestBinPathMissingBinary(t *testing.T) {
	active := activeInstall(t, "nvim")
	d := NewDispatcher(&fakeResolver{active: active})

	_, err := d.BinPath("nvim-qt")
	var missing *domain.BinaryMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "nvim-qt", missing.Name)
}

func TestBinPathNoActiveVersion(t *testing.T) {
	d := NewDispatcher(&fakeResolver{err: domain.ErrNoActiveVersion})

	_, err := d.BinPath("nvim")
	assert.ErrorIs(t, err, domain.ErrNoActiveVersion)
}

func TestDispatchStripsPathAndExeSuffix(t *testing.T) {
	active := activeInstall(t, "nvim")
	d := NewDispatcher(&fakeResolver{active: active})

	invoked := filepath.Join("/usr/local/bin", platform.ExeName("nvim"))
	name := platform.CommandName(invoked)
	assert.Equal(t, "nvim", name)

	bin, err := d.BinPath(name)
	require.NoError(t, err)
	assert.NotEmpty(t, bin)
}

func TestEnsureLinksCreatesProxyEntries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("copy fallback covered by symlink-less filesystems")
	}
	dir := t.TempDir()
	require.NoError(t, EnsureLinks(dir))

	link := filepath.Join(dir, "nvim")
	target, err := os.Readlink(link)
	require.NoError(t, err)

	self, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, self, target)

	// Idempotent.
	require.NoError(t, EnsureLinks(dir))
}

func TestRemoveLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("copy fallback covered by symlink-less filesystems")
	}
	dir := t.TempDir()
	require.NoError(t, EnsureLinks(dir))
	require.NoError(t, RemoveLinks(dir))

	_, err := os.Lstat(filepath.Join(dir, "nvim"))
	assert.True(t, os.IsNotExist(err))

	// Removing from a dir without entries is not an error.
	require.NoError(t, RemoveLinks(dir))
}
