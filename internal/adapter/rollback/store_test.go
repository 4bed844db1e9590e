package rollback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvup/internal/adapter/registry"
	"nvup/internal/domain"
)

func newTestStore(t *testing.T, limit int) (*Store, *registry.Registry) {
	t.Helper()
	root := t.TempDir()
	reg := registry.New(filepath.Join(root, "share"), filepath.Join(root, "cache"), nil)
	store := New(reg, limit, nil)
	reg.SetArchiver(store)
	return store, reg
}

// installNightly promotes a fresh nightly build carrying the given commit.
func installNightly(t *testing.T, reg *registry.Registry, commit string) domain.InstalledVersion {
	t.Helper()
	staged, err := reg.StageDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(staged, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "bin", "nvim"), []byte(commit), 0o755))
	require.NoError(t, reg.WriteSidecar(staged, domain.Sidecar{TagName: "nightly", CommitHash: commit}))

	tok := domain.VersionToken{Kind: domain.Nightly}
	require.NoError(t, reg.Promote(staged, tok))
	return domain.InstalledVersion{Token: tok, InstallPath: reg.InstallPath(tok)}
}

func addSlot(t *testing.T, reg *registry.Registry, commit string, nanos int64) string {
	t.Helper()
	name := fmt.Sprintf("nightly-%s-%d", commit, nanos)
	dir := filepath.Join(reg.RollbackDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "nvim"), []byte(commit), 0o755))
	return name
}

func slotNames(t *testing.T, store *Store) []string {
	t.Helper()
	slots, err := store.List()
	require.NoError(t, err)
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.ID
	}
	return names
}

func TestArchiveRejectsNonNightly(t *testing.T) {
	store, reg := newTestStore(t, 3)
	tok, err := domain.ParseToken("v0.10.2")
	require.NoError(t, err)

	err = store.Archive(domain.InstalledVersion{Token: tok, InstallPath: reg.InstallPath(tok)})
	assert.Error(t, err)
}

func TestArchiveCreatesSlotFromSidecar(t *testing.T) {
	store, reg := newTestStore(t, 3)
	prev := installNightly(t, reg, "deadbeefcafe0123")

	require.NoError(t, store.Archive(prev))

	slots, err := store.List()
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "deadbee", slots[0].Commit)

	_, err = os.Stat(prev.InstallPath)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(slots[0].Path, "bin", "nvim"))
	require.NoError(t, err)
	assert.Equal(t, "deadbeefcafe0123", string(data))
}

func TestArchiveLimitZeroDeletes(t *testing.T) {
	store, reg := newTestStore(t, 0)
	prev := installNightly(t, reg, "deadbee")

	require.NoError(t, store.Archive(prev))

	_, err := os.Stat(prev.InstallPath)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, slotNames(t, store))
}

func TestArchivePrunesOldestBeyondLimit(t *testing.T) {
	store, reg := newTestStore(t, 2)
	oldest := addSlot(t, reg, "aaaaaaa", 1000)
	middle := addSlot(t, reg, "bbbbbbb", 2000)

	prev := installNightly(t, reg, "ccccccc")
	require.NoError(t, store.Archive(prev))

	names := slotNames(t, store)
	require.Len(t, names, 2)
	assert.NotContains(t, names, oldest)
	assert.Contains(t, names, middle)
}

func TestListNewestFirst(t *testing.T) {
	store, reg := newTestStore(t, 5)
	addSlot(t, reg, "aaaaaaa", 1000)
	newest := addSlot(t, reg, "bbbbbbb", 3000)
	addSlot(t, reg, "ccccccc", 2000)

	names := slotNames(t, store)
	require.Len(t, names, 3)
	assert.Equal(t, newest, names[0])
}

func TestListIgnoresForeignEntries(t *testing.T) {
	store, reg := newTestStore(t, 5)
	require.NoError(t, os.MkdirAll(filepath.Join(reg.RollbackDir(), "stable-backup"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(reg.RollbackDir(), "nightly-xyz"), 0o755))
	addSlot(t, reg, "aaaaaaa", 1000)

	assert.Len(t, slotNames(t, store), 1)
}

func TestRollbackEmptyHistory(t *testing.T) {
	store, _ := newTestStore(t, 3)
	_, err := store.Rollback("")
	assert.ErrorIs(t, err, domain.ErrNoRollbackAvailable)
}

func TestRollbackRestoresNewestSlot(t *testing.T) {
	store, reg := newTestStore(t, 3)
	addSlot(t, reg, "aaaaaaa", 1000)
	addSlot(t, reg, "bbbbbbb", 2000)
	current := installNightly(t, reg, "ccccccc")
	nightly := current.Token
	require.NoError(t, reg.Activate(nightly))

	restored, err := store.Rollback("")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbb", restored.Commit)

	data, err := os.ReadFile(filepath.Join(reg.InstallPath(nightly), "bin", "nvim"))
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbb", string(data))

	active, err := reg.Active()
	require.NoError(t, err)
	assert.Equal(t, domain.Nightly, active.Token.Kind)

	// The displaced current build joined the history.
	names := slotNames(t, store)
	require.Len(t, names, 2)
	found := false
	for _, n := range names {
		if strings.HasPrefix(n, "nightly-ccccccc-") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRollbackBySelector(t *testing.T) {
	store, reg := newTestStore(t, 3)
	addSlot(t, reg, "aaaaaaa", 1000)
	addSlot(t, reg, "bbbbbbb", 2000)

	restored, err := store.Rollback("aaa")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaa", restored.Commit)
}

func TestRollbackUnknownSelector(t *testing.T) {
	store, reg := newTestStore(t, 3)
	addSlot(t, reg, "aaaaaaa", 1000)

	_, err := store.Rollback("fff")
	assert.ErrorIs(t, err, domain.ErrNoRollbackAvailable)
}

func TestRollbackAtLimitOneKeepsRestoredBuild(t *testing.T) {
	store, reg := newTestStore(t, 1)
	addSlot(t, reg, "aaaaaaa", 1000)
	installNightly(t, reg, "bbbbbbb")

	restored, err := store.Rollback("")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaa", restored.Commit)

	// The restored build is canonical; only the displaced one is a slot,
	// and it fits the limit.
	data, err := os.ReadFile(filepath.Join(reg.InstallPath(domain.VersionToken{Kind: domain.Nightly}), "bin", "nvim"))
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaa", string(data))
	assert.Len(t, slotNames(t, store), 1)
}

func TestRollbackThenRollbackIsInverse(t *testing.T) {
	store, reg := newTestStore(t, 3)
	addSlot(t, reg, "aaaaaaa", 1000)
	installNightly(t, reg, "bbbbbbb")

	_, err := store.Rollback("")
	require.NoError(t, err)
	_, err = store.Rollback("bbb")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(reg.InstallPath(domain.VersionToken{Kind: domain.Nightly}), "bin", "nvim"))
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbb", string(data))
}
