package session

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
)

func testConfig() IndexingConfig {
	return IndexingConfig{ChunkSize: 512, Overlap: 64, IncludePatterns: []string{"**/*.go"}}
}

func TestManager_CreateExistsDelete_RoundTrip(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	idx, meta, err := mgr.Create("s1", "/repo", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.True(t, mgr.Exists("s1"))
	assert.Equal(t, CurrentSchemaVersion, meta.SchemaVersion)

	require.NoError(t, mgr.Delete("s1"))
	assert.False(t, mgr.Exists("s1"))
}

func TestManager_Create_RejectsInvalidID(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, _, err = mgr.Create("-bad", "/repo", testConfig())
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}

func TestManager_Create_RejectsCollision(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	idx, _, err := mgr.Create("dup", "/repo", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, _, err = mgr.Create("dup", "/repo", testConfig())
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindAlreadyExists, coreerrors.GetKind(err))
}

func TestManager_Open_NotFound(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, _, err = mgr.Open("missing")
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindNotFound, coreerrors.GetKind(err))
}

func TestManager_Open_RejectsStaleSchema(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	idx, meta, err := mgr.Create("stale", "/repo", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	meta.SchemaVersion = 1
	require.NoError(t, mgr.UpdateMetadata("stale", meta))

	_, _, err = mgr.Open("stale")
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindStale, coreerrors.GetKind(err))
	assert.Contains(t, err.Error(), "old schema version")

	// GetMetadata still succeeds even though Open refuses the index.
	got, err := mgr.GetMetadata("stale")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.SchemaVersion)
}

func TestManager_Open_RejectsNewerSchema(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	idx, meta, err := mgr.Create("future", "/repo", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	meta.SchemaVersion = CurrentSchemaVersion + 1
	require.NoError(t, mgr.UpdateMetadata("future", meta))

	_, _, err = mgr.Open("future")
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindStale, coreerrors.GetKind(err))
}

func TestManager_UpdateMetadata_GetMetadata_RoundTrip(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	idx, meta, err := mgr.Create("rt", "/repo", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	meta.RecordIndexRun(3, 9, 1024)
	require.NoError(t, mgr.UpdateMetadata("rt", meta))

	got, err := mgr.GetMetadata("rt")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.FilesIndexed)
	assert.Equal(t, uint64(9), got.ChunksCreated)
	assert.Equal(t, uint64(1024), got.IndexSizeBytes)
}

func TestManager_List_SkipsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	idx1, _, err := mgr.Create("a", "/repo/a", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx1.Close())
	idx2, _, err := mgr.Create("b", "/repo/b", testConfig())
	require.NoError(t, err)
	require.NoError(t, idx2.Close())

	require.NoError(t, mgr.Delete("b"))
	// A session directory with no meta.json exercises List's silent-skip
	// behavior on unreadable entries.
	require.NoError(t, os.MkdirAll(mgr.Dir("broken"), 0o755))

	list, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}

func TestManager_Delete_NotFound(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	err = mgr.Delete("missing")
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindNotFound, coreerrors.GetKind(err))
}

func TestValidateID(t *testing.T) {
	valid := []string{"a", "abc-123", "A_1", "x234567890"}
	for _, id := range valid {
		assert.NoError(t, ValidateID(id), id)
	}

	invalid := []string{"", "-abc", "_abc", "has space", "has/slash"}
	for _, id := range invalid {
		assert.Error(t, ValidateID(id), id)
	}
}
