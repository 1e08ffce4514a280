package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/indexing"
	"github.com/shebe-dev/shebe/internal/session"
)

func testCfg() Config {
	return Config{DefaultK: 10, MaxK: 100, MaxQueryLength: 500}
}

func buildSession(t *testing.T, id string) *session.Manager {
	t.Helper()
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "auth.rs"),
		[]byte(`pub fn authenticate_user(name: &str) -> bool { true }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "login.rs"),
		[]byte(`pub fn login_handler() { println!("login"); }`), 0o644))

	mgr, err := session.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = indexing.Index(context.Background(), mgr, indexing.Params{
		SessionID: id, RepositoryPath: repo, ChunkSize: 512, Overlap: 64, MaxFileSizeMB: 10,
	})
	require.NoError(t, err)
	return mgr
}

func TestSearch_BasicQueryReturnsRankedHit(t *testing.T) {
	mgr := buildSession(t, "s")

	resp, err := Search(context.Background(), mgr, testCfg(), "s", "authenticate", nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, resp.Count, 1)
	assert.Contains(t, resp.Results[0].Text, "authenticate")
	assert.Greater(t, resp.Results[0].Score, 0.0)
}

func TestSearch_BlankQueryIsInvalid(t *testing.T) {
	mgr := buildSession(t, "s")

	_, err := Search(context.Background(), mgr, testCfg(), "s", "   ", nil)
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}

func TestSearch_UnknownSessionIsNotFound(t *testing.T) {
	mgr, err := session.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = Search(context.Background(), mgr, testCfg(), "missing", "foo", nil)
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindNotFound, coreerrors.GetKind(err))
}

func TestSearch_KZeroReturnsEmpty(t *testing.T) {
	mgr := buildSession(t, "s")

	zero := 0
	resp, err := Search(context.Background(), mgr, testCfg(), "s", "authenticate", &zero)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
}

func TestSearch_KAboveMaxIsClamped(t *testing.T) {
	mgr := buildSession(t, "s")

	huge := 1000
	resp, err := Search(context.Background(), mgr, testCfg(), "s", "fn", &huge)
	require.NoError(t, err)
	assert.LessOrEqual(t, resp.Count, testCfg().MaxK)
}

func TestSearch_QueryTooLongIsInvalid(t *testing.T) {
	mgr := buildSession(t, "s")
	cfg := Config{DefaultK: 10, MaxK: 100, MaxQueryLength: 5}

	_, err := Search(context.Background(), mgr, cfg, "s", "this query is way too long", nil)
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}

func TestSearch_SchemaGateFiresThroughSessionOpen(t *testing.T) {
	mgr := buildSession(t, "stale")
	meta, err := mgr.GetMetadata("stale")
	require.NoError(t, err)
	meta.SchemaVersion = 1
	require.NoError(t, mgr.UpdateMetadata("stale", meta))

	_, err = Search(context.Background(), mgr, testCfg(), "stale", "fn", nil)
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindStale, coreerrors.GetKind(err))
}

func TestSearch_ContentFieldIsSynonymForText(t *testing.T) {
	mgr := buildSession(t, "s")

	resp, err := Search(context.Background(), mgr, testCfg(), "s", "content:authenticate", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.Count, 1)
}
