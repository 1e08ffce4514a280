package browse

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

func buildBrowseSession(t *testing.T, id string) (*session.Manager, string) {
	t.Helper()
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "auth.rs"), []byte("pub fn authenticate() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "login.rs"), []byte("pub fn login() { println!(\"hi there friend\"); }\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "src", "main.rs"), []byte("fn main() {}\n"), 0o644))

	mgr, err := session.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = indexing.Index(context.Background(), mgr, indexing.Params{
		SessionID: id, RepositoryPath: repo, ChunkSize: 512, Overlap: 64, MaxFileSizeMB: 10,
	})
	require.NoError(t, err)
	return mgr, repo
}

func TestListDir_AlphaSort(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.ListDir(context.Background(), ListDirRequest{Session: "s", Sort: SortAlpha})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].FilePath, entries[i].FilePath)
	}
}

func TestListDir_SizeSortDescending(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.ListDir(context.Background(), ListDirRequest{Session: "s", Sort: SortSize})
	require.NoError(t, err)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].SizeBytes, entries[i].SizeBytes)
	}
}

func TestListDir_LimitTruncates(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.ListDir(context.Background(), ListDirRequest{Session: "s", Sort: SortAlpha, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListDir_UnknownSessionIsNotFound(t *testing.T) {
	mgr, err := session.NewManager(t.TempDir())
	require.NoError(t, err)
	b, err := New(mgr)
	require.NoError(t, err)

	_, err = b.ListDir(context.Background(), ListDirRequest{Session: "missing"})
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindNotFound, coreerrors.GetKind(err))
}

func TestListDir_InvalidSortIsInvalid(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	_, err = b.ListDir(context.Background(), ListDirRequest{Session: "s", Sort: "bogus"})
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}

func TestFindFile_GlobMatchesRecursively(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: "**/*.rs"})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFindFile_GlobFiltersBySubdir(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: "**/src/*.rs"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].FilePath, "main.rs")
}

func TestFindFile_RegexMode(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: `login\.rs$`, Regex: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].FilePath, "login.rs")
}

func TestFindFile_LimitTruncates(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	entries, err := b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: "**/*.rs", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFindFile_InvalidRegexIsInvalid(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	_, err = b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: "(unterminated", Regex: true})
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}

func TestFindFile_BlankPatternIsInvalid(t *testing.T) {
	mgr, _ := buildBrowseSession(t, "s")
	b, err := New(mgr)
	require.NoError(t, err)

	_, err = b.FindFile(context.Background(), FindFileRequest{Session: "s", Pattern: "  "})
	require.Error(t, err)
	assert.Equal(t, coreerrors.KindInvalid, coreerrors.GetKind(err))
}
