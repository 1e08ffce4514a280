// Package indexing composes the file walker, the chunker and the index
// store into the end-to-end build operation: walk a repository, chunk its
// admitted files, and commit the resulting documents to a session's index.
// Re-indexing is always destroy-then-rebuild; there is no incremental path.
package indexing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/shebe-dev/shebe/internal/chunk"
	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/session"
	"github.com/shebe-dev/shebe/internal/store"
	"github.com/shebe-dev/shebe/internal/walker"
)

// Params are the inputs to an end-to-end index build, matching §4.4's
// composed operation signature.
type Params struct {
	SessionID       string
	RepositoryPath  string
	IncludePatterns []string
	ExcludePatterns []string
	ChunkSize       int
	Overlap         int
	MaxFileSizeMB   int
	Force           bool
}

// Result summarizes a completed build.
type Result struct {
	Session       string
	FilesIndexed  int
	FilesSkipped  int
	ChunksCreated int
	DurationMs    int64
}

// Index runs the full build described in spec §4.4: validate/clear the
// session slot, walk and chunk the repository, commit the resulting
// documents, and record the measured statistics in the session's metadata.
func Index(ctx context.Context, mgr *session.Manager, p Params) (*Result, error) {
	start := time.Now()

	if err := session.ValidateID(p.SessionID); err != nil {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidSessionID, err.Error())
	}

	if mgr.Exists(p.SessionID) {
		if !p.Force {
			return nil, coreerrors.AlreadyExistsError(fmt.Sprintf("session %q already exists", p.SessionID))
		}
		if err := mgr.Delete(p.SessionID); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(p.RepositoryPath); err != nil {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidPath, fmt.Sprintf("repository path %q does not exist", p.RepositoryPath))
	}

	w, err := walker.New(p.IncludePatterns, p.ExcludePatterns, p.MaxFileSizeMB)
	if err != nil {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidGlob, err.Error())
	}

	chunker, err := chunk.New(p.ChunkSize, p.Overlap)
	if err != nil {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, err.Error())
	}

	paths, err := w.Collect(p.RepositoryPath)
	if err != nil {
		return nil, coreerrors.IOError(fmt.Sprintf("walk %q", p.RepositoryPath), err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	var docs []store.Document
	filesIndexed, filesSkipped := 0, 0

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("indexing: skipped unreadable file", slog.String("path", path), slog.String("error", err.Error()))
			filesSkipped++
			continue
		}
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			slog.Warn("indexing: skipped non-text file", slog.String("path", path))
			filesSkipped++
			continue
		}

		// An empty file is a successful read that produces zero chunks, not
		// a skip: it still counts toward filesIndexed (spec §7).
		if len(data) > 0 {
			chunks := chunker.Chunk(string(data), path)
			for _, c := range chunks {
				docs = append(docs, store.Document{
					ID:          fmt.Sprintf("%s:%s:%d", p.SessionID, path, c.ChunkIndex),
					Session:     p.SessionID,
					FilePath:    path,
					Text:        c.Text,
					OffsetStart: int64(c.StartByte),
					OffsetEnd:   int64(c.EndByte),
					ChunkIndex:  int64(c.ChunkIndex),
					IndexedAt:   now,
				})
			}
		}
		filesIndexed++
	}

	cfg := session.IndexingConfig{
		ChunkSize:       p.ChunkSize,
		Overlap:         p.Overlap,
		IncludePatterns: p.IncludePatterns,
		ExcludePatterns: p.ExcludePatterns,
	}

	idx, meta, err := mgr.Create(p.SessionID, p.RepositoryPath, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	if err := idx.AddDocuments(ctx, docs); err != nil {
		return nil, coreerrors.IndexFailedError(fmt.Sprintf("index session %q", p.SessionID), err)
	}
	if err := idx.Commit(); err != nil {
		return nil, coreerrors.IndexFailedError(fmt.Sprintf("commit session %q", p.SessionID), err)
	}

	sizeBytes := idx.Stats().IndexSizeBytes
	meta.RecordIndexRun(uint64(filesIndexed), uint64(len(docs)), sizeBytes)
	if err := mgr.UpdateMetadata(p.SessionID, meta); err != nil {
		return nil, err
	}

	return &Result{
		Session:       p.SessionID,
		FilesIndexed:  filesIndexed,
		FilesSkipped:  filesSkipped,
		ChunksCreated: len(docs),
		DurationMs:    time.Since(start).Milliseconds(),
	}, nil
}

// ReindexParams overrides applied on top of a session's stored config. A
// nil pointer means "keep the stored value".
type ReindexParams struct {
	SessionID string
	ChunkSize *int
	Overlap   *int
	Force     bool
}

// Reindex rebuilds an existing session from its stored repository_path and
// pattern lists, optionally overriding chunk_size/overlap. If neither an
// override nor Force is given, it fails with an Invalid "no changes" error
// rather than performing a no-op rebuild (§12 SUPPLEMENTED FEATURES).
func Reindex(ctx context.Context, mgr *session.Manager, p ReindexParams) (*Result, error) {
	meta, err := mgr.GetMetadata(p.SessionID)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(meta.RepositoryPath); err != nil {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeRepoPathNotFound,
			fmt.Sprintf("repository path %q for session %q no longer exists", meta.RepositoryPath, p.SessionID))
	}

	if p.ChunkSize == nil && p.Overlap == nil && !p.Force {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeNoChanges,
			fmt.Sprintf("reindex of %q requested no overrides and force=false; nothing to do", p.SessionID))
	}

	chunkSize := meta.Config.ChunkSize
	if p.ChunkSize != nil {
		chunkSize = *p.ChunkSize
	}
	overlap := meta.Config.Overlap
	if p.Overlap != nil {
		overlap = *p.Overlap
	}

	return Index(ctx, mgr, Params{
		SessionID:       p.SessionID,
		RepositoryPath:  meta.RepositoryPath,
		IncludePatterns: meta.Config.IncludePatterns,
		ExcludePatterns: meta.Config.ExcludePatterns,
		ChunkSize:       chunkSize,
		Overlap:         overlap,
		MaxFileSizeMB:   walker.DefaultMaxFileSizeMB,
		Force:           true,
	})
}

// Upgrade moves a stale session to the current schema version by deleting
// and rebuilding it from its stored config. It is a convenience wrapper,
// not a schema-transform migration (§9 Design Notes).
func Upgrade(ctx context.Context, mgr *session.Manager, sessionID string) (*Result, error) {
	return Reindex(ctx, mgr, ReindexParams{SessionID: sessionID, Force: true})
}
