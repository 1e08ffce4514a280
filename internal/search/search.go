// Package search implements the query-time service described in spec §4.6:
// validate a request, open the target session's reader, preprocess the
// query, execute BM25 search against the text field, and package ranked
// hits for the caller.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/query"
	"github.com/shebe-dev/shebe/internal/session"
)

// Config bounds query-time parameters, mirroring the configuration
// record's "search" section (spec §6).
type Config struct {
	DefaultK       int
	MaxK           int
	MaxQueryLength int
}

// Result is a single ranked hit.
type Result struct {
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
	FilePath    string  `json:"file_path"`
	ChunkIndex  int64   `json:"chunk_index"`
	StartOffset int64   `json:"start_offset"`
	EndOffset   int64   `json:"end_offset"`
}

// Response is the packaged outcome of a search request.
type Response struct {
	Query      string   `json:"query"`
	Results    []Result `json:"results"`
	Count      int      `json:"count"`
	DurationMs int64    `json:"duration_ms"`
}

// Search executes a query against a session's index. k, when nil, uses
// cfg.DefaultK; any non-nil value is clamped to [0, cfg.MaxK].
func Search(ctx context.Context, mgr *session.Manager, cfg Config, sessionID, rawQuery string, k *int) (*Response, error) {
	start := time.Now()

	if strings.TrimSpace(rawQuery) == "" {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeQueryEmpty, "query must not be blank")
	}
	if cfg.MaxQueryLength > 0 && len(rawQuery) > cfg.MaxQueryLength {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeQueryTooLong,
			fmt.Sprintf("query exceeds maximum length of %d characters", cfg.MaxQueryLength))
	}

	limit := cfg.DefaultK
	if k != nil {
		limit = *k
	}
	if limit < 0 {
		limit = 0
	}
	if cfg.MaxK > 0 && limit > cfg.MaxK {
		limit = cfg.MaxK
	}

	if !mgr.Exists(sessionID) {
		return nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", sessionID))
	}

	idx, _, err := mgr.Open(sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	processed := query.Preprocess(rawQuery, false)

	var results []Result
	if limit > 0 {
		hits, err := idx.Search(ctx, processed, sessionID, limit)
		if err != nil {
			return nil, coreerrors.SearchFailedError(fmt.Sprintf("search session %q", sessionID), err)
		}
		results = make([]Result, 0, len(hits))
		for _, h := range hits {
			results = append(results, Result{
				Score:       h.Score,
				Text:        h.Text,
				FilePath:    h.FilePath,
				ChunkIndex:  h.ChunkIndex,
				StartOffset: h.OffsetStart,
				EndOffset:   h.OffsetEnd,
			})
		}
	}

	return &Response{
		Query:      rawQuery,
		Results:    results,
		Count:      len(results),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
