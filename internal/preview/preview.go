// Package preview implements chunk preview (spec §4.8): given a session, a
// file path and a chunk index, it re-locates the chunk's byte range, reads
// the backing file, and renders the chunk expanded by a caller-supplied
// number of context lines, with explicit line numbers.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/session"
	"github.com/shebe-dev/shebe/internal/store"
)

// MaxContextLines bounds how far a preview may expand beyond the chunk's
// own span.
const MaxContextLines = 100

// Request is the input to Preview.
type Request struct {
	Session      string
	FilePath     string
	ChunkIndex   int64
	ContextLines int
}

// Line is a single rendered line of the preview.
type Line struct {
	Number     int    `json:"number"` // 1-based
	Text       string `json:"text"`
	ChunkStart bool   `json:"chunk_start"` // true on the chunk's first line
	ChunkEnd   bool   `json:"chunk_end"`   // true on the chunk's last line
}

// Response is a fully rendered chunk preview.
type Response struct {
	FilePath   string `json:"file_path"`
	ChunkIndex int64  `json:"chunk_index"`
	FirstLine  int    `json:"first_line"`
	LastLine   int    `json:"last_line"`
	Lines      []Line `json:"lines"`
}

// Preview implements the lookup-then-render pipeline of §4.8.
func Preview(ctx context.Context, mgr *session.Manager, req Request) (*Response, error) {
	if req.ContextLines < 0 || req.ContextLines > MaxContextLines {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam,
			fmt.Sprintf("context_lines must be in [0, %d]", MaxContextLines))
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, "file_path must not be blank")
	}

	if !mgr.Exists(req.Session) {
		return nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", req.Session))
	}

	idx, _, err := mgr.Open(req.Session)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	hit, err := idx.Lookup(ctx, req.Session, req.FilePath, req.ChunkIndex)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return nil, coreerrors.NotFoundError(coreerrors.ErrCodeChunkNotFound,
				fmt.Sprintf("chunk %d of %q not found in session %q", req.ChunkIndex, req.FilePath, req.Session))
		}
		return nil, coreerrors.SearchFailedError(fmt.Sprintf("lookup chunk %d of %q", req.ChunkIndex, req.FilePath), err)
	}

	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, coreerrors.IOError(fmt.Sprintf("read %q", req.FilePath), err)
	}

	if hit.OffsetStart < 0 || hit.OffsetEnd > int64(len(data)) || hit.OffsetStart > hit.OffsetEnd {
		return nil, coreerrors.InternalError(fmt.Sprintf("chunk %d of %q has an offset range outside the current file", req.ChunkIndex, req.FilePath), nil)
	}

	firstChunkLine := 1 + bytes.Count(data[:hit.OffsetStart], []byte{'\n'})
	lastChunkLine := 1 + bytes.Count(data[:hit.OffsetEnd], []byte{'\n'})

	lines := strings.Split(string(data), "\n")

	start := firstChunkLine - 1 - req.ContextLines
	if start < 0 {
		start = 0
	}
	end := lastChunkLine - 1 + req.ContextLines
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	var rendered []Line
	for i := start; i <= end; i++ {
		lineNum := i + 1
		rendered = append(rendered, Line{
			Number:     lineNum,
			Text:       lines[i],
			ChunkStart: lineNum == firstChunkLine,
			ChunkEnd:   lineNum == lastChunkLine,
		})
	}

	return &Response{
		FilePath:   req.FilePath,
		ChunkIndex: req.ChunkIndex,
		FirstLine:  firstChunkLine,
		LastLine:   lastChunkLine,
		Lines:      rendered,
	}, nil
}
