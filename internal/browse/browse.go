// Package browse implements file enumeration and glob-based file finding
// over an indexed session (spec §4.9): list the distinct files an index
// covers, sorted alphabetically, by size or by recency of indexing, and
// filter that enumeration by a glob or regular expression.
package browse

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/session"
)

// SortBy selects the ordering of a file listing.
type SortBy string

const (
	SortAlpha   SortBy = "alpha"
	SortSize    SortBy = "size"
	SortIndexed SortBy = "indexed"
)

// statCacheSize bounds each Browser's file-stat LRU, shared by every
// ListDir and FindFile call on that Browser; a session rarely has more distinct files than this, so the
// cache absorbs repeated listings (e.g. re-sorting the same session by
// size then by name) without re-stating every file each time.
const statCacheSize = 4096

// Entry describes one file known to a session's index.
type Entry struct {
	FilePath   string `json:"file_path"`
	SizeBytes  int64  `json:"size_bytes"`
	ChunkCount int    `json:"chunk_count"`
}

// ListDirRequest is the input to ListDir.
type ListDirRequest struct {
	Session string
	Sort    SortBy
	Limit   int
}

// FindFileRequest is the input to FindFile.
type FindFileRequest struct {
	Session string
	Pattern string
	Regex   bool
	Limit   int
}

// Browser enumerates files for a session, caching file-size stats across
// calls so repeated listings of the same session don't re-stat every file.
type Browser struct {
	mgr   *session.Manager
	stats *lru.Cache[string, int64]
}

// New constructs a Browser backed by mgr.
func New(mgr *session.Manager) (*Browser, error) {
	cache, err := lru.New[string, int64](statCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create file-stat cache: %w", err)
	}
	return &Browser{mgr: mgr, stats: cache}, nil
}

// ListDir enumerates the distinct files indexed by a session, sorted per
// req.Sort and truncated to req.Limit (0 means unlimited, still capped by
// store.MaxEnumerationHits upstream).
func (b *Browser) ListDir(ctx context.Context, req ListDirRequest) ([]Entry, error) {
	if !b.mgr.Exists(req.Session) {
		return nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", req.Session))
	}

	entries, err := b.enumerate(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	switch req.Sort {
	case "", SortAlpha:
		sort.Slice(entries, func(i, j int) bool { return entries[i].FilePath < entries[j].FilePath })
	case SortSize:
		sort.Slice(entries, func(i, j int) bool { return entries[i].SizeBytes > entries[j].SizeBytes })
	case SortIndexed:
		// Index enumeration order approximates indexing order; entries are
		// left unsorted, already grouped by file in first-seen order.
	default:
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, fmt.Sprintf("unknown sort %q", req.Sort))
	}

	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

// FindFile filters a session's enumerated files by a glob (doublestar,
// supports **) or, when req.Regex is set, a regular expression.
func (b *Browser) FindFile(ctx context.Context, req FindFileRequest) ([]Entry, error) {
	if strings.TrimSpace(req.Pattern) == "" {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, "pattern must not be blank")
	}
	if !b.mgr.Exists(req.Session) {
		return nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", req.Session))
	}

	entries, err := b.enumerate(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	var matcher func(string) bool
	if req.Regex {
		re, err := regexp.Compile(req.Pattern)
		if err != nil {
			return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidRegex, fmt.Sprintf("invalid regex %q: %v", req.Pattern, err))
		}
		matcher = re.MatchString
	} else {
		if !doublestar.ValidatePattern(req.Pattern) {
			return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidGlob, fmt.Sprintf("invalid glob %q", req.Pattern))
		}
		matcher = func(path string) bool {
			ok, _ := doublestar.Match(req.Pattern, filepathToSlash(path))
			return ok
		}
	}

	var matched []Entry
	for _, e := range entries {
		if matcher(filepathToSlash(e.FilePath)) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].FilePath < matched[j].FilePath })

	if req.Limit > 0 && len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}
	return matched, nil
}

// enumerate returns one Entry per distinct file path in the session,
// aggregating chunk counts and resolving file size through the shared
// stat cache.
func (b *Browser) enumerate(ctx context.Context, sessionID string) ([]Entry, error) {
	idx, _, err := b.mgr.Open(sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.AllForSession(ctx, sessionID, 0)
	if err != nil {
		return nil, coreerrors.SearchFailedError(fmt.Sprintf("enumerate session %q", sessionID), err)
	}

	byPath := map[string]*Entry{}
	var order []string
	for _, h := range hits {
		e, ok := byPath[h.FilePath]
		if !ok {
			e = &Entry{FilePath: h.FilePath, SizeBytes: b.statSize(h.FilePath)}
			byPath[h.FilePath] = e
			order = append(order, h.FilePath)
		}
		e.ChunkCount++
	}

	out := make([]Entry, 0, len(order))
	for _, p := range order {
		out = append(out, *byPath[p])
	}
	return out, nil
}

// statSize returns a file's current size in bytes, using the Browser's
// shared LRU to avoid re-stating the same file across repeated listings.
// A stat failure (file moved or deleted since indexing) yields 0 rather
// than failing the whole listing.
func (b *Browser) statSize(path string) int64 {
	if size, ok := b.stats.Get(path); ok {
		return size
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	size := info.Size()
	b.stats.Add(path, size)
	return size
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
