// Package store persists indexed chunks in a Bleve full-text index and
// provides BM25-scored search over them. Each session owns exactly one
// store directory; a cross-process file lock admits one writer at a time,
// and a second writer is refused rather than made to wait.
package store

import "time"

// Document is a single indexed chunk, as stored in the full-text index.
type Document struct {
	ID          string // opaque document id: session + file path + chunk index
	Session     string
	FilePath    string
	Text        string
	OffsetStart int64
	OffsetEnd   int64
	ChunkIndex  int64
	IndexedAt   time.Time
}

// Hit is a single scored search result.
type Hit struct {
	FilePath    string
	Text        string
	OffsetStart int64
	OffsetEnd   int64
	ChunkIndex  int64
	Score       float64
}

// Stats summarizes the current contents of a store.
type Stats struct {
	DocumentCount int
	IndexSizeBytes uint64
}

// BM25Config tunes the analyzer used to tokenize indexed text.
type BM25Config struct {
	// StopWords is filtered out of indexed content before scoring.
	StopWords []string
}

// DefaultBM25Config returns the stop-word list used when none is supplied.
func DefaultBM25Config() BM25Config {
	return BM25Config{StopWords: DefaultCodeStopWords}
}

// DefaultCodeStopWords contains programming keywords common enough to add
// noise to ranking without adding precision.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}
