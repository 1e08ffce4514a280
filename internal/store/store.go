package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// CodeTokenizerName is the name of the code-aware tokenizer registered
	// with Bleve's analyzer registry.
	CodeTokenizerName = "code_tokenizer"

	// CodeStopFilterName is the name of the code stop-word filter.
	CodeStopFilterName = "code_stop"

	// CodeAnalyzerName is the default analyzer applied to indexed text.
	CodeAnalyzerName = "code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(CodeStopFilterName, codeStopFilterConstructor)
}

// bleveDocument is the shape indexed into Bleve; field names double as
// query-string field prefixes (e.g. "file_path:foo.go").
type bleveDocument struct {
	Text        string    `json:"text"`
	FilePath    string    `json:"file_path"`
	Session     string    `json:"session"`
	OffsetStart int64     `json:"offset_start"`
	OffsetEnd   int64     `json:"offset_end"`
	ChunkIndex  int64     `json:"chunk_index"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Store wraps a single Bleve index directory. A Store is the unit of
// isolation for one session: one store per <storage_root>/sessions/<id>/tantivy.
type Store struct {
	mu     sync.RWMutex
	index  bleve.Index
	lock   *WriterLock
	path   string
	closed bool
}

// Create initializes a new, empty index at path. path must not already
// contain an index.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index parent directory: %w", err)
	}

	lock := NewWriterLock(filepath.Dir(path))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index writer lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("index at %s is already open for writing", path)
	}

	idx, err := bleve.New(path, buildIndexMapping())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Store{index: idx, lock: lock, path: path}, nil
}

// Open opens an existing index at path for reading and writing. It returns
// an error immediately if another writer already holds the index's lock.
func Open(path string) (*Store, error) {
	if err := validateIndexIntegrity(path); err != nil {
		return nil, fmt.Errorf("index at %s is unreadable: %w", path, err)
	}

	lock := NewWriterLock(filepath.Dir(path))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index writer lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("index at %s is already open for writing", path)
	}

	idx, err := bleve.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Store{index: idx, lock: lock, path: path}, nil
}

// OpenReadOnly opens an existing index for search only, without taking the
// writer lock. Multiple readers may be open concurrently with each other
// and with a single writer.
func OpenReadOnly(path string) (*Store, error) {
	if err := validateIndexIntegrity(path); err != nil {
		return nil, fmt.Errorf("index at %s is unreadable: %w", path, err)
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Store{index: idx}, nil
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": CodeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			CodeStopFilterName,
		},
	}); err != nil {
		// Only fails on a programming error in the analyzer definition
		// above; fall back to the default analyzer rather than panic.
		slog.Warn("store: failed to register code analyzer, using default", slog.String("error", err.Error()))
	} else {
		im.DefaultAnalyzer = CodeAnalyzerName
	}

	docMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = CodeAnalyzerName
	docMapping.AddFieldMappingsAt("text", text)

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("file_path", keyword)
	docMapping.AddFieldMappingsAt("session", keyword)

	numeric := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("offset_start", numeric)
	docMapping.AddFieldMappingsAt("offset_end", numeric)
	docMapping.AddFieldMappingsAt("chunk_index", numeric)

	dateMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt("indexed_at", dateMapping)

	im.DefaultMapping = docMapping
	return im
}

// AddDocuments indexes docs in a single batch. Callers are expected to
// Commit (implicit: Bleve batches are durable once Batch returns).
func (s *Store) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	batch := s.index.NewBatch()
	for _, d := range docs {
		bd := bleveDocument{
			Text:        d.Text,
			FilePath:    d.FilePath,
			Session:     d.Session,
			OffsetStart: d.OffsetStart,
			OffsetEnd:   d.OffsetEnd,
			ChunkIndex:  d.ChunkIndex,
			IndexedAt:   d.IndexedAt,
		}
		if err := batch.Index(d.ID, bd); err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// contentFieldAlias rewrites the externally-documented "content:" field
// prefix to the internally-mapped "text" field name. "content" is never a
// field of the index mapping itself: it exists only as the query-language
// synonym spec'd for the stored text field.
var contentFieldAlias = regexp.MustCompile(`(^|\s)content:`)

// Search executes a pre-validated Bleve query string against the index,
// scoped to session, and returns up to limit hits ordered by BM25 score.
func (s *Store) Search(ctx context.Context, queryStr, session string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	queryStr = contentFieldAlias.ReplaceAllString(queryStr, "${1}text:")

	textQuery := bleve.NewQueryStringQuery(queryStr)
	sessionQuery := bleve.NewTermQuery(session)
	sessionQuery.SetField("session")

	combined := bleve.NewConjunctionQuery(textQuery, sessionQuery)

	req := bleve.NewSearchRequestOptions(combined, limit, 0, false)
	req.Fields = []string{"text", "file_path", "offset_start", "offset_end", "chunk_index"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{
			FilePath:    stringField(hit.Fields, "file_path"),
			Text:        stringField(hit.Fields, "text"),
			OffsetStart: int64(numericField(hit.Fields, "offset_start")),
			OffsetEnd:   int64(numericField(hit.Fields, "offset_end")),
			ChunkIndex:  int64(numericField(hit.Fields, "chunk_index")),
			Score:       hit.Score,
		})
	}
	return hits, nil
}

// ErrDocumentNotFound is returned by Lookup when no document matches.
var ErrDocumentNotFound = fmt.Errorf("document not found")

// Commit is a documented no-op: AddDocuments already promotes its batch to
// searchable segments atomically (bleve.Index.Batch has no separate commit
// phase), so callers that follow the add-then-commit shape from the index
// store's contract can call this safely after AddDocuments returns.
func (s *Store) Commit() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Lookup returns the unique document for (session, filePath, chunkIndex),
// used by chunk preview to re-locate a chunk's byte range. Returns
// ErrDocumentNotFound if no such document exists.
func (s *Store) Lookup(ctx context.Context, session, filePath string, chunkIndex int64) (Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Hit{}, fmt.Errorf("store is closed")
	}

	fpQuery := bleve.NewTermQuery(filePath)
	fpQuery.SetField("file_path")

	ci := float64(chunkIndex)
	inclusive := true
	ciQuery := bleve.NewNumericRangeInclusiveQuery(&ci, &ci, &inclusive, &inclusive)
	ciQuery.SetField("chunk_index")

	sessQuery := bleve.NewTermQuery(session)
	sessQuery.SetField("session")

	combined := bleve.NewConjunctionQuery(fpQuery, ciQuery, sessQuery)
	req := bleve.NewSearchRequestOptions(combined, 1, 0, false)
	req.Fields = []string{"text", "file_path", "offset_start", "offset_end", "chunk_index"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return Hit{}, fmt.Errorf("lookup: %w", err)
	}
	if len(result.Hits) == 0 {
		return Hit{}, ErrDocumentNotFound
	}

	hit := result.Hits[0]
	return Hit{
		FilePath:    stringField(hit.Fields, "file_path"),
		Text:        stringField(hit.Fields, "text"),
		OffsetStart: int64(numericField(hit.Fields, "offset_start")),
		OffsetEnd:   int64(numericField(hit.Fields, "offset_end")),
		ChunkIndex:  int64(numericField(hit.Fields, "chunk_index")),
		Score:       hit.Score,
	}, nil
}

// MaxEnumerationHits bounds how many documents AllForSession will ever
// fetch in one call. Sessions with more chunks than this are truncated;
// callers should log when the cap is hit rather than silently under-report.
const MaxEnumerationHits = 100_000

// AllForSession returns up to limit documents belonging to session, used to
// enumerate the unique files an index covers. limit is clamped to
// MaxEnumerationHits. Order is the index's natural match order, not a
// stable file ordering; callers that need a specific sort apply it
// themselves.
func (s *Store) AllForSession(ctx context.Context, session string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if limit <= 0 || limit > MaxEnumerationHits {
		limit = MaxEnumerationHits
	}

	sessQuery := bleve.NewTermQuery(session)
	sessQuery.SetField("session")

	req := bleve.NewSearchRequestOptions(sessQuery, limit, 0, false)
	req.Fields = []string{"text", "file_path", "offset_start", "offset_end", "chunk_index"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enumerate session documents: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{
			FilePath:    stringField(hit.Fields, "file_path"),
			Text:        stringField(hit.Fields, "text"),
			OffsetStart: int64(numericField(hit.Fields, "offset_start")),
			OffsetEnd:   int64(numericField(hit.Fields, "offset_end")),
			ChunkIndex:  int64(numericField(hit.Fields, "chunk_index")),
			Score:       hit.Score,
		})
	}
	return hits, nil
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func numericField(fields map[string]interface{}, name string) float64 {
	if v, ok := fields[name].(float64); ok {
		return v
	}
	return 0
}

// Stats reports the current document count and on-disk size of the index.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Stats{}
	}

	count, _ := s.index.DocCount()
	size := dirSize(s.path)
	return Stats{DocumentCount: int(count), IndexSizeBytes: size}
}

func dirSize(path string) uint64 {
	var total uint64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	return total
}

// Close releases the underlying Bleve index and the writer lock, if held.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close store: %v", errs)
	}
	return nil
}

// validateIndexIntegrity checks that index_meta.json exists and parses as
// JSON before Bleve attempts to open it, so a half-written index surfaces
// as a clear error instead of a cryptic Bleve panic.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveCodeTokenizer{}, nil
}

// bleveCodeTokenizer adapts ScanCodeTokens to Bleve's analysis.Tokenizer
// SPI. Unlike re-deriving term positions by re-searching the lowercased
// token text, it carries the exact byte offsets ScanCodeTokens computed
// during its single pass, so two equal identifiers (e.g. two occurrences
// of "id" in the same chunk) each get their own correct Start/End rather
// than both collapsing onto whichever occurrence a substring search finds
// first.
type bleveCodeTokenizer struct{}

func (t *bleveCodeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	tokens := ScanCodeTokens(string(input))

	result := make(analysis.TokenStream, 0, len(tokens))
	for i, tok := range tokens {
		result = append(result, &analysis.Token{
			Term:     []byte(strings.ToLower(tok.Text)),
			Start:    tok.Start,
			End:      tok.End,
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
	}
	return result
}

func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &bleveCodeStopFilter{stopWords: BuildStopWordMap(DefaultCodeStopWords)}, nil
}

// bleveCodeStopFilter drops stop-word tokens after bleveCodeTokenizer has
// already lowercased each term, so membership here is a direct map lookup
// rather than a second lowercasing pass.
type bleveCodeStopFilter struct {
	stopWords map[string]struct{}
}

func (f *bleveCodeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	kept := input[:0]
	for _, token := range input {
		if _, isStop := f.stopWords[string(token.Term)]; !isStop {
			kept = append(kept, token)
		}
	}
	return kept
}
