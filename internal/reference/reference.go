// Package reference implements the pattern-based symbol reference finder
// described in spec §4.7: given a symbol name, it ranks candidate
// occurrences across an indexed session by a fixed pattern taxonomy and a
// handful of contextual confidence adjustments. It is not an AST tool.
package reference

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/search"
	"github.com/shebe-dev/shebe/internal/session"
)

// SymbolType narrows which pattern clauses apply to a symbol.
type SymbolType string

const (
	SymbolFunction SymbolType = "function"
	SymbolTypeKind SymbolType = "type"
	SymbolVariable SymbolType = "variable"
	SymbolConstant SymbolType = "constant"
	SymbolAny      SymbolType = "any"
)

// Request is the input to Find.
type Request struct {
	Symbol            string
	Session           string
	SymbolType        SymbolType
	DefinedIn         string
	IncludeDefinition bool
	ContextLines      int
	MaxResults        int
}

// Reference is one ranked candidate occurrence.
type Reference struct {
	FilePath    string   `json:"file_path"`
	Line        int      `json:"line"`
	PatternName string   `json:"pattern_name"`
	Confidence  float64  `json:"confidence"`
	Context     []string `json:"context,omitempty"`
}

// Response is the bucketed, ranked result set.
type Response struct {
	References []Reference `json:"references"`
	High       int         `json:"high"`
	Medium     int         `json:"medium"`
	Low        int         `json:"low"`
}

// patternDef is one row of the taxonomy table in §4.7.
type patternDef struct {
	types []string // "function","type","variable","constant","any","all"
	regex string   // %s is replaced with the regex-escaped symbol
	name  string
	base  float64
}

var patternTable = []patternDef{
	{[]string{"function", "any"}, `%s\s*\(`, "function_call", 0.95},
	{[]string{"function", "any"}, `\.%s\s*\(`, "method_call", 0.92},
	{[]string{"type", "any"}, `:\s*%s`, "type_annotation", 0.85},
	{[]string{"type", "any"}, `->\s*%s`, "return_type", 0.85},
	{[]string{"type", "any"}, `<%s`, "generic_type", 0.85},
	{[]string{"type", "any"}, `%s\s*\{`, "type_instantiation", 0.85},
	{[]string{"variable", "constant", "any"}, `%s\s*=`, "assignment_target", 0.80},
	{[]string{"variable", "constant", "any"}, `=\s*%s`, "assignment_value", 0.80},
	{[]string{"variable", "constant", "any"}, `%s\.`, "property_access", 0.85},
	{[]string{"all"}, `import.*%s`, "import", 0.90},
	{[]string{"all"}, `use\s+.*%s`, "use_statement", 0.90},
	{[]string{"all"}, `from\s+.*import.*%s`, "python_import", 0.90},
}

var fallbackPattern = patternDef{nil, `\b%s\b`, "word_match", 0.60}

type compiledPattern struct {
	re   *regexp.Regexp
	name string
	base float64
}

// buildPatterns compiles the subset of patternTable applicable to t, in
// table order, with the word_match fallback always last.
func buildPatterns(symbol string, t SymbolType) []compiledPattern {
	escaped := regexp.QuoteMeta(symbol)
	var out []compiledPattern
	for _, p := range patternTable {
		if !applies(p.types, t) {
			continue
		}
		out = append(out, compiledPattern{
			re:   regexp.MustCompile(fmt.Sprintf(p.regex, escaped)),
			name: p.name,
			base: p.base,
		})
	}
	out = append(out, compiledPattern{
		re:   regexp.MustCompile(fmt.Sprintf(fallbackPattern.regex, escaped)),
		name: fallbackPattern.name,
		base: fallbackPattern.base,
	})
	return out
}

func applies(types []string, t SymbolType) bool {
	for _, c := range types {
		if c == "all" || SymbolType(c) == t {
			return true
		}
	}
	return false
}

// Find runs the search-then-classify pipeline of §4.7.
func Find(ctx context.Context, mgr *session.Manager, searchCfg search.Config, req Request) (*Response, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if len(symbol) < 2 {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, "symbol must be at least 2 characters")
	}
	maxResults := req.MaxResults
	if maxResults < 1 || maxResults > 500 {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, "max_results must be in [1, 500]")
	}
	contextLines := req.ContextLines
	if contextLines < 0 || contextLines > 10 {
		return nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidParam, "context_lines must be in [0, 10]")
	}

	overfetch := 2 * maxResults
	searchResp, err := search.Search(ctx, mgr, searchCfg, req.Session, symbol, &overfetch)
	if err != nil {
		return nil, err
	}
	if searchResp.Count == 0 {
		return &Response{}, nil
	}

	patterns := buildPatterns(symbol, req.SymbolType)
	fileCache := map[string][]byte{}

	type scored struct {
		ref Reference
		key string
	}
	var candidates []scored

	for _, hit := range searchResp.Results {
		if req.DefinedIn != "" && strings.HasSuffix(hit.FilePath, req.DefinedIn) && !req.IncludeDefinition {
			continue
		}

		content, ok := fileCache[hit.FilePath]
		if !ok {
			data, err := os.ReadFile(hit.FilePath)
			if err != nil {
				continue
			}
			fileCache[hit.FilePath] = data
			content = data
		}

		rel := strings.Index(hit.Text, symbol)
		if rel < 0 {
			continue
		}
		absOffset := hit.StartOffset + int64(rel)
		if absOffset < 0 || int(absOffset) > len(content) {
			continue
		}
		line := 1 + bytes.Count(content[:absOffset], []byte{'\n'})

		pattern := patterns[len(patterns)-1]
		for _, p := range patterns {
			if p.re.MatchString(hit.Text) {
				pattern = p
				break
			}
		}

		lines := splitLines(content)
		refLine := ""
		if line-1 < len(lines) {
			refLine = lines[line-1]
		}

		confidence := adjustConfidence(pattern.base, hit.FilePath, refLine)

		candidates = append(candidates, scored{
			ref: Reference{
				FilePath:    hit.FilePath,
				Line:        line,
				PatternName: pattern.name,
				Confidence:  confidence,
				Context:     extractContext(lines, line, contextLines),
			},
			key: fmt.Sprintf("%s:%d", hit.FilePath, line),
		})
	}

	// Deduplicate by (file_path, line), keeping the higher-confidence entry.
	best := map[string]scored{}
	for _, c := range candidates {
		if existing, ok := best[c.key]; !ok || c.ref.Confidence > existing.ref.Confidence {
			best[c.key] = c
		}
	}

	refs := make([]Reference, 0, len(best))
	for _, c := range best {
		refs = append(refs, c.ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Confidence > refs[j].Confidence })
	if len(refs) > maxResults {
		refs = refs[:maxResults]
	}

	resp := &Response{References: refs}
	for _, r := range refs {
		switch {
		case r.Confidence >= 0.80:
			resp.High++
		case r.Confidence >= 0.50:
			resp.Medium++
		default:
			resp.Low++
		}
	}
	return resp, nil
}

func adjustConfidence(base float64, filePath, refLine string) float64 {
	c := base
	lower := strings.ToLower(filePath)
	if strings.Contains(lower, "test") || strings.Contains(lower, "spec") {
		c += 0.05
	}

	trimmed := strings.TrimSpace(refLine)
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
		c -= 0.30
	}

	if strings.Count(refLine, `"`)+strings.Count(refLine, "'") >= 2 {
		c -= 0.20
	}

	if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".rst") {
		c -= 0.25
	}

	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}

func splitLines(content []byte) []string {
	return strings.Split(string(content), "\n")
}

// extractContext returns the line and +/- contextLines lines around it,
// clamped to the file's bounds. line is 1-based.
func extractContext(lines []string, line, contextLines int) []string {
	start := line - 1 - contextLines
	if start < 0 {
		start = 0
	}
	end := line - 1 + contextLines
	if end > len(lines)-1 {
		end = len(lines) - 1
	}
	if start > end || end < 0 {
		return nil
	}
	return append([]string{}, lines[start:end+1]...)
}
