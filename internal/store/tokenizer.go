package store

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CodeToken is one code-aware subtoken together with its exact byte range
// in the text it was scanned from. The Bleve tokenizer in store.go needs
// real offsets (not an approximate re-search of the token text) to report
// correct term positions.
type CodeToken struct {
	Text  string
	Start int
	End   int
}

// isIdentChar reports whether r can appear inside a bare code identifier:
// letters, digits, and underscore.
func isIdentChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// identifierRun is a maximal substring of isIdentChar runes, with its byte
// offsets in the scanned text.
type identifierRun struct {
	text  string
	start int
	end   int
}

// scanIdentifierRuns walks text once and returns every maximal run of
// identifier characters, in order, skipping punctuation and whitespace.
func scanIdentifierRuns(text string) []identifierRun {
	var runs []identifierRun
	runStart := -1

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isIdentChar(r) {
			if runStart == -1 {
				runStart = i
			}
		} else if runStart != -1 {
			runs = append(runs, identifierRun{text[runStart:i], runStart, i})
			runStart = -1
		}
		i += size
	}
	if runStart != -1 {
		runs = append(runs, identifierRun{text[runStart:], runStart, len(text)})
	}
	return runs
}

// ScanCodeTokens decomposes text into code-aware subtokens with their exact
// byte offsets: each identifier run is first split on underscores, then
// each underscore-delimited piece is split again at camelCase/PascalCase
// boundaries. Subtokens shorter than two runes are dropped, matching
// TokenizeCode's precision floor.
func ScanCodeTokens(text string) []CodeToken {
	var out []CodeToken
	for _, run := range scanIdentifierRuns(text) {
		for _, tok := range splitIdentifierRun(run) {
			if utf8.RuneCountInString(tok.Text) < 2 {
				continue
			}
			out = append(out, tok)
		}
	}
	return out
}

// splitIdentifierRun breaks one identifier run on underscore boundaries,
// recursing into splitCamelRun for each piece, and reports absolute byte
// offsets for every resulting subtoken.
func splitIdentifierRun(run identifierRun) []CodeToken {
	var out []CodeToken
	segStart := 0

	flush := func(end int) {
		if end > segStart {
			out = append(out, splitCamelRun(run.text[segStart:end], run.start+segStart)...)
		}
	}

	for i, r := range run.text {
		if r == '_' {
			flush(i)
			segStart = i + utf8.RuneLen(r)
		}
	}
	flush(len(run.text))
	return out
}

// splitCamelRun splits s at camelCase/PascalCase boundaries — an uppercase
// rune preceded by a lowercase rune, or followed by a lowercase rune (so an
// acronym run like "HTTP" breaks before the word it introduces, e.g.
// "parseHTTPRequest" -> "parse", "HTTP", "Request"). baseOffset is s's byte
// offset in the original scanned text; every returned token's Start/End is
// absolute.
func splitCamelRun(s string, baseOffset int) []CodeToken {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	byteOffset := make([]int, len(runes)+1)
	acc := 0
	for i, r := range runes {
		byteOffset[i] = acc
		acc += utf8.RuneLen(r)
	}
	byteOffset[len(runes)] = acc

	emit := func(out []CodeToken, from, to int) []CodeToken {
		return append(out, CodeToken{
			Text:  string(runes[from:to]),
			Start: baseOffset + byteOffset[from],
			End:   baseOffset + byteOffset[to],
		})
	}

	var out []CodeToken
	segStart := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		prevLower := unicode.IsLower(runes[i-1])
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if !prevLower && !nextLower {
			continue
		}
		if i > segStart {
			out = emit(out, segStart, i)
		}
		segStart = i
	}
	out = emit(out, segStart, len(runes))
	return out
}

// SplitCamelCase splits a camelCase/PascalCase identifier into its
// constituent words, preserving their original casing. An acronym run
// (e.g. "HTTP" in "parseHTTPRequest") stays intact as one word.
func SplitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}
	toks := splitCamelRun(s, 0)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

// SplitCodeToken splits a single identifier into words along both
// snake_case and camelCase boundaries. "get_UserById" yields
// ["get", "User", "By", "Id"].
func SplitCodeToken(token string) []string {
	if !strings.ContainsRune(token, '_') {
		return SplitCamelCase(token)
	}
	var out []string
	for _, part := range strings.FieldsFunc(token, func(r rune) bool { return r == '_' }) {
		out = append(out, SplitCamelCase(part)...)
	}
	return out
}

// TokenizeCode splits arbitrary text into lowercase, code-aware tokens:
// punctuation and whitespace separate identifiers, each identifier is
// further split on snake_case/camelCase boundaries, and tokens shorter
// than two characters are dropped.
func TokenizeCode(text string) []string {
	toks := ScanCodeTokens(text)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = strings.ToLower(t.Text)
	}
	return out
}

// FilterStopWords removes tokens present in stopWords, case-insensitively.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopWords[strings.ToLower(tok)]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

// BuildStopWordMap lowercases stopWords into a set for O(1) membership
// checks during filtering.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
