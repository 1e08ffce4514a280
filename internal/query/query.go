// Package query implements the field-prefix validation and escape/quoting
// rules applied to a raw query string before it reaches the index store's
// parser. None of this changes BM25 scoring; it only shapes the query
// string so the store's grammar (field:term, boolean operators, quoted
// phrases, backslash-escapes) interprets the caller's intent instead of
// tripping over reserved characters.
package query

import (
	"fmt"
	"regexp"
	"strings"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
)

// ValidFields are the only field prefixes the underlying index grammar
// accepts. "content" is a synonym for the stored "text" field.
var ValidFields = map[string]bool{
	"content":   true,
	"file_path": true,
}

// knownSchemes are URL schemes that look like a field:term prefix but are
// not one; validateFields must not flag "http://..." as an unknown field.
var knownSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"mailto": true,
}

// fieldAliases maps a common misspelling/synonym to the canonical field
// name it should have used, surfaced as a suggestion on InvalidField.
var fieldAliases = map[string]string{
	"file":     "file_path",
	"filename": "file_path",
	"path":     "file_path",
	"filepath": "file_path",
	"name":     "file_path",
	"code":     "content",
	"text":     "content",
	"body":     "content",
	"source":   "content",
	"src":      "content",
}

// reservedChars is the set of characters the query grammar treats as
// reserved and that escape/quoting must guard against.
const reservedChars = `:{}[]()@"\+-!^~*`

// fieldPrefixPattern locates every field-prefix-shaped substring: a word
// immediately followed by a colon and a non-space character, occurring at
// the start of the string or after whitespace.
var fieldPrefixPattern = regexp.MustCompile(`(^|\s)(\w+):(\S)`)

// urlTemplatePattern matches a URL-template-like path: a leading slash
// followed by characters that could appear in such a path. Unanchored at
// the end (matched with MatchString, i.e. "starts with", not "is exactly"),
// since the original only requires the prefix to look like a path and
// trailing characters such as a query string don't disqualify it.
var urlTemplatePattern = regexp.MustCompile(`^/[A-Za-z0-9_/{}-]+`)

// multiColonPattern matches a multi-colon identifier such as
// "pkg:symbol:line", where an unquoted leading "word:" would otherwise be
// misread as a field prefix.
var multiColonPattern = regexp.MustCompile(`^\w+:\w+:\w+`)

// Preprocess transforms a raw query string into one ready for the index
// store's parser. In literalMode every reserved character is escaped and
// the whole string is treated as a literal (no quoting is applied, since
// the escapes alone make every character inert). Otherwise, quoted queries,
// URL-template-like paths, and multi-colon identifiers are additionally
// wrapped in double quotes so the parser cannot misread an embedded colon
// as a field prefix.
func Preprocess(raw string, literalMode bool) string {
	if literalMode {
		return escapeChars(raw, reservedChars)
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if isFullyQuoted(trimmed) {
		inner := trimmed[1 : len(trimmed)-1]
		return `"` + escapeChars(inner, "{}") + `"`
	}

	if urlTemplatePattern.MatchString(trimmed) {
		return `"` + escapeChars(trimmed, "{}") + `"`
	}

	if multiColonPattern.MatchString(trimmed) {
		return `"` + escapeChars(trimmed, "{}") + `"`
	}

	return escapeChars(trimmed, "{}")
}

// isFullyQuoted reports whether s is entirely wrapped in one pair of
// double quotes (length >= 2, starts and ends with ").
func isFullyQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// escapeChars prepends a backslash to every rune of s that appears in set.
func escapeChars(s, set string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(set, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ValidateFields scans query for field-qualified terms and rejects any
// field that is neither a recognized field name nor a known URL scheme.
// Quoted queries are not scanned: a fully double-quoted query is a literal
// phrase, not a field-qualified expression. The returned error, when
// non-nil, is an INVALID CoreError carrying the offending field and a
// suggestion when one of the known aliases applies.
func ValidateFields(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || isFullyQuoted(trimmed) {
		return nil
	}

	for _, m := range fieldPrefixPattern.FindAllStringSubmatch(trimmed, -1) {
		field := m[2]
		if ValidFields[field] || knownSchemes[strings.ToLower(field)] {
			continue
		}

		err := coreerrors.InvalidError(
			coreerrors.ErrCodeInvalidField,
			fmt.Sprintf("unknown query field %q; valid fields are content, file_path", field),
		).WithDetail("field", field)

		if suggestion, ok := fieldAliases[strings.ToLower(field)]; ok {
			err = err.WithSuggestion(fmt.Sprintf("did you mean %q?", suggestion))
		}
		return err
	}
	return nil
}
