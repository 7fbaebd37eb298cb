// Package headers maps spreadsheet column labels to canonical field names.
package headers

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rpattn/munimport/internal/domain"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	quoteReplacer = strings.NewReplacer(
		"\u05f4", `"`, // gershayim
		"\u201c", `"`,
		"\u201d", `"`,
		"\u201e", `"`,
		"''", `"`,
		"\u05f3", "'", // geresh
		"\u2018", "'",
		"\u2019", "'",
		"\u200f", "", // directional marks
		"\u200e", "",
		"\u00a0", " ",
	)

	vocabulary = buildVocabulary()
	suggester  = closestmatch.New(suggestionLabels(), []int{2, 3})
)

// Clean canonicalises a label without consulting the vocabulary: NFKC, no combining
// marks (Hebrew points), unified quotes, collapsed whitespace, lowercase.
func Clean(label string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)
	cleaned, _, err := transform.String(t, label)
	if err != nil {
		cleaned = label
	}
	cleaned = quoteReplacer.Replace(cleaned)
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, ":*")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// Normalize returns the canonical field name for label, or its cleaned form when the
// label is not part of the vocabulary.
func Normalize(label string) string {
	cleaned := Clean(label)
	if canonical, ok := vocabulary[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// Known reports whether label resolves through the vocabulary.
func Known(label string) bool {
	_, ok := vocabulary[Clean(label)]
	return ok
}

// NormalizeRecord rewrites every key of rec. When two labels land on the same
// canonical name the first non-empty value keeps it and the other stays under its
// cleaned label.
func NormalizeRecord(keys []string, rec domain.RawRecord) domain.NormalizedRecord {
	out := make(domain.NormalizedRecord, len(rec))
	place := func(key string, value any) {
		canonical := Normalize(key)
		if existing, taken := out[canonical]; taken && !isEmpty(existing) {
			out[Clean(key)] = value
			return
		}
		out[canonical] = value
	}

	seen := make(map[string]struct{}, len(rec))
	for _, key := range keys {
		value, ok := rec[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		place(key, value)
	}
	// Cells beyond the header row width.
	for key, value := range rec {
		if _, done := seen[key]; done {
			continue
		}
		place(key, value)
	}
	return out
}

// NormalizeHeaders maps a header row to canonical names, dropping blanks.
func NormalizeHeaders(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if n := Normalize(label); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Suggest returns the closest known label for an unrecognised one.
func Suggest(label string) (string, bool) {
	cleaned := Clean(label)
	if cleaned == "" {
		return "", false
	}
	if _, ok := vocabulary[cleaned]; ok {
		return "", false
	}
	match := suggester.Closest(cleaned)
	if match == "" {
		return "", false
	}
	return match, true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func buildVocabulary() map[string]string {
	table := make(map[string]string, len(labels)*2)
	for label, canonical := range labels {
		table[Clean(label)] = canonical
		table[canonical] = canonical
	}
	return table
}

func suggestionLabels() []string {
	out := make([]string, 0, len(labels))
	for label := range labels {
		out = append(out, Clean(label))
	}
	sort.Strings(out)
	return out
}
