// Package search ranks catalog entries against free-form queries, including
// Japanese queries in either kana script, with a fuzzy fallback for near
// misses.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes compatibility forms (fullwidth ASCII, halfwidth kana,
// ligatures), strips combining diacritics, and recomposes.
var foldChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a string for matching: NFKD compatibility fold,
// lowercase, no combining marks, dash variants unified to "-", runs of
// whitespace and underscores collapsed to single spaces.
func Normalize(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case isDash(r):
			b.WriteByte('-')
		case r == '_' || unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeKana is Normalize plus a katakana-to-hiragana codepoint shift and
// removal of the prolonged-sound mark, so トウキョウ, とうきょう and トーキョー
// all match the same indexed text.
func NormalizeKana(s string) string {
	normalized := Normalize(s)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r >= 'ァ' && r <= 'ヶ': // katakana block shifted down onto hiragana
			b.WriteRune(r - 0x60)
		case r == 'ー': // prolonged-sound mark carries no matchable information
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDash(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '―', '−':
		return true
	default:
		return false
	}
}

// tokenize splits normalized text into match tokens. Slashes and dashes are
// token boundaries so "asia/tokyo" and "port-au-prince" index their parts.
func tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-'
	})
}
