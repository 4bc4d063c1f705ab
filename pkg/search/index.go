package search

import (
	"sort"
	"strings"

	"github.com/timegrid-dev/timegrid/pkg/catalog"
)

// Scoring weights. The kana variant scores one point lower than the base
// variant at every tier so exact-script matches rank first among equals.
const (
	prefixBase, prefixKana   = 15, 14
	exactBase, exactKana     = 12, 11
	wordSubBase, wordSubKana = 10, 9
	bareSubBase, bareSubKana = 6, 5
	curatedBonus             = 3
	fuzzyThreshold           = 10
	fuzzyCloseBonus          = 6 // edit distance <= 1
	fuzzyNearBonus           = 3 // edit distance == 2
	fuzzyMinLen, fuzzyMaxLen = 3, 12
	maxResults               = 10
)

// Result is one ranked hit.
type Result struct {
	Record catalog.Record
	Score  int
}

type entry struct {
	rec        catalog.Record
	blob       string // leading-space-joined normalized fields
	kanaBlob   string
	tokens     map[string]bool
	kanaTokens map[string]bool
	fuzzyPool  []string // unioned tokens for the fallback pass
	display    string   // normalized display name, the final tie-break
}

// Index is the precomputed search structure over one catalog. Build it once
// after the catalog loads and again whenever the catalog changes.
type Index struct {
	entries []entry
}

// NewIndex precomputes normalized blobs and token sets for every record.
func NewIndex(cat *catalog.Catalog) *Index {
	ix := &Index{entries: make([]entry, 0, cat.Len())}
	for _, rec := range cat.Records() {
		parts := []string{rec.CityEN, rec.CityJA, rec.CountryEN, rec.CountryJA, rec.TzID}
		parts = append(parts, rec.Aliases...)

		joined := strings.Join(parts, " ")
		base := Normalize(joined)
		kana := NormalizeKana(joined)

		e := entry{
			rec:        rec,
			blob:       " " + base,
			kanaBlob:   " " + kana,
			tokens:     tokenSet(tokenize(base)),
			kanaTokens: tokenSet(tokenize(kana)),
			display:    Normalize(rec.DisplayName()),
		}
		pool := make(map[string]bool, len(e.tokens)+len(e.kanaTokens))
		for t := range e.tokens {
			pool[t] = true
		}
		for t := range e.kanaTokens {
			pool[t] = true
		}
		for t := range pool {
			if n := len([]rune(t)); n >= fuzzyMinLen && n <= fuzzyMaxLen {
				e.fuzzyPool = append(e.fuzzyPool, t)
			}
		}
		sort.Strings(e.fuzzyPool)
		ix.entries = append(ix.entries, e)
	}
	return ix
}

// Search ranks the catalog against query and returns at most ten results,
// ordered by score, then curated flag, then normalized display name.
func (ix *Index) Search(query string) []Result {
	baseTokens := tokenize(Normalize(query))
	if len(baseTokens) == 0 {
		return nil
	}
	kanaTokens := tokenize(NormalizeKana(query))

	type scored struct {
		e     *entry
		score int
	}
	hits := make([]scored, 0, len(ix.entries))
	for i := range ix.entries {
		if s := ix.entries[i].score(baseTokens, kanaTokens); s > 0 {
			hits = append(hits, scored{e: &ix.entries[i], score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.e.rec.Curated != b.e.rec.Curated {
			return a.e.rec.Curated
		}
		return a.e.display < b.e.display
	})

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{Record: h.e.rec, Score: h.score}
	}
	return results
}

func (e *entry) score(baseTokens, kanaTokens []string) int {
	s := variantScore(e.blob, e.tokens, baseTokens, prefixBase, exactBase, wordSubBase, bareSubBase)
	s += variantScore(e.kanaBlob, e.kanaTokens, kanaTokens, prefixKana, exactKana, wordSubKana, bareSubKana)
	if e.rec.Curated && s > 0 {
		s += curatedBonus
	}
	if s >= fuzzyThreshold {
		return s
	}
	return s + e.fuzzyScore(baseTokens)
}

// variantScore sums one normalization variant's contribution token by token.
// Prefix and exact-token matches stack; the substring tiers are alternatives
// to an exact match, not additions to it.
func variantScore(blob string, tokens map[string]bool, queryTokens []string, prefix, exact, wordSub, bareSub int) int {
	body := strings.TrimPrefix(blob, " ")
	s := 0
	for _, tok := range queryTokens {
		if strings.HasPrefix(body, tok) {
			s += prefix
		}
		switch {
		case tokens[tok]:
			s += exact
		case strings.Contains(blob, " "+tok):
			s += wordSub
		case strings.Contains(blob, tok):
			s += bareSub
		}
	}
	return s
}

// fuzzyScore is the low-score fallback: smallest edit distance from each
// query token to any indexed token of moderate length.
func (e *entry) fuzzyScore(queryTokens []string) int {
	s := 0
	for _, tok := range queryTokens {
		best := fuzzyMaxLen + 1
		for _, cand := range e.fuzzyPool {
			if d := editDistance(tok, cand); d < best {
				best = d
			}
			if best == 0 {
				break
			}
		}
		switch {
		case best <= 1:
			s += fuzzyCloseBonus
		case best == 2:
			s += fuzzyNearBonus
		}
	}
	return s
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// editDistance is the unit-cost Levenshtein distance over runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
