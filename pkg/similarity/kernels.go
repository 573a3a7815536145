// Package similarity implements the Similarity Kernels (spec.md §4.2): a
// small set of total functions over normalized values, each returning a
// score in [0.0, 1.0]. The edit-distance primitive is ported from
// ivy/pkg/matching/scoring.go's Scorer (its Levenshtein, reworked to count
// runes); the Scorer's JaroWinkler, Soundex and Metaphone are not carried
// over — Soundex/Metaphone are English-phonetic and have no role in this
// domain's Han-script names (see DESIGN.md). Token-set Jaccard and the
// weighted composite kernels are written here.
package similarity

import (
	"strings"

	"github.com/Ramsey-B/meridian/pkg/normalize"
)

// Round4 rounds a score to 4 decimal places, the precision every stored and
// compared similarity value uses (spec.md §4.2 tie-break rule).
func Round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

// Name returns the weighted-mean name similarity between two normalized
// units: normalized edit distance on name_canonical (0.5), token-set
// Jaccard (0.3), and common prefix/suffix length ratio on name_core (0.2).
func Name(aCanonical, bCanonical, aCore, bCore string) float64 {
	if aCanonical == "" || bCanonical == "" {
		return 0.0
	}
	edit := normalizedEditSimilarity(aCanonical, bCanonical)
	jaccard := tokenSetJaccard(normalize.Tokenize(aCanonical), normalize.Tokenize(bCanonical))
	affix := affixCommonRatio(aCore, bCore)
	return Round4(0.5*edit + 0.3*jaccard + 0.2*affix)
}

// NameCore returns the normalized edit similarity between two name_core
// values alone, independent of the weighted Name composite. This is the
// narrower metric the L3/L4 hard gates check (spec.md §4.4): a candidate
// can have a high composite Name score on the strength of address/phone
// agreement while its actual core business name is quite different, and
// the hard gate exists specifically to catch that case.
func NameCore(aCore, bCore string) float64 {
	if aCore == "" || bCore == "" {
		return 0.0
	}
	return Round4(normalizedEditSimilarity(aCore, bCore))
}

// Address returns the weighted-sum address similarity over four tagged
// components (province 0.2, city 0.3, district 0.3, detail 0.2), each
// scored as the token overlap ratio of its own tokenization.
func Address(aProvince, aCity, aDistrict, aDetail, bProvince, bCity, bDistrict, bDetail string) float64 {
	score := 0.2*componentOverlap(aProvince, bProvince) +
		0.3*componentOverlap(aCity, bCity) +
		0.3*componentOverlap(aDistrict, bDistrict) +
		0.2*componentOverlap(aDetail, bDetail)
	return Round4(score)
}

// Person returns the person-name similarity kernel: 1.0 on exact match
// after normalization, 0.5 when one is a proper prefix of the other and
// both are at least 2 runes long, else 0.0.
func Person(aCanonical, bCanonical string) float64 {
	if aCanonical == "" || bCanonical == "" {
		return 0.0
	}
	if aCanonical == bCanonical {
		return 1.0
	}
	ar, br := []rune(aCanonical), []rune(bCanonical)
	if len(ar) < 2 || len(br) < 2 {
		return 0.0
	}
	shorter, longer := aCanonical, bCanonical
	if len(ar) > len(br) {
		shorter, longer = bCanonical, aCanonical
	}
	if strings.HasPrefix(longer, shorter) && shorter != longer {
		return 0.5
	}
	return 0.0
}

// Phone returns 1.0 when two phone numbers are equal after stripping
// non-digits and a leading country code, 0.0 otherwise.
func Phone(a, b string) float64 {
	da, db := normalize.Phone(a), normalize.Phone(b)
	if da == "" || db == "" {
		return 0.0
	}
	if da == db {
		return 1.0
	}
	return 0.0
}

// normalizedEditSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)),
// operating on runes so multi-byte Han characters count as single edit
// units (ivy's Scorer.Levenshtein operates on bytes, which is wrong for
// CJK input; this is the one deliberate deviation from the teacher's
// algorithm, not its idiom).
func normalizedEditSimilarity(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	dist := levenshteinRunes(ar, br)
	maxLen := len(ar)
	if len(br) > maxLen {
		maxLen = len(br)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func levenshteinRunes(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)
	for j := range prevRow {
		prevRow[j] = j
	}
	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := row[j-1] + 1
			ins := prevRow[j] + 1
			sub := prevRow[j-1] + cost
			row[j] = min3(del, ins, sub)
		}
		row, prevRow = prevRow, row
	}
	return prevRow[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// tokenSetJaccard is |A ∩ B| / |A ∪ B| over two token slices treated as sets.
func tokenSetJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	setA := toSet(a)
	setB := toSet(b)
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// affixCommonRatio is the combined length of the longest common prefix and
// longest common suffix of a and b, divided by the length of the longer
// string (capped at 1.0 to avoid double-counting on short/overlapping
// strings).
func affixCommonRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}
	prefix := 0
	for prefix < len(ar) && prefix < len(br) && ar[prefix] == br[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(ar) && suffix < len(br) && ar[len(ar)-1-suffix] == br[len(br)-1-suffix] {
		suffix++
	}
	longer := len(ar)
	if len(br) > longer {
		longer = len(br)
	}
	ratio := float64(prefix+suffix) / float64(longer)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio
}

// componentOverlap is the token overlap ratio between two address
// components: |A ∩ B| / max(|A|, |B|), each component tokenized with the
// same CJK/Latin-aware Tokenize used for names. Two components that are
// both empty carry no information and score 0, not 1 — an absent province
// or district on both sides must not inflate Address's composite score.
func componentOverlap(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	ta, tb := normalize.Tokenize(a), normalize.Tokenize(b)
	setA, setB := toSet(ta), toSet(tb)
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	if denom == 0 {
		return 0.0
	}
	return float64(inter) / float64(denom)
}
