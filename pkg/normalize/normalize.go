// Package normalize implements the Text Normalizer (spec.md §4.1): a
// pipeline of small, idempotent, total string transforms, composed the way
// ivy/pkg/normalizers/normalizers.go composes its named normalizer
// registry, generalized here from ASCII field-cleanup to the
// width-folding / administrative-prefix / organizational-suffix pipeline
// this spec requires.
package normalize

import (
	"strings"
	"unicode"
)

// Config holds the ordered lookup tables the Normalizer applies. The
// pipeline functions read them from Config rather than hard-coding them;
// DefaultConfig supplies a built-in table, and config.Config has no fields
// for loading one from the environment.
type Config struct {
	// AdminPrefixes is matched greedily from the left, longest match wins.
	AdminPrefixes []string
	// OrgSuffixes is matched greedily from the right, longest match wins.
	OrgSuffixes []string
	// StopWords are excluded from AddressKeywords.
	StopWords map[string]struct{}
	// ProvinceTokens, CityTokens, DistrictTokens tag address tokens by kind.
	ProvinceTokens map[string]struct{}
	CityTokens     map[string]struct{}
	DistrictTokens map[string]struct{}
	// NameSliceLengths is the set of k used to produce name_slices (§4.1 step 7).
	NameSliceLengths []int
}

// DefaultConfig returns a minimal built-in table. Other administrative-region
// or organizational-suffix lists are used only when a caller passes its own
// Config to NewNormalizer; nothing in this module loads one.
func DefaultConfig() Config {
	return Config{
		AdminPrefixes: []string{
			"中华人民共和国", "中国", "省", "自治区", "直辖市",
		},
		OrgSuffixes: []string{
			"有限责任公司", "股份有限公司", "有限公司", "集团公司", "合伙企业",
			"个体工商户", "分公司", "办事处", "Co., Ltd.", "Co.,Ltd.", "Ltd.", "Inc.",
		},
		StopWords: setOf("的", "和", "与", "之", "号", "室", "栋", "座", "the", "and", "of"),
		ProvinceTokens: setOf("省", "自治区", "市"),
		CityTokens:     setOf("市", "地区", "州"),
		DistrictTokens: setOf("区", "县", "旗"),
		NameSliceLengths: []int{2, 3, 4},
	}
}

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Normalizer applies the Text Normalizer pipeline. It never fails: any
// input, however pathological, yields a (possibly empty) result.
type Normalizer struct {
	cfg Config
}

// NewNormalizer builds a Normalizer from cfg.
func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// NameCanonical folds full-width ASCII to half-width and uppercases, removes
// bracket annotations, and strips punctuation, symbols and all whitespace
// (§4.1 steps 2-4). No Unicode canonical-equivalence normalization is
// applied: composed and decomposed forms of one character stay distinct.
// It is idempotent:
// NameCanonical(NameCanonical(x)) == NameCanonical(x).
func (n *Normalizer) NameCanonical(name string) string {
	s := foldWidth(name)
	s = strings.ToUpper(s)
	s = stripBracketAnnotations(s)
	s = stripPunctuationCollapseWhitespace(s)
	return s
}

// NameCore removes the configured administrative prefix (left, longest
// match) and organizational suffix (right, longest match) from a canonical
// name (§4.1 steps 5-6).
func (n *Normalizer) NameCore(nameCanonical string) string {
	s := stripLongestPrefix(nameCanonical, n.cfg.AdminPrefixes)
	s = stripLongestSuffix(s, n.cfg.OrgSuffixes)
	return strings.TrimSpace(s)
}

// NameSlices produces the small ordered set of prefix slices used as
// blocking keys (§4.1 step 7): the first k runes of name_canonical for each
// configured k.
func (n *Normalizer) NameSlices(nameCanonical string) []string {
	runes := []rune(nameCanonical)
	slices := make([]string, 0, len(n.cfg.NameSliceLengths))
	seen := make(map[string]struct{}, len(n.cfg.NameSliceLengths))
	for _, k := range n.cfg.NameSliceLengths {
		if k <= 0 || k > len(runes) {
			continue
		}
		slice := string(runes[:k])
		if _, ok := seen[slice]; ok {
			continue
		}
		seen[slice] = struct{}{}
		slices = append(slices, slice)
	}
	return slices
}

// Tokenize performs language-appropriate segmentation (§4.1 step 7): CJK
// text is segmented per rune (each ideograph is its own token) while
// Latin-script runs are segmented on whitespace, matching the mixed
// Chinese/English unit names this domain sees in practice.
func Tokenize(s string) []string {
	var tokens []string
	var latin []rune
	flushLatin := func() {
		if len(latin) > 0 {
			tokens = append(tokens, string(latin))
			latin = latin[:0]
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flushLatin()
		case isHan(r):
			flushLatin()
			tokens = append(tokens, string(r))
		default:
			latin = append(latin, r)
		}
	}
	flushLatin()
	return tokens
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// AddressNormalize runs the shared first four steps and tags tokens by
// kind (§4.1 address pipeline). AddressKeywords is every token of length
// >= 2 runes that is not in the configured stop-word list.
func (n *Normalizer) AddressNormalize(address string) (canonical string, tokens []string, province, city, district, detail string, keywords []string) {
	canonical = n.NameCanonical(address)
	tokens = Tokenize(canonical)

	var detailParts []string
	for _, tok := range tokens {
		switch {
		case province == "" && hasSuffixAny(tok, n.cfg.ProvinceTokens):
			province = tok
		case city == "" && hasSuffixAny(tok, n.cfg.CityTokens):
			city = tok
		case district == "" && hasSuffixAny(tok, n.cfg.DistrictTokens):
			district = tok
		default:
			detailParts = append(detailParts, tok)
		}
	}
	detail = strings.Join(detailParts, "")

	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := n.cfg.StopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
	}
	return
}

func hasSuffixAny(token string, suffixes map[string]struct{}) bool {
	runes := []rune(token)
	for suffix := range suffixes {
		sr := []rune(suffix)
		if len(sr) == 0 || len(sr) > len(runes) {
			continue
		}
		if string(runes[len(runes)-len(sr):]) == suffix {
			return true
		}
	}
	return false
}

func stripLongestPrefix(s string, prefixes []string) string {
	longest := ""
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) && len(p) > len(longest) {
			longest = p
		}
	}
	return strings.TrimPrefix(s, longest)
}

func stripLongestSuffix(s string, suffixes []string) string {
	longest := ""
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) && len(suf) > len(longest) {
			longest = suf
		}
	}
	return strings.TrimSuffix(s, longest)
}

// foldWidth folds full-width digits/letters (U+FF01-U+FF5E, U+3000) to their
// ASCII equivalents (§4.1 step 2).
func foldWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '　':
			b.WriteRune(' ')
		case r >= '！' && r <= '～':
			b.WriteRune(r - 0xFEE0)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripBracketAnnotations removes parenthesized/bracketed annotations that
// are organizationally redundant, e.g. "(上海)" jurisdiction qualifiers
// (§4.1 step 3). Handles ASCII and CJK bracket pairs.
func stripBracketAnnotations(s string) string {
	pairs := map[rune]rune{'(': ')', '（': '）', '[': ']', '【': '】'}
	var b strings.Builder
	depth := 0
	var closing rune
	for _, r := range s {
		if depth == 0 {
			if close, ok := pairs[r]; ok {
				depth = 1
				closing = close
				continue
			}
			b.WriteRune(r)
			continue
		}
		if r == closing {
			depth--
		}
	}
	return b.String()
}

// stripPunctuationCollapseWhitespace removes punctuation and collapses
// whitespace runs to nothing (§4.1 step 4) — unit names compare on
// content, not on separator style.
func stripPunctuationCollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly strips every non-digit rune, used by phone normalization.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreditCode canonicalizes a unified social credit identifier: uppercase
// ASCII, punctuation/whitespace stripped (spec.md §3, GLOSSARY).
func CreditCode(code string) string {
	s := foldWidth(code)
	s = strings.ToUpper(s)
	return stripPunctuationCollapseWhitespace(s)
}

// Phone strips non-digits and a leading "86"/"+86" country code (§4.2).
func Phone(phone string) string {
	digits := DigitsOnly(phone)
	if strings.HasPrefix(digits, "86") && len(digits) > 11 {
		digits = strings.TrimPrefix(digits, "86")
	}
	return digits
}

// PersonName canonicalizes a person's name for the person-similarity kernel
// (§4.2): same fold/uppercase/strip pipeline as a unit name.
func (n *Normalizer) PersonName(name string) string {
	return n.NameCanonical(name)
}
