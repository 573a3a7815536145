package linkage

import (
	"context"
	"sort"
	"sync"

	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/graph"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/Ramsey-B/meridian/pkg/normalize"
	"github.com/Ramsey-B/meridian/pkg/similarity"
)

// SecondaryUnitFetcher hydrates a SECONDARY unit and its normalized form by
// id, the by-id counterpart to SecondarySource's id-list lookups.
type SecondaryUnitFetcher interface {
	Get(ctx context.Context, secondaryID string) (models.Unit, models.NormalizedUnit, bool, error)
}

// MatcherConfig holds the Layered Matcher's thresholds (spec.md §4.4,
// read once per task and applied uniformly within it per the spec's
// coherent-decision-surface rule).
type MatcherConfig struct {
	Theta1             float64 // L3 acceptance threshold, default 0.75
	Theta2             float64 // L4 acceptance threshold, default 0.70
	NameCoreHardGate   float64 // L3 hard gate, default 0.70
	L4NameCoreHardGate float64 // L4 hard gate, default 0.60
}

// DefaultMatcherConfig returns spec.md's stated defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Theta1:             0.75,
		Theta2:             0.70,
		NameCoreHardGate:   0.70,
		L4NameCoreHardGate: 0.60,
	}
}

// Matcher implements the L1->L2->L3->L4 decision pipeline (spec.md §4.4),
// grounded on ivy/pkg/matching/engine.go's FindMatches/evaluateRule
// ordered-pipeline idiom, generalized from a compiled-rule evaluator to
// this spec's fixed four-layer state machine.
type Matcher struct {
	source     SecondarySource
	fetch      SecondaryUnitFetcher
	prefilter  *Prefilter
	graph      *graph.AttributeGraph
	normalizer *normalize.Normalizer
	cfg        MatcherConfig

	// graphMu serializes access to graph: the Batch Task Engine's worker
	// pool (spec.md §4.6) calls Match concurrently from multiple goroutines
	// sharing one Matcher, but AttributeGraph's arena is plain maps/slices
	// with no internal locking (spec.md §5 read-path reuse, not a
	// concurrent-write contract).
	graphMu sync.Mutex
}

// NewMatcher builds a Matcher. graphArena may be nil, in which case L4 is
// skipped entirely (every record falls through to `none` once L3 fails).
func NewMatcher(source SecondarySource, fetch SecondaryUnitFetcher, prefilter *Prefilter, graphArena *graph.AttributeGraph, normalizer *normalize.Normalizer, cfg MatcherConfig) *Matcher {
	return &Matcher{source: source, fetch: fetch, prefilter: prefilter, graph: graphArena, normalizer: normalizer, cfg: cfg}
}

// SeedGraph indexes one SECONDARY unit's shareable attributes into the L4
// arena ahead of matching (spec.md Design Notes §9's eager build). A no-op
// if this Matcher has no graph. Safe to call concurrently with Match and
// with itself.
func (m *Matcher) SeedGraph(seed graph.Seed) {
	if m.graph == nil {
		return
	}
	m.graphMu.Lock()
	defer m.graphMu.Unlock()
	m.graph.Index(seed.ID, seed.PhoneDigits, seed.LegalRepCanon, seed.AddressDetail)
}

// GraphEdges returns a snapshot of every shared-attribute edge currently
// indexed in the L4 arena, for mirroring into the Memgraph projection
// (graph.Projector) that backs operator inspection. Returns nil if this
// Matcher has no graph.
func (m *Matcher) GraphEdges() []graph.SharedAttributePair {
	if m.graph == nil {
		return nil
	}
	m.graphMu.Lock()
	defer m.graphMu.Unlock()
	return m.graph.Edges()
}

// Outcome is the result of one Match call: everything a LinkageResult needs
// except the fields the caller already owns (primary_id, primary snapshot,
// timestamps, review state).
type Outcome struct {
	MatchedID       string
	MatchType       models.MatchType
	SimilarityScore float64
	Explanation     models.MatchExplanation
}

// Match runs the full L1->L4 pipeline for one PRIMARY unit.
func (m *Matcher) Match(ctx context.Context, primary models.Unit) Outcome {
	ctx, span := tracing.StartSpan(ctx, "linkage.Matcher.Match")
	defer span.End()

	normPrimary := m.normalizeUnit(primary)

	if normPrimary.NameCanonical == "" && normPrimary.CreditCodeCanon == "" {
		return Outcome{
			MatchType: models.MatchTypeNone,
			Explanation: models.MatchExplanation{
				Negative:    []string{"primary record has no identifying fields"},
				FieldScores: map[string]float64{},
			},
		}
	}

	if out, ok := m.tryL1(ctx, normPrimary); ok {
		return out
	}
	if out, ok := m.tryL2(ctx, primary, normPrimary); ok {
		return out
	}

	candidateIDs, storeUnavailable := m.prefilter.Candidates(ctx, normPrimary)
	if out, ok := m.tryL3(ctx, primary, normPrimary, candidateIDs); ok {
		return out
	}
	if out, ok := m.tryL4(ctx, primary, normPrimary, candidateIDs); ok {
		return out
	}

	negative := "no candidate met acceptance threshold"
	if storeUnavailable {
		negative = "candidate store unavailable"
	}
	return Outcome{
		MatchType: models.MatchTypeNone,
		Explanation: models.MatchExplanation{
			Negative:    []string{negative},
			FieldScores: map[string]float64{},
		},
	}
}

func (m *Matcher) normalizeUnit(u models.Unit) models.NormalizedUnit {
	canonical := m.normalizer.NameCanonical(u.Name)
	core := m.normalizer.NameCore(canonical)
	_, addrTokens, province, city, district, detail, keywords := m.normalizer.AddressNormalize(u.Address)
	return models.NormalizedUnit{
		NameCanonical:   canonical,
		NameCore:        core,
		NameSlices:      m.normalizer.NameSlices(canonical),
		AddressTokens:   addrTokens,
		AddressKeywords: keywords,
		AddressProvince: province,
		AddressCity:     city,
		AddressDistrict: district,
		AddressDetail:   detail,
		CreditCodeCanon: normalize.CreditCode(u.CreditCode),
		PhoneDigits:     normalize.Phone(u.ContactPhone),
		LegalRepCanon:   m.normalizer.PersonName(u.LegalRepresentative),
	}
}

// tryL1 is the deterministic credit-code layer (spec.md §4.4 L1).
func (m *Matcher) tryL1(ctx context.Context, normPrimary models.NormalizedUnit) (Outcome, bool) {
	if normPrimary.CreditCodeCanon == "" {
		return Outcome{}, false
	}
	ids, err := m.source.ByCreditCode(ctx, normPrimary.CreditCodeCanon)
	if err != nil || len(ids) == 0 {
		return Outcome{}, false
	}
	matchedID := smallest(ids)
	return Outcome{
		MatchedID:       matchedID,
		MatchType:       models.MatchTypeExactCreditCode,
		SimilarityScore: 1.0,
		Explanation: models.MatchExplanation{
			Positive:    []string{"credit codes equal"},
			FieldScores: map[string]float64{"credit_code": 1.0},
		},
	}, true
}

// tryL2 is the deterministic canonical-name layer (spec.md §4.4 L2).
func (m *Matcher) tryL2(ctx context.Context, primary models.Unit, normPrimary models.NormalizedUnit) (Outcome, bool) {
	if normPrimary.NameCanonical == "" {
		return Outcome{}, false
	}
	ids, err := m.source.ByNameCanonical(ctx, normPrimary.NameCanonical)
	if err != nil || len(ids) == 0 {
		return Outcome{}, false
	}
	if len(ids) == 1 {
		return Outcome{
			MatchedID:       ids[0],
			MatchType:       models.MatchTypeExactNameCanonical,
			SimilarityScore: 1.0,
			Explanation: models.MatchExplanation{
				Positive:    []string{"name_canonical equal"},
				FieldScores: map[string]float64{"name": 1.0},
			},
		}, true
	}

	best := ""
	bestAddr := -1.0
	for _, id := range ids {
		_, normSecondary, found, err := m.fetch.Get(ctx, id)
		if err != nil || !found {
			continue
		}
		addr := similarity.Address(normPrimary.AddressProvince, normPrimary.AddressCity, normPrimary.AddressDistrict, normPrimary.AddressDetail,
			normSecondary.AddressProvince, normSecondary.AddressCity, normSecondary.AddressDistrict, normSecondary.AddressDetail)
		if addr > bestAddr || (addr == bestAddr && (best == "" || id < best)) {
			bestAddr = addr
			best = id
		}
	}
	if best == "" {
		best = smallest(ids)
	}
	return Outcome{
		MatchedID:       best,
		MatchType:       models.MatchTypeExactNameCanonical,
		SimilarityScore: 1.0,
		Explanation: models.MatchExplanation{
			Positive:    []string{"name_canonical equal"},
			FieldScores: map[string]float64{"name": 1.0, "address": bestAddr},
		},
	}, true
}

// candidateComposite holds one candidate's L3 composite score and the
// field scores behind it, reused by L4.
type candidateComposite struct {
	id          string
	composite   float64
	nameCoreSim float64
	fieldScores map[string]float64
	positive    []string
	negative    []string
}

func (m *Matcher) scoreCandidate(ctx context.Context, primary models.Unit, normPrimary models.NormalizedUnit, candidateID string) (candidateComposite, bool) {
	secondary, normSecondary, found, err := m.fetch.Get(ctx, candidateID)
	if err != nil || !found {
		return candidateComposite{}, false
	}

	nameSim := similarity.Name(normPrimary.NameCanonical, normSecondary.NameCanonical, normPrimary.NameCore, normSecondary.NameCore)
	addrSim := similarity.Address(normPrimary.AddressProvince, normPrimary.AddressCity, normPrimary.AddressDistrict, normPrimary.AddressDetail,
		normSecondary.AddressProvince, normSecondary.AddressCity, normSecondary.AddressDistrict, normSecondary.AddressDetail)
	legalRepSim := similarity.Person(normPrimary.LegalRepCanon, normSecondary.LegalRepCanon)
	phoneSim := similarity.Phone(primary.ContactPhone, secondary.ContactPhone)
	nameCoreSim := similarity.NameCore(normPrimary.NameCore, normSecondary.NameCore)

	composite := similarity.Round4(0.55*nameSim + 0.25*addrSim + 0.10*legalRepSim + 0.10*phoneSim)

	var positive, negative []string
	if nameCoreSim >= m.cfg.NameCoreHardGate {
		positive = append(positive, formatScoreReason("name_core similarity", nameCoreSim))
	} else {
		negative = append(negative, formatScoreReason("name_core below hard gate "+formatFloat(m.cfg.NameCoreHardGate), nameCoreSim))
	}
	if addrSim >= 0.99 {
		positive = append(positive, "address district exact")
	}
	if legalRepSim >= 0.99 {
		positive = append(positive, "legal representative match")
	} else if legalRepSim == 0 {
		negative = append(negative, "legal representative differs")
	}
	if phoneSim >= 0.99 {
		positive = append(positive, "phone match")
	} else {
		negative = append(negative, "phone mismatch")
	}

	return candidateComposite{
		id:          candidateID,
		composite:   composite,
		nameCoreSim: nameCoreSim,
		fieldScores: map[string]float64{
			"name":          nameSim,
			"address":       addrSim,
			"legal_rep":     legalRepSim,
			"phone":         phoneSim,
			"name_core":     nameCoreSim,
		},
		positive: positive,
		negative: negative,
	}, true
}

// tryL3 is the prefiltered-fuzzy layer (spec.md §4.4 L3).
func (m *Matcher) tryL3(ctx context.Context, primary models.Unit, normPrimary models.NormalizedUnit, candidateIDs []string) (Outcome, bool) {
	var best *candidateComposite
	for _, id := range candidateIDs {
		c, ok := m.scoreCandidate(ctx, primary, normPrimary, id)
		if !ok {
			continue
		}
		if c.nameCoreSim < m.cfg.NameCoreHardGate {
			continue // hard gate rejects outright
		}
		if best == nil || c.composite > best.composite || (c.composite == best.composite && c.id < best.id) {
			cc := c
			best = &cc
		}
	}
	if best == nil || best.composite < m.cfg.Theta1 {
		return Outcome{}, false
	}
	return Outcome{
		MatchedID:       best.id,
		MatchType:       models.MatchTypeFuzzyPrefiltered,
		SimilarityScore: best.composite,
		Explanation: models.MatchExplanation{
			Positive:    best.positive,
			Negative:    best.negative,
			FieldScores: best.fieldScores,
		},
	}, true
}

// tryL4 is the graph-assisted rescue layer (spec.md §4.4 L4).
func (m *Matcher) tryL4(ctx context.Context, primary models.Unit, normPrimary models.NormalizedUnit, candidateIDs []string) (Outcome, bool) {
	if m.graph == nil || len(candidateIDs) == 0 {
		return Outcome{}, false
	}

	m.graphMu.Lock()
	defer m.graphMu.Unlock()

	m.graph.Index(primary.ID, normPrimary.PhoneDigits, normPrimary.LegalRepCanon, normPrimary.AddressDetail)

	var best *candidateComposite
	var bestCombined float64
	var bestBoost float64
	var bestShared int
	for _, id := range candidateIDs {
		c, ok := m.scoreCandidate(ctx, primary, normPrimary, id)
		if !ok {
			continue
		}
		if c.nameCoreSim < m.cfg.L4NameCoreHardGate {
			continue // L4 must not promote a candidate this dissimilar on name_core
		}
		shared := m.graph.SharedAttributeCount(primary.ID, id)
		boost := graph.GraphBoost(shared)
		combined := c.composite
		if boost > combined {
			combined = boost
		}
		if best == nil || combined > bestCombined || (combined == bestCombined && id < best.id) {
			cc := c
			best = &cc
			bestCombined = combined
			bestBoost = boost
			bestShared = shared
		}
	}

	if best == nil || bestCombined < m.cfg.Theta2 {
		return Outcome{}, false
	}

	positive := append([]string{}, best.positive...)
	if bestShared > 0 {
		positive = append(positive, formatSharedAttrReason(bestShared, bestBoost))
	}
	fieldScores := best.fieldScores
	fieldScores["graph_boost"] = bestBoost

	return Outcome{
		MatchedID:       best.id,
		MatchType:       models.MatchTypeGraphAssisted,
		SimilarityScore: similarity.Round4(bestCombined),
		Explanation: models.MatchExplanation{
			Positive:    positive,
			Negative:    best.negative,
			FieldScores: fieldScores,
		},
	}, true
}

func smallest(ids []string) string {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	return sorted[0]
}
