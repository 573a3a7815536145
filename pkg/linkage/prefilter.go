// Package linkage implements the Candidate Prefilter and Layered Matcher
// (spec.md §4.3, §4.4): the matching core that sits between the Text
// Normalizer/Similarity Kernels and the Result Store Adapter.
package linkage

import (
	"context"

	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/Ramsey-B/meridian/pkg/normalize"
)

// SecondarySource is the read-only index the Prefilter queries. Grounded
// on ivy/pkg/matching/service.go's generateCandidatesForRule strategy
// ladder (exact/phonetic conditions first via SQL AND, fuzzy anchor
// second), generalized to this domain's fixed five-step query order
// (spec.md §4.3) instead of a compiled rule set.
type SecondarySource interface {
	ByCreditCode(ctx context.Context, creditCode string) ([]string, error)
	ByNameCanonical(ctx context.Context, nameCanonical string) ([]string, error)
	ByNameSlices(ctx context.Context, slices []string, limit int) ([]string, error)
	SearchNameText(ctx context.Context, tokens []string, limit int) ([]string, error)
	ByAddressKeywords(ctx context.Context, keywords []string, limit int) ([]string, error)
}

// PrefilterConfig holds the Prefilter's tunable caps (spec.md §4.6's
// configuration table).
type PrefilterConfig struct {
	CandidateCapK       int // K, default 100
	TextSearchLimitT    int // T, default 50
	AddressKeywordLimit int // default 30
}

// DefaultPrefilterConfig returns spec.md's stated defaults.
func DefaultPrefilterConfig() PrefilterConfig {
	return PrefilterConfig{
		CandidateCapK:       100,
		TextSearchLimitT:    50,
		AddressKeywordLimit: 30,
	}
}

// Prefilter produces, for one PRIMARY unit, a candidate list of at most K
// SECONDARY ids highly likely to contain the true match. It is a pure,
// side-effect-free reader: on a store failure it returns an empty slice,
// never an error the caller must special-case beyond logging (spec.md
// §4.3's error-condition rule — "the Prefilter never raises").
type Prefilter struct {
	source SecondarySource
	cfg    PrefilterConfig
}

// NewPrefilter builds a Prefilter over source with cfg.
func NewPrefilter(source SecondarySource, cfg PrefilterConfig) *Prefilter {
	return &Prefilter{source: source, cfg: cfg}
}

// Candidates runs the five-step query ladder (spec.md §4.3) for one
// normalized PRIMARY unit, short-circuiting once CandidateCapK candidates
// have accumulated, and de-duplicating by SECONDARY id while preserving
// the ladder's precision order. The second return value reports whether
// any ladder step's query transiently failed (spec.md §4.3's error
// condition), distinguishing "the store errored" from "no step matched
// anything" so the Matcher can record the right negative reason.
func (p *Prefilter) Candidates(ctx context.Context, primary models.NormalizedUnit) ([]string, bool) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Prefilter.Candidates")
	defer span.End()

	seen := make(map[string]struct{})
	var ordered []string
	storeUnavailable := false

	add := func(ids []string) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ordered = append(ordered, id)
		}
	}

	full := func() bool { return len(ordered) >= p.cfg.CandidateCapK }

	run := func(fn func() ([]string, error)) {
		ids, err := p.query(ctx, fn)
		if err {
			storeUnavailable = true
		}
		add(ids)
	}

	if primary.CreditCodeCanon != "" && !full() {
		run(func() ([]string, error) {
			return p.source.ByCreditCode(ctx, primary.CreditCodeCanon)
		})
	}

	if primary.NameCanonical != "" && !full() {
		run(func() ([]string, error) {
			return p.source.ByNameCanonical(ctx, primary.NameCanonical)
		})
	}

	if len(primary.NameSlices) > 0 && !full() {
		run(func() ([]string, error) {
			return p.source.ByNameSlices(ctx, primary.NameSlices, p.cfg.CandidateCapK-len(ordered))
		})
	}

	nameTokens := normalize.Tokenize(primary.NameCanonical)
	if len(nameTokens) > 0 && !full() {
		run(func() ([]string, error) {
			return p.source.SearchNameText(ctx, nameTokens, p.cfg.TextSearchLimitT)
		})
	}

	if len(ordered) < p.cfg.CandidateCapK/2 && len(primary.AddressKeywords) > 0 && !full() {
		run(func() ([]string, error) {
			return p.source.ByAddressKeywords(ctx, primary.AddressKeywords, p.cfg.AddressKeywordLimit)
		})
	}

	if len(ordered) > p.cfg.CandidateCapK {
		ordered = ordered[:p.cfg.CandidateCapK]
	}
	return ordered, storeUnavailable
}

// query runs fn, swallowing any error into an empty result and reporting
// whether one occurred: the Prefilter's side-effect-free, never-raises
// contract (spec.md §4.3) still needs to tell the caller a step failed
// rather than legitimately matched nothing.
func (p *Prefilter) query(ctx context.Context, fn func() ([]string, error)) ([]string, bool) {
	ids, err := fn()
	if err != nil {
		return nil, true
	}
	return ids, false
}
