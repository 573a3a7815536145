package linkage

import (
	"strconv"

	"github.com/Ramsey-B/meridian/pkg/models"
)

// DeriveConfidence maps a MatchType/score pair to spec.md §3's
// {high, medium, low, none} band. L1/L2 are always exact (score 1.0, so
// they fall into the high band under the same rule as every other layer);
// L3/L4 bands are fixed by spec.md's S3 worked example (fuzzy_prefiltered,
// score 0.82 -> medium), interpolated to a >=0.90 high / >=0.75 medium /
// below low split (0.75 being L3's own acceptance threshold theta1's
// default, so anything accepted by L4 below that line reads as low
// confidence, matching graph-assisted rescues being the weakest layer).
func DeriveConfidence(matchType models.MatchType, score float64) models.MatchConfidence {
	if matchType == models.MatchTypeNone {
		return models.MatchConfidenceNone
	}
	switch {
	case score >= 0.90:
		return models.MatchConfidenceHigh
	case score >= 0.75:
		return models.MatchConfidenceMedium
	default:
		return models.MatchConfidenceLow
	}
}

// formatScoreReason renders a positive/negative evidence line carrying its
// backing score (spec.md §4.4: "name_core similarity 0.93"), rounded to the
// same 4-decimal precision every stored score uses.
func formatScoreReason(label string, score float64) string {
	return label + " " + formatFloat(score)
}

// formatSharedAttrReason renders the L4 rescue rationale
// (spec.md §4.4/S5: "shared attributes -> graph_boost").
func formatSharedAttrReason(sharedAttrCount int, boost float64) string {
	return strconv.Itoa(sharedAttrCount) + " shared attribute(s), graph_boost " + formatFloat(boost)
}

// formatFloat renders a score to 4 decimal places without trailing zero
// stripping, matching the precision every stored similarity value uses
// (spec.md §4.2 tie-break rule).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
