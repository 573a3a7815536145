package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchID_StableAndDistinctFromNone(t *testing.T) {
	withMatch := MatchID("P1", "S7")
	again := MatchID("P1", "S7")
	noMatch := MatchID("P1", "")
	assert.Equal(t, withMatch, again)
	assert.NotEqual(t, withMatch, noMatch)
}

func TestMatchID_DifferentPrimaryDifferentID(t *testing.T) {
	assert.NotEqual(t, MatchID("P1", "S7"), MatchID("P2", "S7"))
}

func TestAssociationID_VariesByStrategy(t *testing.T) {
	building := AssociationID("P1", "building_based")
	unit := AssociationID("P1", "unit_based")
	assert.NotEqual(t, building, unit)
}

func TestGenerate_OrderIndependent(t *testing.T) {
	a := Generate(map[string]any{"x": 1, "y": 2})
	b := Generate(map[string]any{"y": 2, "x": 1})
	assert.Equal(t, a, b)
}

func TestGenerateWithExclusions(t *testing.T) {
	full := Generate(map[string]any{"a": 1, "updated_time": "2026-01-01"})
	excluded := GenerateWithExclusions(map[string]any{"a": 1, "updated_time": "2099-12-31"}, map[string]bool{"updated_time": true})
	full2 := GenerateWithExclusions(map[string]any{"a": 1, "updated_time": "2026-01-01"}, map[string]bool{"updated_time": true})
	assert.Equal(t, excluded, full2)
	assert.NotEqual(t, full, excluded)
}

func TestHasChanged(t *testing.T) {
	assert.False(t, HasChanged("abc", "abc"))
	assert.True(t, HasChanged("abc", "def"))
}
