package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeGraph_IndexWiresSharedAttributes(t *testing.T) {
	g := NewAttributeGraph(8)

	g.Index("S1", "13800000000", "ZHANGSAN", "ZHANGJIANGPARK1")
	g.Index("S2", "13800000000", "ZHANGSAN", "OTHERPLACE")

	assert.Equal(t, 2, g.SharedAttributeCount("S1", "S2"))
}

func TestAttributeGraph_NoSharedAttributes(t *testing.T) {
	g := NewAttributeGraph(8)

	g.Index("S1", "13800000000", "ZHANGSAN", "A")
	g.Index("S2", "13900000000", "LISI", "B")

	assert.Equal(t, 0, g.SharedAttributeCount("S1", "S2"))
}

func TestAttributeGraph_PrimaryVertexCorroboratesAgainstCandidate(t *testing.T) {
	g := NewAttributeGraph(8)

	g.Index("S1", "13800000000", "ZHANGSAN", "A")
	g.Index("P1", "13800000000", "ZHANGSAN", "B")

	assert.Equal(t, 2, g.SharedAttributeCount("P1", "S1"))
}

func TestAttributeGraph_UnknownVertexReturnsZero(t *testing.T) {
	g := NewAttributeGraph(1)
	assert.Equal(t, 0, g.SharedAttributeCount("missing-a", "missing-b"))
}

func TestAttributeGraph_EdgesEmitsEachPairOnce(t *testing.T) {
	g := NewAttributeGraph(8)

	g.Index("S1", "13800000000", "ZHANGSAN", "A")
	g.Index("S2", "13800000000", "ZHANGSAN", "B")

	edges := g.Edges()
	assert.Len(t, edges, 2) // phone + legal_representative, S1/S2 each once

	var kinds []AttributeKind
	for _, e := range edges {
		assert.True(t, (e.SecondaryA == "S1" && e.SecondaryB == "S2") || (e.SecondaryA == "S2" && e.SecondaryB == "S1"))
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []AttributeKind{AttributePhone, AttributeLegalRep}, kinds)
}

func TestAttributeGraph_EdgesEmptyArena(t *testing.T) {
	g := NewAttributeGraph(1)
	assert.Empty(t, g.Edges())
}

func TestGraphBoost_Formula(t *testing.T) {
	assert.InDelta(t, 0.5, GraphBoost(0), 1e-9)
	assert.InDelta(t, 0.7, GraphBoost(1), 1e-9)
	assert.InDelta(t, 0.9, GraphBoost(2), 1e-9)
	assert.InDelta(t, 1.0, GraphBoost(5), 1e-9) // capped
}
