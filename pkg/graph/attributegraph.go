package graph

import "github.com/Ramsey-B/meridian/pkg/models"

// AttributeGraph is the in-memory shared-attribute arena the L4 layer of
// the Layered Matcher consults (spec.md §4.4, Design Notes §9): vertices
// are unit indices (SECONDARY units seeded at task start, plus each PRIMARY
// unit the matcher indexes at match time), edges are keyed by the attribute kind two
// units share (phone, legal representative, normalized address). Built
// eagerly at task start over up to N_graph most-recent SECONDARY records;
// queried per-candidate during matching. It holds no ownership beyond its
// own arena and is safe to discard and rebuild between tasks.
type AttributeGraph struct {
	index map[string]int // unit id -> vertex index
	ids   []string       // vertex index -> unit id
	edges []map[int]map[AttributeKind]struct{}

	byPhone    map[string][]string
	byLegalRep map[string][]string
	byAddress  map[string][]string
}

// AttributeKind enumerates the shared-attribute dimensions L4 checks.
type AttributeKind string

const (
	AttributePhone       AttributeKind = "phone"
	AttributeLegalRep    AttributeKind = "legal_representative"
	AttributeAddress     AttributeKind = "address"
)

// NewAttributeGraph builds an empty arena with the given expected vertex
// capacity.
func NewAttributeGraph(capacity int) *AttributeGraph {
	return &AttributeGraph{
		index:      make(map[string]int, capacity),
		ids:        make([]string, 0, capacity),
		edges:      make([]map[int]map[AttributeKind]struct{}, 0, capacity),
		byPhone:    make(map[string][]string),
		byLegalRep: make(map[string][]string),
		byAddress:  make(map[string][]string),
	}
}

func (g *AttributeGraph) vertex(secondaryID string) int {
	if idx, ok := g.index[secondaryID]; ok {
		return idx
	}
	idx := len(g.ids)
	g.index[secondaryID] = idx
	g.ids = append(g.ids, secondaryID)
	g.edges = append(g.edges, make(map[int]map[AttributeKind]struct{}))
	return idx
}

// AddSharedAttribute records that secondaryA and secondaryB share the given
// attribute kind, wiring a bidirectional edge between their vertices.
func (g *AttributeGraph) AddSharedAttribute(secondaryA, secondaryB string, kind AttributeKind) {
	if secondaryA == "" || secondaryB == "" || secondaryA == secondaryB {
		return
	}
	a := g.vertex(secondaryA)
	b := g.vertex(secondaryB)
	g.linkOneWay(a, b, kind)
	g.linkOneWay(b, a, kind)
}

func (g *AttributeGraph) linkOneWay(from, to int, kind AttributeKind) {
	kinds, ok := g.edges[from][to]
	if !ok {
		kinds = make(map[AttributeKind]struct{})
		g.edges[from][to] = kinds
	}
	kinds[kind] = struct{}{}
}

// Index indexes one unit's shareable attributes (non-empty phone digits,
// legal-representative canonical name, normalized address detail) against
// every previously-indexed unit that shares one, wiring edges as a side
// effect. Call once per SECONDARY unit in source order to build the arena
// eagerly at task start (Design Notes §9); the Layered Matcher then calls
// it once more per PRIMARY unit at match time so L4 sees direct
// corroboration between the primary record and its candidates through the
// same shared-bucket mechanism — vertices are units from both sides.
func (g *AttributeGraph) Index(unitID, phoneDigits, legalRepCanon, addressDetail string) {
	g.vertex(unitID)
	g.indexAttribute(g.byPhone, phoneDigits, unitID, AttributePhone)
	g.indexAttribute(g.byLegalRep, legalRepCanon, unitID, AttributeLegalRep)
	g.indexAttribute(g.byAddress, addressDetail, unitID, AttributeAddress)
}

func (g *AttributeGraph) indexAttribute(bucket map[string][]string, value, unitID string, kind AttributeKind) {
	if value == "" {
		return
	}
	for _, other := range bucket[value] {
		g.AddSharedAttribute(unitID, other, kind)
	}
	bucket[value] = append(bucket[value], unitID)
}

// SharedAttributeCount returns how many distinct attribute kinds candidate
// shares with target, used by the L4 graph_boost formula
// (spec.md §4.4: graph_boost = min(1.0, 0.5 + 0.2*shared_attr_count)).
func (g *AttributeGraph) SharedAttributeCount(target, candidate string) int {
	from, ok := g.index[target]
	if !ok {
		return 0
	}
	to, ok := g.index[candidate]
	if !ok {
		return 0
	}
	return len(g.edges[from][to])
}

// GraphBoost computes spec.md §4.4's L4 boost for one candidate pair.
func GraphBoost(sharedAttrCount int) float64 {
	boost := 0.5 + 0.2*float64(sharedAttrCount)
	if boost > 1.0 {
		return 1.0
	}
	return boost
}

// Len reports the number of vertices currently in the arena.
func (g *AttributeGraph) Len() int {
	return len(g.ids)
}

// Edges returns every shared-attribute edge currently indexed, one
// SharedAttributePair per (unordered pair, kind): the shape the Memgraph
// mirror (Projector) persists for operator inspection.
func (g *AttributeGraph) Edges() []SharedAttributePair {
	var pairs []SharedAttributePair
	for from, neighbors := range g.edges {
		for to, kinds := range neighbors {
			if to < from {
				continue // each edge is recorded symmetrically; emit it once
			}
			for kind := range kinds {
				pairs = append(pairs, SharedAttributePair{
					SecondaryA: g.ids[from],
					SecondaryB: g.ids[to],
					Kind:       kind,
				})
			}
		}
	}
	return pairs
}

// Seed is one unit's shareable attributes, the shape the eager arena build
// (Design Notes §9) reads per SECONDARY record before any matching begins.
type Seed struct {
	ID            string
	PhoneDigits   string
	LegalRepCanon string
	AddressDetail string
}

// SeedBatch bundles one page of recently-updated SECONDARY records: the
// Seed form used to build the in-memory arena, and the full Unit rows used
// to mirror those same nodes into the Memgraph projection (Projector).
type SeedBatch struct {
	Seeds []Seed
	Units []models.Unit
}
