package graph

import (
	"context"

	"github.com/Ramsey-B/meridian/pkg/models"
)

// Projector mirrors a batch of recently-updated SECONDARY units and their
// shared-attribute edges into Memgraph, the durable operator-inspection
// projection of the in-memory AttributeGraph (Design Notes §9). It is the
// real backing store the Bolt-backed UnitService/SharedAttributeService
// pair serves: the Batch Task Engine calls Project once per task, right
// after seeding the arena, so every edge an operator later wants to audit
// via QueryService.FindSharedAttributePath has already been written
// through.
type Projector struct {
	units *UnitService
	edges *SharedAttributeService
}

// NewProjector builds a Projector over an already-constructed Client's
// UnitService and SharedAttributeService.
func NewProjector(units *UnitService, edges *SharedAttributeService) *Projector {
	return &Projector{units: units, edges: edges}
}

// Project upserts secondaryUnits as SecondaryUnit nodes and links edges as
// SHARES relationships, in that order so BatchLink's MATCH clauses always
// find their endpoints.
func (p *Projector) Project(ctx context.Context, secondaryUnits []models.Unit, edges []SharedAttributePair) error {
	if err := p.units.BatchUpsert(ctx, "secondary", secondaryUnits); err != nil {
		return err
	}
	return p.edges.BatchLink(ctx, edges)
}
