package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SharedAttributeService persists the durable projection of the in-memory
// AttributeGraph's edges: SHARES relationships between SecondaryUnit nodes,
// tagged with the attribute kind they share. Adapted from
// ivy/pkg/graph/relationship.go's generic multi-tenant RelationshipService,
// narrowed to this domain's one fixed edge type between one fixed node
// label (tenant isolation dropped: spec.md Non-goals excludes multi-tenant
// isolation from this component).
type SharedAttributeService struct {
	client *Client
	logger ectologger.Logger
}

// NewSharedAttributeService creates a new shared-attribute graph service.
func NewSharedAttributeService(client *Client, logger ectologger.Logger) *SharedAttributeService {
	return &SharedAttributeService{client: client, logger: logger}
}

// Link persists one shared-attribute edge between two SECONDARY units.
func (s *SharedAttributeService) Link(ctx context.Context, secondaryA, secondaryB string, kind AttributeKind) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SharedAttributeService.Link")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"secondary_a": secondaryA,
		"secondary_b": secondaryB,
		"kind":        kind,
	})

	cypher := `
		MATCH (a:SecondaryUnit {id: $a})
		MATCH (b:SecondaryUnit {id: $b})
		MERGE (a)-[r:SHARES {kind: $kind}]-(b)
		RETURN r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"a":    secondaryA,
			"b":    secondaryB,
			"kind": string(kind),
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		log.WithError(err).Error("failed to link shared-attribute edge in graph")
		return fmt.Errorf("failed to link shared-attribute edge: %w", err)
	}
	return nil
}

// BatchLink persists many shared-attribute edges in one transaction.
func (s *SharedAttributeService) BatchLink(ctx context.Context, pairs []SharedAttributePair) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SharedAttributeService.BatchLink")
	defer span.End()

	if len(pairs) == 0 {
		return nil
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{"batch_size": len(pairs)})

	batch := make([]map[string]any, len(pairs))
	for i, p := range pairs {
		batch[i] = map[string]any{"a": p.SecondaryA, "b": p.SecondaryB, "kind": string(p.Kind)}
	}

	cypher := `
		UNWIND $batch AS pair
		MATCH (a:SecondaryUnit {id: pair.a})
		MATCH (b:SecondaryUnit {id: pair.b})
		MERGE (a)-[r:SHARES {kind: pair.kind}]-(b)
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, map[string]any{"batch": batch})
	})

	if err != nil {
		log.WithError(err).Error("failed to batch link shared-attribute edges in graph")
		return fmt.Errorf("failed to batch link shared-attribute edges: %w", err)
	}
	return nil
}

// SharedAttributePair is one edge to persist via BatchLink.
type SharedAttributePair struct {
	SecondaryA string
	SecondaryB string
	Kind       AttributeKind
}

// Neighbors returns the ids of SECONDARY units sharing any attribute with id.
func (s *SharedAttributeService) Neighbors(ctx context.Context, id string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.SharedAttributeService.Neighbors")
	defer span.End()

	cypher := `
		MATCH (u:SecondaryUnit {id: $id})-[:SHARES]-(neighbor:SecondaryUnit)
		RETURN DISTINCT neighbor.id AS id
	`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var ids []string
		for result.Next(ctx) {
			if v, ok := result.Record().Get("id"); ok {
				ids = append(ids, fmt.Sprintf("%v", v))
			}
		}
		return ids, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list shared-attribute neighbors: %w", err)
	}
	return result.([]string), nil
}
