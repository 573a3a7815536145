package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// UnitService persists PRIMARY/SECONDARY units as graph nodes, the durable
// projection of the in-memory AttributeGraph an operator can inspect with
// Cypher directly against Memgraph. Adapted from ivy/pkg/graph/entity.go's
// MergedEntity persistence, generalized from a multi-tenant entity store
// (tenant_id-scoped, arbitrary entity_type label) to this domain's two
// fixed unit sources.
type UnitService struct {
	client *Client
	logger ectologger.Logger
}

// NewUnitService creates a new unit graph service.
func NewUnitService(client *Client, logger ectologger.Logger) *UnitService {
	return &UnitService{client: client, logger: logger}
}

// label returns the node label for a unit source ("PrimaryUnit" or
// "SecondaryUnit").
func label(source string) string {
	if source == "secondary" {
		return "SecondaryUnit"
	}
	return "PrimaryUnit"
}

// Upsert creates or updates a unit node keyed by (source, id).
func (s *UnitService) Upsert(ctx context.Context, source string, unit models.Unit) error {
	ctx, span := tracing.StartSpan(ctx, "graph.UnitService.Upsert")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"unit_id": unit.ID,
		"source":  source,
	})

	cypher := fmt.Sprintf(`
		MERGE (u:%s {id: $id})
		SET u.name = $name,
		    u.credit_code = $credit_code,
		    u.address = $address,
		    u.legal_representative = $legal_representative,
		    u.contact_phone = $contact_phone,
		    u.building_id = $building_id
		RETURN u
	`, label(source))

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":                    unit.ID,
			"name":                  unit.Name,
			"credit_code":           unit.CreditCode,
			"address":               unit.Address,
			"legal_representative":  unit.LegalRepresentative,
			"contact_phone":         unit.ContactPhone,
			"building_id":           unit.BuildingID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		log.WithError(err).Error("failed to upsert unit node in graph")
		return fmt.Errorf("failed to upsert unit node in graph: %w", err)
	}
	return nil
}

// BatchUpsert persists many units in one transaction, the teacher's
// UNWIND batching idiom (ivy/pkg/graph/entity.go's BatchCreateOrUpdate).
func (s *UnitService) BatchUpsert(ctx context.Context, source string, units []models.Unit) error {
	ctx, span := tracing.StartSpan(ctx, "graph.UnitService.BatchUpsert")
	defer span.End()

	if len(units) == 0 {
		return nil
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(units),
		"source":     source,
	})

	batch := make([]map[string]any, len(units))
	for i, u := range units {
		batch[i] = map[string]any{
			"id":                   u.ID,
			"name":                 u.Name,
			"credit_code":          u.CreditCode,
			"address":              u.Address,
			"legal_representative": u.LegalRepresentative,
			"contact_phone":        u.ContactPhone,
			"building_id":          u.BuildingID,
		}
	}

	cypher := fmt.Sprintf(`
		UNWIND $batch AS props
		MERGE (u:%s {id: props.id})
		SET u = props
	`, label(source))

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, map[string]any{"batch": batch})
	})

	if err != nil {
		log.WithError(err).Error("failed to batch upsert unit nodes in graph")
		return fmt.Errorf("failed to batch upsert unit nodes: %w", err)
	}
	return nil
}

// Get retrieves a unit node's properties by (source, id).
func (s *UnitService) Get(ctx context.Context, source, id string) (map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.UnitService.Get")
	defer span.End()

	cypher := fmt.Sprintf(`MATCH (u:%s {id: $id}) RETURN u`, label(source))

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if result.Next(ctx) {
			record := result.Record()
			node, ok := record.Get("u")
			if !ok {
				return nil, nil
			}
			n := node.(neo4j.Node)
			return n.Props, nil
		}
		return nil, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get unit from graph: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(map[string]any), nil
}
