package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// Catalog implements ports.FlowCatalog over a fixed set of flows.
// It is immutable after construction.
type Catalog struct {
	flows map[string]*domain.Flow
}

// NewCatalog creates a catalog from domain objects. Every flow needs an ID.
func NewCatalog(flows ...*domain.Flow) (*Catalog, error) {
	data := make(map[string]*domain.Flow, len(flows))
	for _, f := range flows {
		if f == nil || f.ID == "" {
			return nil, fmt.Errorf("flow missing ID: %w", domain.ErrInvalidFlowID)
		}
		if _, dup := data[f.ID]; dup {
			return nil, fmt.Errorf("duplicate flow ID %q", f.ID)
		}
		data[f.ID] = f.Clone()
	}
	return &Catalog{flows: data}, nil
}

// GetFlow returns a copy of the flow with the given ID.
func (c *Catalog) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	f, ok := c.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	return f.Clone(), nil
}

// ListFlows returns all flow IDs in deterministic order.
func (c *Catalog) ListFlows(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(c.flows))
	for id := range c.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
