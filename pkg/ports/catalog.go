package ports

import (
	"context"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// FlowCatalog is a read-only source of flow definitions (e.g. a directory of
// Markdown/YAML/JSON documents reviewed through version control).
type FlowCatalog interface {
	// GetFlow returns the flow with the given ID, or domain.ErrFlowNotFound.
	GetFlow(ctx context.Context, id string) (*domain.Flow, error)

	// ListFlows returns the IDs of every flow in the catalog, sorted.
	ListFlows(ctx context.Context) ([]string, error)
}
