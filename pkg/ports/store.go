package ports

import (
	"context"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// FlowStore defines the interface for persisting authored flows.
// It replaces ambient draft storage with an explicit, injectable port.
type FlowStore interface {
	// Save persists the flow under the given ID, replacing any previous version.
	Save(ctx context.Context, flowID string, flow *domain.Flow) error

	// Load retrieves the flow for a given ID.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, flowID string) (*domain.Flow, error)

	// Delete removes the flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, flowID string) error

	// List returns the IDs of all stored flows.
	List(ctx context.Context) ([]string, error)
}
