package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Flow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Flow),
	}
}

// Save persists a deep copy of the flow in memory.
func (s *Store) Save(ctx context.Context, flowID string, flow *domain.Flow) error {
	if flowID == "" {
		return domain.ErrInvalidFlowID
	}
	copied := flow.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flowID] = copied
	return nil
}

// Load retrieves a copy of the flow so callers cannot mutate stored state by pointer.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.data[flowID]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return flow.Clone(), nil
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, flowID)
	return nil
}

// List returns the stored flow IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
