package drafts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ruleflow/internal/logging"
	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates flow access, ensuring safe concurrent edits.
// Lock entries are reference counted and dropped once unused.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the clock used to stamp updated_at.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new draft Manager over the given store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release(flowID) after unlocking.
func (m *Manager) acquire(flowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[flowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(flowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, flowID)
	}
}

// Load retrieves an existing flow from the store.
func (m *Manager) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, flowID)
		return err
	})
	return flow, err
}

// LoadOrNew loads a flow, creating and persisting an empty draft when it does not exist.
func (m *Manager) LoadOrNew(ctx context.Context, flowID string) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, flowID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrFlowNotFound) {
			return fmt.Errorf("failed to check flow existence: %w", err)
		}

		flow = &domain.Flow{
			ID:       flowID,
			Mode:     domain.ModeDraft,
			Nodes:    []domain.Node{},
			Branches: []domain.Branch{},
		}
		return m.save(ctx, flowID, flow)
	})
	return flow, err
}

// Save stamps updated_at and persists the flow.
func (m *Manager) Save(ctx context.Context, flowID string, flow *domain.Flow) error {
	if flow == nil {
		return fmt.Errorf("flow %q is nil", flowID)
	}
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		return m.save(ctx, flowID, flow)
	})
}

// Update loads the flow, applies fn and saves the result atomically with
// respect to other Manager calls for the same ID. When fn returns an error
// nothing is saved.
func (m *Manager) Update(ctx context.Context, flowID string, fn func(*domain.Flow) error) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		loaded, err := m.store.Load(ctx, flowID)
		if err != nil {
			return err
		}
		if err := fn(loaded); err != nil {
			return err
		}
		if err := m.save(ctx, flowID, loaded); err != nil {
			return err
		}
		flow = loaded
		return nil
	})
	return flow, err
}

// Delete removes the flow from the store.
func (m *Manager) Delete(ctx context.Context, flowID string) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		return m.store.Delete(ctx, flowID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

func (m *Manager) save(ctx context.Context, flowID string, flow *domain.Flow) error {
	if flow.ID == "" {
		flow.ID = flowID
	}
	flow.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, flowID, flow); err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flowID, err)
	}
	m.logger.Debug("flow saved", "flow_id", flowID)
	return nil
}

// WithLock executes fn while holding the lock for the flow.
func (m *Manager) WithLock(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := m.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
