package ruleflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/ruleflow/internal/logging"
	"github.com/aretw0/ruleflow/internal/runtime"
	"github.com/aretw0/ruleflow/pkg/adapters/memory"
	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/drafts"
	"github.com/aretw0/ruleflow/pkg/ports"
	"github.com/google/uuid"
)

// Evaluate reports whether cond holds for fact. It never panics.
func Evaluate(cond domain.Condition, fact domain.Fact) bool {
	return runtime.Evaluate(cond, fact)
}

// Route returns the actions of the first branch whose condition holds,
// or elseActions when none does.
func Route(branches []domain.Branch, elseActions []domain.Action, fact domain.Fact) domain.RouteResult {
	return runtime.Route(branches, elseActions, fact)
}

// Preflight runs every structural check against flow.
func Preflight(flow *domain.Flow) domain.Report {
	return runtime.Preflight(flow)
}

// Engine is the high-level entry point for the ruleflow library.
// It pairs the pure evaluator with flow storage, a read-only catalog and lifecycle hooks.
type Engine struct {
	store   ports.FlowStore
	catalog ports.FlowCatalog
	drafts  *drafts.Manager
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	locker  ports.DistributedLocker
	lockTTL time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where authored flows are persisted (default: in memory).
func WithStore(store ports.FlowStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithCatalog adds a read-only source of flows consulted after the store.
func WithCatalog(catalog ports.FlowCatalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithLocker serializes flow edits across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how simulation IDs are minted (default: random UUIDs).
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.now == nil {
		eng.now = time.Now
	}
	if eng.newID == nil {
		eng.newID = uuid.NewString
	}

	managerOpts := []drafts.Option{
		drafts.WithLogger(eng.logger),
		drafts.WithClock(eng.now),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, drafts.WithLocker(eng.locker), drafts.WithLockTTL(eng.lockTTL))
	}
	eng.drafts = drafts.NewManager(eng.store, managerOpts...)

	return eng
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Evaluate reports whether cond holds for fact.
func (e *Engine) Evaluate(cond domain.Condition, fact domain.Fact) bool {
	return runtime.Evaluate(cond, fact)
}

// Route routes fact through the flow's branches and fires OnRoute.
func (e *Engine) Route(ctx context.Context, flow *domain.Flow, fact domain.Fact) domain.RouteResult {
	result := runtime.RouteFlow(flow, fact)

	if e.hooks.OnRoute != nil {
		e.hooks.OnRoute(ctx, &domain.RouteEvent{
			EventBase: e.event(domain.EventRoute, flow),
			Result:    result,
		})
	}
	return result
}

// Preflight checks flow and fires OnPreflight.
func (e *Engine) Preflight(ctx context.Context, flow *domain.Flow) domain.Report {
	report := runtime.Preflight(flow)

	if e.hooks.OnPreflight != nil {
		mode := domain.ModeDraft
		if flow != nil {
			mode = flow.EffectiveMode()
		}
		e.hooks.OnPreflight(ctx, &domain.PreflightEvent{
			EventBase: e.event(domain.EventPreflight, flow),
			Mode:      mode,
			Report:    report,
		})
	}
	return report
}

func (e *Engine) event(t domain.EventType, flow *domain.Flow) domain.EventBase {
	base := domain.EventBase{Timestamp: e.now(), Type: t}
	if flow != nil {
		base.FlowID = flow.ID
	}
	return base
}
