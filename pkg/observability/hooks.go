package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed simulations at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "fact routed",
				"flow_id", e.FlowID,
				"matched", e.Result.Matched,
				"label", e.Result.Label,
				"actions", len(e.Result.Actions),
			)
		},
		OnPreflight: func(ctx context.Context, e *domain.PreflightEvent) {
			logger.DebugContext(ctx, "flow preflighted",
				"flow_id", e.FlowID,
				"mode", e.Mode,
				"ready", e.Report.Ready,
				"issues", len(e.Report.Issues),
			)
		},
		OnSimulate: func(ctx context.Context, e *domain.SimulateEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "simulation failed",
					"flow_id", e.FlowID,
					"simulation_id", e.SimulationID,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "simulation finished",
				"flow_id", e.FlowID,
				"simulation_id", e.SimulationID,
				"duration", e.Duration,
			)
		},
	}
}

// Combine fans each event out to every non-nil callback, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var onRoute []func(context.Context, *domain.RouteEvent)
	var onPreflight []func(context.Context, *domain.PreflightEvent)
	var onSimulate []func(context.Context, *domain.SimulateEvent)
	for _, h := range hooks {
		if h.OnRoute != nil {
			onRoute = append(onRoute, h.OnRoute)
		}
		if h.OnPreflight != nil {
			onPreflight = append(onPreflight, h.OnPreflight)
		}
		if h.OnSimulate != nil {
			onSimulate = append(onSimulate, h.OnSimulate)
		}
	}

	if len(onRoute) > 0 {
		out.OnRoute = func(ctx context.Context, e *domain.RouteEvent) {
			for _, fn := range onRoute {
				fn(ctx, e)
			}
		}
	}
	if len(onPreflight) > 0 {
		out.OnPreflight = func(ctx context.Context, e *domain.PreflightEvent) {
			for _, fn := range onPreflight {
				fn(ctx, e)
			}
		}
	}
	if len(onSimulate) > 0 {
		out.OnSimulate = func(ctx context.Context, e *domain.SimulateEvent) {
			for _, fn := range onSimulate {
				fn(ctx, e)
			}
		}
	}
	return out
}
