package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRoute     EventType = "route"
	EventPreflight EventType = "preflight"
	EventSimulate  EventType = "simulate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
}

// RouteEvent is emitted after a fact has been routed.
type RouteEvent struct {
	EventBase
	Result RouteResult `json:"result"`
}

// PreflightEvent is emitted after a flow has been preflighted.
type PreflightEvent struct {
	EventBase
	Mode   Mode   `json:"mode"`
	Report Report `json:"report"`
}

// SimulateEvent is emitted after a full simulation run.
type SimulateEvent struct {
	EventBase
	SimulationID string        `json:"simulation_id"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRoute     func(context.Context, *RouteEvent)
	OnPreflight func(context.Context, *PreflightEvent)
	OnSimulate  func(context.Context, *SimulateEvent)
}
