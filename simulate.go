package ruleflow

import (
	"context"
	"fmt"

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/schema"
)

// Simulate preflights flow and routes fact through it.
// A nil fact falls back to the flow's sample fact. The fact must be flat and,
// when the flow declares a fact_schema, satisfy it. Preflight failures do not
// stop the simulation: the report travels with the result.
func (e *Engine) Simulate(ctx context.Context, flow *domain.Flow, fact domain.Fact) (*domain.Simulation, error) {
	start := e.now()
	sim := &domain.Simulation{ID: e.newID(), At: start.UTC()}

	err := e.simulate(ctx, sim, flow, fact)

	if e.hooks.OnSimulate != nil {
		e.hooks.OnSimulate(ctx, &domain.SimulateEvent{
			EventBase:    e.event(domain.EventSimulate, flow),
			SimulationID: sim.ID,
			Duration:     e.now().Sub(start),
			Err:          err,
		})
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("simulation finished",
		"flow_id", sim.FlowID,
		"simulation_id", sim.ID,
		"ready", sim.Preflight.Ready,
		"matched", sim.Route.Matched,
	)
	return sim, nil
}

func (e *Engine) simulate(ctx context.Context, sim *domain.Simulation, flow *domain.Flow, fact domain.Fact) error {
	if flow == nil {
		return fmt.Errorf("simulate: flow is nil")
	}
	sim.FlowID = flow.ID

	if fact == nil {
		fact = flow.SampleFact
	}
	fact = fact.Clone()
	if fact == nil {
		fact = domain.Fact{}
	}
	if err := fact.Validate(); err != nil {
		return err
	}
	if err := CheckFact(flow, fact); err != nil {
		return err
	}
	sim.Fact = fact

	sim.Preflight = e.Preflight(ctx, flow)
	sim.Route = e.Route(ctx, flow, fact)
	return nil
}

// SimulateStored loads the flow by ID and simulates it.
func (e *Engine) SimulateStored(ctx context.Context, flowID string, fact domain.Fact) (*domain.Simulation, error) {
	flow, err := e.LoadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return e.Simulate(ctx, flow, fact)
}

// CheckFact validates fact against the flow's fact_schema, if any.
// Mismatches wrap domain.ErrFactMismatch and a schema.AggregateError;
// an unsupported schema type wraps domain.ErrInvalidFactSchema.
func CheckFact(flow *domain.Flow, fact domain.Fact) error {
	if len(flow.FactSchema) == 0 {
		return nil
	}
	s, err := schema.ParseTypeMap(flow.FactSchema)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidFactSchema, err)
	}
	if err := schema.Validate(s, fact); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFactMismatch, err)
	}
	return nil
}
