/*
Package ruleflow evaluates branching marketing-automation flows.

A flow is an authored list of nodes (a trigger, condition filters and action
steps) plus an ordered group of branches. Each branch is guarded by a single
field/operator/value condition. Routing a fact (a flat map describing one
event, such as an order) walks the branches in order and returns the actions of
the first branch whose condition holds, or the flow's else actions when none
does. Actions are data: they are never executed here.

Before a flow is simulated or promoted to production, Preflight reports
structural problems: missing trigger, incomplete conditions, branches without
actions, duplicate labels, shadowed branches and so on. The report is advisory
and never modifies the flow.

# Usage

The pure functions need no setup:

	cond := domain.Condition{Field: "cart_value", Operator: domain.OpGreater, Value: "100"}
	ok := ruleflow.Evaluate(cond, domain.Fact{"cart_value": 180}) // true

	result := ruleflow.Route(flow.Branches, flow.ElseActions, fact)
	report := ruleflow.Preflight(flow)

The Engine adds persistence, observability hooks and simulations:

	eng := ruleflow.New(
		ruleflow.WithStore(redisStore),
		ruleflow.WithLifecycleHooks(metrics.Hooks()),
	)
	sim, err := eng.SimulateStored(ctx, "vip-routing", fact)

# Evaluation semantics

Equality compares string renderings of both sides: a missing field renders as
"undefined", null as "null", numbers in their shortest form. "contains" is a
case-insensitive substring test. Numeric operators parse both sides as finite
numbers and are false whenever either side is not a number. "is empty" holds
for missing, null and "". Unknown operators never match.
*/
package ruleflow
