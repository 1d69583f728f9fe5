package ruleflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/pkg/adapters/memory"
	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/schema"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cartFlow(id string) *domain.Flow {
	return &domain.Flow{
		ID:   id,
		Name: "Cart recovery",
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.NodeTrigger, Event: "cart_abandoned"},
			{ID: "notify", Kind: domain.NodeAction, Channel: "email"},
		},
		Branches: []domain.Branch{
			{
				Label:     "VIP",
				Condition: domain.Condition{Field: "segment", Operator: domain.OpEquals, Value: "VIP"},
				Actions:   []domain.Action{{Type: "email", Title: "VIP coupon"}},
			},
			{
				Label:     "Big cart",
				Condition: domain.Condition{Field: "cart_value", Operator: domain.OpGreater, Value: "100"},
				Actions:   []domain.Action{{Type: "sms", Title: "Free shipping"}},
			},
		},
		ElseActions: []domain.Action{{Type: "email", Title: "Reminder"}},
		SampleFact:  domain.Fact{"segment": "new", "cart_value": 180},
	}
}

func newEngine(opts ...ruleflow.Option) *ruleflow.Engine {
	base := []ruleflow.Option{
		ruleflow.WithClock(func() time.Time { return fixedNow }),
		ruleflow.WithIDGenerator(func() string { return "sim-1" }),
	}
	return ruleflow.New(append(base, opts...)...)
}

func TestPackageFunctions(t *testing.T) {
	flow := cartFlow("cart")

	assert.True(t, ruleflow.Evaluate(flow.Branches[0].Condition, domain.Fact{"segment": "VIP"}))
	assert.False(t, ruleflow.Evaluate(flow.Branches[1].Condition, domain.Fact{"cart_value": "n/a"}))

	res := ruleflow.Route(flow.Branches, flow.ElseActions, domain.Fact{"cart_value": 250})
	assert.True(t, res.Matched)
	assert.Equal(t, "Big cart", res.Label)
	assert.Equal(t, 1, res.Index)

	report := ruleflow.Preflight(flow)
	assert.True(t, report.Ready)
	assert.Empty(t, report.Issues)
}

func TestEngine_Simulate(t *testing.T) {
	ctx := context.Background()

	t.Run("uses sample fact when none given", func(t *testing.T) {
		eng := newEngine()
		sim, err := eng.Simulate(ctx, cartFlow("cart"), nil)
		require.NoError(t, err)

		assert.Equal(t, "sim-1", sim.ID)
		assert.Equal(t, "cart", sim.FlowID)
		assert.Equal(t, fixedNow, sim.At)
		assert.Equal(t, domain.Fact{"segment": "new", "cart_value": 180}, sim.Fact)
		assert.True(t, sim.Preflight.Ready)
		assert.True(t, sim.Route.Matched)
		assert.Equal(t, "Big cart", sim.Route.Label)
	})

	t.Run("does not alias the caller's fact", func(t *testing.T) {
		eng := newEngine()
		fact := domain.Fact{"segment": "VIP"}
		sim, err := eng.Simulate(ctx, cartFlow("cart"), fact)
		require.NoError(t, err)

		sim.Fact["segment"] = "changed"
		assert.Equal(t, "VIP", fact["segment"])
	})

	t.Run("runs even when preflight fails", func(t *testing.T) {
		eng := newEngine()
		flow := cartFlow("cart")
		flow.Mode = domain.ModeProduction

		sim, err := eng.Simulate(ctx, flow, domain.Fact{"segment": "VIP"})
		require.NoError(t, err)
		assert.False(t, sim.Preflight.Ready)
		assert.Contains(t, sim.Preflight.Issues, "Production mode requires a confirmation note.")
		assert.Equal(t, "VIP", sim.Route.Label)
	})

	t.Run("falls through to else actions", func(t *testing.T) {
		eng := newEngine()
		sim, err := eng.Simulate(ctx, cartFlow("cart"), domain.Fact{})
		require.NoError(t, err)
		assert.False(t, sim.Route.Matched)
		assert.Equal(t, -1, sim.Route.Index)
		assert.Equal(t, "Reminder", sim.Route.Actions[0].Title)
	})

	t.Run("rejects nested facts", func(t *testing.T) {
		eng := newEngine()
		_, err := eng.Simulate(ctx, cartFlow("cart"), domain.Fact{"customer": map[string]any{"tier": "gold"}})
		assert.ErrorIs(t, err, domain.ErrFactNotFlat)
	})

	t.Run("rejects facts that break the schema", func(t *testing.T) {
		eng := newEngine()
		flow := cartFlow("cart")
		flow.FactSchema = map[string]string{"cart_value": "number", "segment": "string", "coupon": "?string"}

		_, err := eng.Simulate(ctx, flow, domain.Fact{"cart_value": "lots"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrFactMismatch)
		assert.Len(t, schema.ValidationErrors(err), 2)

		_, err = eng.Simulate(ctx, flow, domain.Fact{"cart_value": 12.5, "segment": "new"})
		assert.NoError(t, err)
	})

	t.Run("nil flow", func(t *testing.T) {
		eng := newEngine()
		_, err := eng.Simulate(ctx, nil, nil)
		assert.Error(t, err)
	})
}

func TestEngine_Hooks(t *testing.T) {
	ctx := context.Background()

	var routes []*domain.RouteEvent
	var preflights []*domain.PreflightEvent
	var simulations []*domain.SimulateEvent
	hooks := domain.LifecycleHooks{
		OnRoute:     func(_ context.Context, e *domain.RouteEvent) { routes = append(routes, e) },
		OnPreflight: func(_ context.Context, e *domain.PreflightEvent) { preflights = append(preflights, e) },
		OnSimulate:  func(_ context.Context, e *domain.SimulateEvent) { simulations = append(simulations, e) },
	}
	eng := newEngine(ruleflow.WithLifecycleHooks(hooks))

	_, err := eng.Simulate(ctx, cartFlow("cart"), domain.Fact{"segment": "VIP"})
	require.NoError(t, err)

	require.Len(t, routes, 1)
	assert.Equal(t, domain.EventRoute, routes[0].Type)
	assert.Equal(t, "cart", routes[0].FlowID)
	assert.Equal(t, "VIP", routes[0].Result.Label)

	require.Len(t, preflights, 1)
	assert.Equal(t, domain.ModeDraft, preflights[0].Mode)
	assert.True(t, preflights[0].Report.Ready)

	require.Len(t, simulations, 1)
	assert.Equal(t, "sim-1", simulations[0].SimulationID)
	assert.Equal(t, fixedNow, simulations[0].Timestamp)
	assert.NoError(t, simulations[0].Err)

	// Failed simulations still report, without routing.
	_, err = eng.Simulate(ctx, cartFlow("cart"), domain.Fact{"tags": []any{"a"}})
	require.Error(t, err)
	require.Len(t, simulations, 2)
	assert.ErrorIs(t, simulations[1].Err, domain.ErrFactNotFlat)
	assert.Len(t, routes, 1)
}

func TestEngine_FlowStorage(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	err := eng.SaveFlow(ctx, &domain.Flow{})
	assert.ErrorIs(t, err, domain.ErrInvalidFlowID)
	assert.ErrorIs(t, eng.SaveFlow(ctx, nil), domain.ErrInvalidFlowID)

	require.NoError(t, eng.SaveFlow(ctx, cartFlow("cart")))

	loaded, err := eng.LoadFlow(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "Cart recovery", loaded.Name)
	assert.Equal(t, fixedNow, loaded.UpdatedAt)

	updated, err := eng.UpdateFlow(ctx, "cart", func(f *domain.Flow) error {
		f.Mode = domain.ModeProduction
		f.Note = "Reviewed with the CRM team."
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeProduction, updated.Mode)

	sim, err := eng.SimulateStored(ctx, "cart", nil)
	require.NoError(t, err)
	assert.True(t, sim.Preflight.Ready)

	require.NoError(t, eng.DeleteFlow(ctx, "cart"))
	_, err = eng.LoadFlow(ctx, "cart")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	_, err = eng.LoadFlow(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidFlowID)
	assert.ErrorIs(t, eng.DeleteFlow(ctx, ""), domain.ErrInvalidFlowID)
}

func TestEngine_CatalogFallback(t *testing.T) {
	ctx := context.Background()

	catalog, err := memory.NewCatalog(cartFlow("shared"), cartFlow("welcome"))
	require.NoError(t, err)

	store := memory.NewStore()
	eng := newEngine(ruleflow.WithStore(store), ruleflow.WithCatalog(catalog))

	// A stored draft shadows the catalog entry with the same ID.
	draft := cartFlow("welcome")
	draft.Name = "Local draft"
	require.NoError(t, eng.SaveFlow(ctx, draft))
	require.NoError(t, eng.SaveFlow(ctx, cartFlow("adhoc")))

	ids, err := eng.ListFlows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"adhoc", "shared", "welcome"}, ids)

	shared, err := eng.LoadFlow(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "Cart recovery", shared.Name)

	welcome, err := eng.LoadFlow(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Local draft", welcome.Name)

	_, err = eng.LoadFlow(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()

	t.Run("yaml round trip", func(t *testing.T) {
		eng := newEngine()
		doc := []byte(`
id: winback
name: Win back
nodes:
  - kind: trigger
    event: inactive_30d
branches:
  - label: Loyal
    condition:
      field: orders
      operator: gte
      value: 5
    actions:
      - type: email
        title: We miss you
else_actions:
  - type: push
sample_fact:
  orders: 7
`)
		flow, err := eng.ImportFlow(ctx, doc, "")
		require.NoError(t, err)
		assert.Equal(t, "winback", flow.ID)
		assert.Equal(t, domain.OpGreaterEq, flow.Branches[0].Condition.Operator)
		assert.Equal(t, "5", flow.Branches[0].Condition.Value)

		sim, err := eng.SimulateStored(ctx, "winback", nil)
		require.NoError(t, err)
		assert.Equal(t, "Loyal", sim.Route.Label)

		out, err := eng.ExportFlow(ctx, "winback", ruleflow.FormatYAML)
		require.NoError(t, err)
		again, err := ruleflow.DecodeFlow(out, ruleflow.FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, flow.Branches, again.Branches)
	})

	t.Run("json with numeric values", func(t *testing.T) {
		eng := newEngine()
		doc := []byte(`{"id":"vip","nodes":[{"kind":"trigger","event":"signup"}],
			"branches":[{"label":"Big","condition":{"field":"cart_value","operator":">","value":100},
			"actions":[{"type":"sms"}]}]}`)
		flow, err := eng.ImportFlow(ctx, doc, "")
		require.NoError(t, err)
		assert.Equal(t, "100", flow.Branches[0].Condition.Value)

		out, err := eng.ExportFlow(ctx, "vip", ruleflow.FormatJSON)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "{"))
		assert.Contains(t, string(out), `"cart_value"`)
	})

	t.Run("rejects nested sample facts", func(t *testing.T) {
		_, err := ruleflow.DecodeFlow([]byte(`{"id":"x","sample_fact":{"a":{"b":1}}}`), ruleflow.FormatJSON)
		assert.ErrorIs(t, err, domain.ErrFactNotFlat)
	})

	t.Run("missing id", func(t *testing.T) {
		eng := newEngine()
		_, err := eng.ImportFlow(ctx, []byte("name: nameless\n"), ruleflow.FormatYAML)
		assert.ErrorIs(t, err, domain.ErrInvalidFlowID)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := ruleflow.DecodeFlow([]byte("{}"), "toml")
		assert.Error(t, err)
		_, err = ruleflow.EncodeFlow(cartFlow("x"), "toml")
		assert.Error(t, err)
	})

	t.Run("export missing", func(t *testing.T) {
		eng := newEngine()
		_, err := eng.ExportFlow(ctx, "nope", ruleflow.FormatJSON)
		assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
	})
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, ruleflow.FormatYAML, ruleflow.FormatFromPath("flows/a.yaml"))
	assert.Equal(t, ruleflow.FormatYAML, ruleflow.FormatFromPath("b.YML"))
	assert.Equal(t, ruleflow.FormatJSON, ruleflow.FormatFromPath("c.json"))
	assert.Equal(t, ruleflow.FormatJSON, ruleflow.FormatFromPath("noext"))
}

func TestDecodeFlow_FormatsRouteAlike(t *testing.T) {
	jsonDoc := `{
		"id": "price",
		"nodes": [{"kind": "condition", "field": "x", "operator": ">=", "value": 1e3}],
		"branches": [
			{"label": "exact", "condition": {"field": "x", "operator": "equals", "value": 1.50}, "actions": [{"type": "email"}]},
			{"label": "big", "condition": {"field": "x", "operator": ">", "value": 1e3}, "actions": [{"type": "sms"}]}
		],
		"else_actions": [{"type": "push"}]
	}`
	yamlDoc := `
id: price
nodes:
  - {kind: condition, field: x, operator: ">=", value: 1e3}
branches:
  - label: exact
    condition: {field: x, operator: equals, value: 1.50}
    actions: [{type: email}]
  - label: big
    condition: {field: x, operator: ">", value: 1e3}
    actions: [{type: sms}]
else_actions: [{type: push}]
`
	fromJSON, err := ruleflow.DecodeFlow([]byte(jsonDoc), ruleflow.FormatJSON)
	require.NoError(t, err)
	fromYAML, err := ruleflow.DecodeFlow([]byte(yamlDoc), ruleflow.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON.Branches, fromYAML.Branches)
	assert.Equal(t, fromJSON.Nodes, fromYAML.Nodes)
	assert.Equal(t, "1.5", fromYAML.Branches[0].Condition.Value)
	assert.Equal(t, "1000", fromYAML.Nodes[0].Value)

	for _, fact := range []domain.Fact{{"x": 1.5}, {"x": 2000}, {"x": "nope"}} {
		viaJSON := ruleflow.Route(fromJSON.Branches, fromJSON.ElseActions, fact)
		viaYAML := ruleflow.Route(fromYAML.Branches, fromYAML.ElseActions, fact)
		assert.Equal(t, viaJSON, viaYAML, "fact %v", fact)
	}
	assert.Equal(t, "exact", ruleflow.Route(fromYAML.Branches, fromYAML.ElseActions, domain.Fact{"x": 1.5}).Label)
}

func TestEngine_SimulateRejectsUnknownSchemaType(t *testing.T) {
	eng := ruleflow.New()
	flow := cartFlow("typed")
	flow.FactSchema = map[string]string{"cart_value": "decimal"}

	_, err := eng.Simulate(context.Background(), flow, domain.Fact{"cart_value": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidFactSchema)
	assert.NotErrorIs(t, err, domain.ErrFactMismatch)
}
