package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ruleflow/internal/runtime"
	"github.com/aretw0/ruleflow/pkg/domain"
)

var (
	vipActions = []domain.Action{
		{Type: "email", Title: "Send VIP coupon", Config: map[string]any{"template": "vip"}},
		{Type: "slack", Title: "Ping account manager"},
	}
	elseActions = []domain.Action{
		{Type: "email", Title: "Standard follow-up"},
	}
)

func TestRoute_Scenario_VIP(t *testing.T) {
	branches := []domain.Branch{
		{Label: "VIP", Condition: cond("segment", domain.OpEquals, "VIP"), Actions: vipActions},
	}

	res := runtime.Route(branches, elseActions, domain.Fact{"cart_value": 180, "country": "US", "segment": "VIP"})
	assert.True(t, res.Matched)
	assert.Equal(t, "VIP", res.Label)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, vipActions, res.Actions)

	res = runtime.Route(branches, elseActions, domain.Fact{"segment": "Non-VIP"})
	assert.False(t, res.Matched)
	assert.Empty(t, res.Label)
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, elseActions, res.Actions)
}

func TestRoute_FirstMatchWins(t *testing.T) {
	high := []domain.Action{{Type: "webhook", Title: "High value"}}
	branches := []domain.Branch{
		{Label: "big cart", Condition: cond("cart_value", domain.OpGreater, "100"), Actions: high},
		{Label: "VIP", Condition: cond("segment", domain.OpEquals, "VIP"), Actions: vipActions},
	}
	fact := domain.Fact{"cart_value": 180, "segment": "VIP"}

	res := runtime.Route(branches, elseActions, fact)
	require.True(t, res.Matched)
	assert.Equal(t, "big cart", res.Label)
	assert.Equal(t, high, res.Actions)

	// Short-circuit: the second branch is never evaluated.
	require.Len(t, res.Evaluations, 1)
	assert.Equal(t, domain.BranchEvaluation{Label: "big cart", Matched: true}, res.Evaluations[0])
}

func TestRoute_RecordsEvaluationsOnFallThrough(t *testing.T) {
	branches := []domain.Branch{
		{Label: "a", Condition: cond("x", domain.OpEquals, "1"), Actions: vipActions},
		{Label: "b", Condition: cond("x", domain.Operator("bogus"), "1"), Actions: vipActions},
	}

	res := runtime.Route(branches, nil, domain.Fact{"x": 2})
	assert.False(t, res.Matched)
	assert.NotNil(t, res.Actions)
	assert.Empty(t, res.Actions)
	assert.Equal(t, []domain.BranchEvaluation{{Label: "a"}, {Label: "b"}}, res.Evaluations)
}

func TestRoute_Idempotent(t *testing.T) {
	branches := []domain.Branch{
		{Label: "VIP", Condition: cond("segment", domain.OpEquals, "VIP"), Actions: vipActions},
	}
	fact := domain.Fact{"segment": "VIP"}

	first := runtime.Route(branches, elseActions, fact)
	second := runtime.Route(branches, elseActions, fact)
	assert.Equal(t, first, second)
}

func TestRouteFlow_NilFlow(t *testing.T) {
	res := runtime.RouteFlow(nil, domain.Fact{"a": 1})
	assert.False(t, res.Matched)
	assert.Empty(t, res.Actions)
}
