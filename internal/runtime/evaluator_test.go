package runtime_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/ruleflow/internal/runtime"
	"github.com/aretw0/ruleflow/pkg/domain"
)

func cond(field string, op domain.Operator, value string) domain.Condition {
	return domain.Condition{Field: field, Operator: op, Value: value}
}

func TestEvaluate(t *testing.T) {
	fact := domain.Fact{
		"cart_value": 180,
		"country":    "US",
		"segment":    "VIP",
		"ltv_delta":  -60.0,
		"coupon":     "",
		"referrer":   nil,
		"subscribed": true,
		"orders":     json.Number("12"),
		"score":      "n/a",
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"equals string", cond("segment", domain.OpEquals, "VIP"), true},
		{"equals is case sensitive", cond("segment", domain.OpEquals, "vip"), false},
		{"equals number coerced", cond("cart_value", domain.OpEquals, "180"), true},
		{"equals bool coerced", cond("subscribed", domain.OpEquals, "true"), true},
		{"equals json number", cond("orders", domain.OpEquals, "12"), true},
		{"equals nil as null", cond("referrer", domain.OpEquals, "null"), true},
		{"equals missing as undefined", cond("missing", domain.OpEquals, "undefined"), true},
		{"equals missing vs empty", cond("missing", domain.OpEquals, ""), false},
		{"not equals", cond("country", domain.OpNotEquals, "BR"), true},
		{"not equals same", cond("country", domain.OpNotEquals, "US"), false},

		{"contains case insensitive", cond("segment", domain.OpContains, "ip"), true},
		{"contains upper needle", cond("country", domain.OpContains, "us"), true},
		{"contains number", cond("cart_value", domain.OpContains, "8"), true},
		{"contains missing is empty string", cond("missing", domain.OpContains, "x"), false},
		{"contains empty needle on missing", cond("missing", domain.OpContains, ""), true},
		{"not contains", cond("segment", domain.OpNotContains, "non"), true},
		{"not contains missing", cond("missing", domain.OpNotContains, "x"), true},

		{"greater", cond("cart_value", domain.OpGreater, "100"), true},
		{"greater equal boundary", cond("cart_value", domain.OpGreaterEq, "180"), true},
		{"less negative", cond("ltv_delta", domain.OpLess, "-50"), true},
		{"less equal", cond("ltv_delta", domain.OpLessEq, "-60"), true},
		{"json number compare", cond("orders", domain.OpGreater, "10"), true},
		{"non numeric fact", cond("score", domain.OpLess, "5"), false},
		{"non numeric fact negated operator", cond("score", domain.OpGreaterEq, "5"), false},
		{"non numeric value", cond("cart_value", domain.OpGreater, "lots"), false},
		{"blank value", cond("cart_value", domain.OpGreater, ""), false},
		{"missing field numeric", cond("missing", domain.OpLess, "1"), false},
		{"nil field numeric", cond("referrer", domain.OpLess, "1"), false},
		{"bool field numeric", cond("subscribed", domain.OpGreater, "0"), false},
		{"infinite value", cond("cart_value", domain.OpLess, "Inf"), false},

		{"is empty missing", cond("missing", domain.OpIsEmpty, ""), true},
		{"is empty nil", cond("referrer", domain.OpIsEmpty, ""), true},
		{"is empty blank string", cond("coupon", domain.OpIsEmpty, ""), true},
		{"is empty zero value", cond("cart_value", domain.OpIsEmpty, ""), false},
		{"is not empty", cond("country", domain.OpIsNotEmpty, ""), true},
		{"is not empty missing", cond("missing", domain.OpIsNotEmpty, ""), false},

		{"unknown operator", cond("segment", domain.Operator("matches"), "VIP"), false},
		{"empty operator", cond("segment", "", "VIP"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.Evaluate(tt.cond, fact))
		})
	}
}

func TestEvaluate_EqualsMatchesStringCoercion(t *testing.T) {
	values := []any{"VIP", 180, 1.5, -0.25, true, false, nil, json.Number("42"), "", 1e21}
	candidates := []string{"VIP", "180", "1.5", "-0.25", "true", "false", "null", "42", "", "1e+21", "undefined"}

	for _, v := range values {
		fact := domain.Fact{"f": v}
		for _, c := range candidates {
			name := fmt.Sprintf("%v==%q", v, c)
			want := domain.FormatValue(v) == c
			assert.Equal(t, want, runtime.Evaluate(cond("f", domain.OpEquals, c), fact), name)
			assert.Equal(t, !want, runtime.Evaluate(cond("f", domain.OpNotEquals, c), fact), name)
		}
	}
}

func TestEvaluate_NilFact(t *testing.T) {
	assert.True(t, runtime.Evaluate(cond("anything", domain.OpIsEmpty, ""), nil))
	assert.False(t, runtime.Evaluate(cond("anything", domain.OpGreater, "1"), nil))
}

func TestEvaluate_Scenario_LTVDelta(t *testing.T) {
	c := cond("ltv_delta", domain.OpLess, "-50")

	assert.True(t, runtime.Evaluate(c, domain.Fact{"ltv_delta": -60}))
	assert.False(t, runtime.Evaluate(c, domain.Fact{"ltv_delta": "n/a"}))
}
