package runtime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// undefined is the string form of a field missing from the fact.
const undefined = "undefined"

// Evaluate reports whether fact satisfies cond.
// It is total: unknown operators and non-numeric operands of numeric
// comparisons yield false instead of an error.
func Evaluate(cond domain.Condition, fact domain.Fact) bool {
	value, present := fact.Lookup(cond.Field)

	switch cond.Operator {
	case domain.OpEquals:
		return equals(value, present, cond.Value)
	case domain.OpNotEquals:
		return !equals(value, present, cond.Value)
	case domain.OpContains:
		return contains(value, cond.Value)
	case domain.OpNotContains:
		return !contains(value, cond.Value)
	case domain.OpGreater:
		return compare(value, cond.Value, func(a, b float64) bool { return a > b })
	case domain.OpLess:
		return compare(value, cond.Value, func(a, b float64) bool { return a < b })
	case domain.OpGreaterEq:
		return compare(value, cond.Value, func(a, b float64) bool { return a >= b })
	case domain.OpLessEq:
		return compare(value, cond.Value, func(a, b float64) bool { return a <= b })
	case domain.OpIsEmpty:
		return isEmpty(value, present)
	case domain.OpIsNotEmpty:
		return !isEmpty(value, present)
	default:
		return false
	}
}

func equals(value any, present bool, expected string) bool {
	if !present {
		return expected == undefined
	}
	return domain.FormatValue(value) == expected
}

func contains(value any, needle string) bool {
	haystack := ""
	if value != nil {
		haystack = domain.FormatValue(value)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func compare(value any, operand string, cmp func(a, b float64) bool) bool {
	left, ok := toNumber(value)
	if !ok {
		return false
	}
	right, ok := toNumber(operand)
	if !ok {
		return false
	}
	return cmp(left, right)
}

// toNumber parses v as a finite number. Booleans, nil and blank strings do not parse.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		return parseNumber(t.String())
	case string:
		return parseNumber(t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
