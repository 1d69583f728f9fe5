package domain

import "strings"

// Operator is the comparison applied by a Condition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not contains"
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpGreaterEq   Operator = ">="
	OpLessEq      Operator = "<="
	OpIsEmpty     Operator = "is empty"
	OpIsNotEmpty  Operator = "is not empty"
)

// Operators lists every supported operator in display order.
var Operators = []Operator{
	OpEquals,
	OpNotEquals,
	OpContains,
	OpNotContains,
	OpGreater,
	OpLess,
	OpGreaterEq,
	OpLessEq,
	OpIsEmpty,
	OpIsNotEmpty,
}

var operatorAliases = map[string]Operator{
	"eq":                 OpEquals,
	"==":                 OpEquals,
	"=":                  OpEquals,
	"equal":              OpEquals,
	"neq":                OpNotEquals,
	"ne":                 OpNotEquals,
	"!=":                 OpNotEquals,
	"notequal":           OpNotEquals,
	"notequals":          OpNotEquals,
	"not_equals":         OpNotEquals,
	"notcontains":        OpNotContains,
	"not_contains":       OpNotContains,
	"gt":                 OpGreater,
	"greaterthan":        OpGreater,
	"lt":                 OpLess,
	"lessthan":           OpLess,
	"gte":                OpGreaterEq,
	"greaterthanorequal": OpGreaterEq,
	"lte":                OpLessEq,
	"lessthanorequal":    OpLessEq,
	"isempty":            OpIsEmpty,
	"is_empty":           OpIsEmpty,
	"isnotempty":         OpIsNotEmpty,
	"is_not_empty":       OpIsNotEmpty,
}

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreater, OpLess, OpGreaterEq, OpLessEq,
		OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// Numeric reports whether op compares operands as numbers.
func (op Operator) Numeric() bool {
	switch op {
	case OpGreater, OpLess, OpGreaterEq, OpLessEq:
		return true
	}
	return false
}

// Unary reports whether op ignores the condition value.
func (op Operator) Unary() bool {
	return op == OpIsEmpty || op == OpIsNotEmpty
}

// ParseOperator normalizes an operator string, resolving common aliases
// ("==", "gte", "notContains", ...). Unknown strings are returned unchanged so
// that they keep evaluating to false.
func ParseOperator(s string) Operator {
	trimmed := strings.TrimSpace(s)
	if op := Operator(strings.ToLower(trimmed)); op.Valid() {
		return op
	}
	if op, ok := operatorAliases[strings.ToLower(trimmed)]; ok {
		return op
	}
	return Operator(trimmed)
}
