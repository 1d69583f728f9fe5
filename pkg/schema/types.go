package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the type as written in a fact schema (e.g. "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates finite numeric values.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	f, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected finite number")
	}
	return nil
}

// IntType validates whole numbers.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	f, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("expected int, got %T", value)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected int, got float (not a whole number)")
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// OptionalType accepts nil or a value of the wrapped type.
// Validate treats a missing field of an optional type as valid.
type OptionalType struct {
	elemType Type
}

func (t *OptionalType) Name() string { return "?" + t.elemType.Name() }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.elemType.Validate(value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Int creates a whole-number type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Optional marks a type as nullable and not required.
func Optional(elemType Type) Type {
	if _, ok := elemType.(*OptionalType); ok {
		return elemType
	}
	return &OptionalType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type.
// Supports "string", "number" (alias "float"), "int", "bool" and the "?" optional prefix.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if rest, ok := strings.CutPrefix(typeStr, "?"); ok {
		elemType, err := ParseType(rest)
		if err != nil {
			return nil, err
		}
		return Optional(elemType), nil
	}

	switch strings.ToLower(typeStr) {
	case "string":
		return String(), nil
	case "number", "float":
		return Number(), nil
	case "int":
		return Int(), nil
	case "bool", "boolean":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %q", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"cart_value": "number", "segment": "string"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
