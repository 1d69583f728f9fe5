package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseFact(t *testing.T) {
	fact, err := ParseFact([]byte(`{"cart_value": 180, "country": "US", "vip": true, "ref": null}`))
	if err != nil {
		t.Fatalf("ParseFact() error = %v", err)
	}

	if got, ok := fact["cart_value"].(json.Number); !ok || got.String() != "180" {
		t.Errorf("cart_value = %#v, want json.Number(180)", fact["cart_value"])
	}
	if fact["country"] != "US" {
		t.Errorf("country = %v, want US", fact["country"])
	}
	if v, ok := fact.Lookup("ref"); !ok || v != nil {
		t.Errorf("ref = %v (present %v), want nil present", v, ok)
	}
}

func TestParseFact_RejectsNested(t *testing.T) {
	for _, input := range []string{
		`{"user": {"id": 1}}`,
		`{"tags": ["a", "b"]}`,
	} {
		_, err := ParseFact([]byte(input))
		if !errors.Is(err, ErrFactNotFlat) {
			t.Errorf("ParseFact(%s) error = %v, want ErrFactNotFlat", input, err)
		}
	}
}

func TestFact_Validate(t *testing.T) {
	ok := Fact{"a": "x", "b": 1, "c": 2.5, "d": nil, "e": false, "f": json.Number("3")}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	nested := Fact{"ok": 1, "tags": []string{"a"}}
	if err := nested.Validate(); !errors.Is(err, ErrFactNotFlat) {
		t.Errorf("Validate() error = %v, want ErrFactNotFlat", err)
	}
}

func TestParseFact_InvalidJSON(t *testing.T) {
	for _, input := range []string{`{`, `[1,2]`, `null`, `"x"`} {
		if _, err := ParseFact([]byte(input)); err == nil {
			t.Errorf("ParseFact(%s) should fail", input)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"VIP", "VIP"},
		{true, "true"},
		{180, "180"},
		{int64(-7), "-7"},
		{uint8(3), "3"},
		{180.0, "180"},
		{1.5, "1.5"},
		{-0.0, "0"},
		{0.000001, "0.000001"},
		{1.5e-7, "1.5e-7"},
		{1e21, "1e+21"},
		{123456789012.0, "123456789012"},
		{json.Number("42"), "42"},
		{json.Number("4.20"), "4.2"},
		{json.Number("9007199254740993"), "9007199254740993"},
		{json.Number("1e3"), "1000"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
