package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Fact is a flat snapshot of one simulated event.
// Values are scalars: string, bool, nil or a number (float64, Go integers or json.Number).
type Fact map[string]any

// Lookup returns the value stored under field and whether it was present.
func (f Fact) Lookup(field string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f[field]
	return v, ok
}

// Clone returns a shallow copy of the fact.
func (f Fact) Clone() Fact {
	if f == nil {
		return nil
	}
	out := make(Fact, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ParseFact decodes a JSON object into a Fact.
// Numbers are kept as json.Number so that integer precision survives.
// Nested objects or arrays are rejected with ErrFactNotFlat.
func ParseFact(data []byte) (Fact, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid fact json: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid fact json: expected an object")
	}

	fact := Fact(raw)
	if err := fact.Validate(); err != nil {
		return nil, err
	}
	return fact, nil
}

// Validate rejects nested values with ErrFactNotFlat.
// Keys are checked in sorted order so the reported field is stable.
func (f Fact) Validate() error {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch f[k].(type) {
		case nil, string, bool, json.Number,
			float64, float32, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64:
		default:
			return fmt.Errorf("field %q: %w", k, ErrFactNotFlat)
		}
	}
	return nil
}

// FormatValue renders a fact or condition value as a string the way a
// loosely typed host would: nil becomes "null", booleans "true"/"false",
// and numbers their shortest decimal form.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := t.Float64(); err == nil {
			return formatFloat(f)
		}
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", t)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		// Exponent form without zero padding: 1e+21, 1.5e-7.
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
