package schema

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"segment":    String(),
		"cart_value": Number(),
		"items":      Int(),
		"subscribed": Bool(),
		"coupon":     Optional(String()),
	}

	data := map[string]any{
		"segment":    "VIP",
		"cart_value": 180.5,
		"items":      3,
		"subscribed": true,
	}

	if err := Validate(schema, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]any{"anything": 1}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	schema := Schema{
		"segment":    String(),
		"cart_value": Number(),
	}

	err := Validate(schema, map[string]any{"segment": "VIP"})
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(errs))
	}

	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if validErr.Key != "cart_value" || validErr.Reason != "required" {
		t.Errorf("got %+v", validErr)
	}
}

func TestValidate_OrderedFailures(t *testing.T) {
	schema := Schema{
		"z_flag":  Bool(),
		"a_count": Int(),
		"m_name":  String(),
	}

	err := Validate(schema, map[string]any{"z_flag": "yes", "a_count": "one", "m_name": 1})
	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("Validate() = %d errors, want 3", len(errs))
	}

	var keys []string
	for _, e := range errs {
		keys = append(keys, e.(*ValidationError).Key)
	}
	if strings.Join(keys, ",") != "a_count,m_name,z_flag" {
		t.Errorf("keys = %v, want sorted", keys)
	}
	if !strings.HasPrefix(err.Error(), "3 validation errors:") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidate_SingleErrorMessage(t *testing.T) {
	err := Validate(Schema{"cart_value": Number()}, map[string]any{"cart_value": "lots"})
	want := `field "cart_value": expected number, got string (got string)`
	if err == nil || err.Error() != want {
		t.Errorf("Error() = %v, want %q", err, want)
	}
}

func TestValidationErrors_Wrapped(t *testing.T) {
	err := Validate(Schema{"segment": String()}, map[string]any{})
	wrapped := fmt.Errorf("simulate: %w", err)

	if got := ValidationErrors(wrapped); len(got) != 1 {
		t.Errorf("ValidationErrors(wrapped) = %v", got)
	}
	if ValidationErrors(errors.New("plain")) != nil {
		t.Error("ValidationErrors(plain) should be nil")
	}
}

func TestValidateFields(t *testing.T) {
	schema := Schema{"segment": String(), "cart_value": Number()}
	data := map[string]any{"segment": "VIP"}

	if err := ValidateFields(schema, data, "segment"); err != nil {
		t.Errorf("ValidateFields(segment) error = %v", err)
	}

	err := ValidateFields(schema, data, "cart_value", "unknown")
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("ValidateFields() = %d errors, want 2", len(errs))
	}
	if errs[1].(*ValidationError).Reason != "not defined in schema" {
		t.Errorf("second error = %v", errs[1])
	}
}
