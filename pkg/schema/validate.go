package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"cart_value": Number(), "segment": String()}
type Schema map[string]Type

// Names returns the schema in its declarative string form.
func (s Schema) Names() map[string]string {
	out := make(map[string]string, len(s))
	for k, t := range s {
		out[k] = t.Name()
	}
	return out
}

// Validate checks if data conforms to the schema.
// Failures are reported in field-name order.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var errs []error
	for _, fieldName := range fields {
		if err := validateField(schema[fieldName], fieldName, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only specific fields from data against the schema.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	var errs []error
	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "not defined in schema"})
			continue
		}
		if err := validateField(fieldType, fieldName, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateField(fieldType Type, fieldName string, data map[string]any) error {
	value, exists := data[fieldName]
	if !exists {
		if _, optional := fieldType.(*OptionalType); optional {
			return nil
		}
		return &ValidationError{Key: fieldName, Reason: "required"}
	}

	if err := fieldType.Validate(value); err != nil {
		return &ValidationError{Key: fieldName, Reason: err.Error(), Value: value}
	}
	return nil
}
