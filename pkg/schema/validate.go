package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"id": NonEmptyString(), "tags": Optional(Slice(String()))}
type Schema map[string]Type

// Keys returns the field names in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema.
// Unknown fields are permitted. Returns an *AggregateError with every failure found,
// ordered by field name.
func Validate(schema Schema, data map[string]any) error {
	return validate(schema, data, false)
}

// ValidateClosed is Validate but also reports fields the schema does not declare.
func ValidateClosed(schema Schema, data map[string]any) error {
	return validate(schema, data, true)
}

func validate(schema Schema, data map[string]any, closed bool) error {
	if len(schema) == 0 && !closed {
		// No schema = no validation
		return nil
	}

	var errs []error

	for _, fieldName := range schema.Keys() {
		fieldType := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			if IsOptional(fieldType) {
				continue
			}
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if closed {
		unknown := make([]string, 0)
		for key := range data {
			if _, ok := schema[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: "unknown field",
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error unless the field is optional.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}

		value, fieldExists := data[fieldName]
		if !fieldExists {
			if IsOptional(fieldType) {
				continue
			}
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
