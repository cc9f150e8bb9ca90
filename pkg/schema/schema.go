package schema

// Field describes a single schema entry.
type Field struct {
	Type Type

	// Required fields must be present after defaults are applied.
	Required bool

	// Default is applied when the field is absent.
	Default any

	// Description documents the field for introspection surfaces.
	Description string
}

// Schema is a map of field names to their declarations. A nil Schema means
// "no schema declared"; use Any() for an explicit accept-anything schema.
type Schema map[string]Field

// Any returns an explicit wildcard schema, distinct from a nil (undeclared)
// one.
func Any() Schema {
	return Schema{}
}

// IsWildcard reports whether the schema accepts arbitrary fields. A non-nil
// empty schema is the wildcard form.
func (s Schema) IsWildcard() bool {
	return s != nil && len(s) == 0
}

// ApplyDefaults returns a copy of data with every absent defaulted field
// filled in. The input map is not mutated.
func (s Schema) ApplyDefaults(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for name, field := range s {
		if _, ok := out[name]; !ok && field.Default != nil {
			out[name] = field.Default
		}
	}
	return out
}

// Validate checks data against the schema. A nil or wildcard schema accepts
// everything. All failures are collected into a single AggregateError.
func (s Schema) Validate(data map[string]any) error {
	if s == nil || s.IsWildcard() {
		return nil
	}

	var errs []error

	for name, field := range s {
		value, exists := data[name]
		if !exists {
			if field.Required {
				errs = append(errs, &ValidationError{Key: name, Reason: "required"})
			}
			continue
		}
		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: name, Reason: err.Error(), Value: value})
		}
	}

	for name := range data {
		if _, declared := s[name]; !declared {
			errs = append(errs, &ValidationError{Key: name, Reason: "not declared in schema", Value: data[name]})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
