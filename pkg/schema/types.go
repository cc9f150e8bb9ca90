// Package schema declares and validates the option schemas attached to
// schematics and task executors. A handler with a nil schema has declared
// nothing; Any() is an explicit "accept anything" schema, and callers must
// be able to tell the two apart.
package schema

import (
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string").
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

// IntType validates integer values, accepting whole-number floats produced
// by JSON and YAML unmarshaling.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
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

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EnumType validates that a value is one of a fixed set of strings.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("value %q not in %v", s, t.values)
}

// AnyType accepts every value.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(any) error { return nil }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type { return &SliceType{elemType: elemType} }

// Enum creates a validator accepting one of the given strings.
func Enum(values ...string) Type { return &EnumType{values: values} }

// AnyValue creates a validator accepting every value.
func AnyValue() Type { return &AnyType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a manifest type name to a Type. Unknown names fail so
// typos in collection manifests surface at load time, not at validation
// time.
func ParseType(name string) (Type, error) {
	switch name {
	case "string":
		return String(), nil
	case "int", "integer":
		return Int(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "[string]":
		return Slice(String()), nil
	case "[int]":
		return Slice(Int()), nil
	case "any":
		return AnyValue(), nil
	default:
		return nil, fmt.Errorf("unknown type name %q", name)
	}
}
