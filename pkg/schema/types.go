package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "{string}").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct {
	nonEmpty bool
}

func (t *StringType) Name() string {
	if t.nonEmpty {
		return "nonempty"
	}
	return "string"
}

func (t *StringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %s", typeName(value))
	}
	if t.nonEmpty && strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON decoding yields whole numbers as float64.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %s", typeName(value))
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %s", typeName(value))
	}
	return nil
}

// AnyType accepts every value, including nil.
type AnyType struct{}

func (t *AnyType) Name() string         { return "any" }
func (t *AnyType) Validate(_ any) error { return nil }

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected list, got %s", typeName(value))
	}

	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// MapType validates string-keyed mappings whose values share a type.
type MapType struct {
	elemType Type
	minLen   int
}

func (t *MapType) Name() string {
	if t.minLen > 0 {
		return fmt.Sprintf("{%s}+", t.elemType.Name())
	}
	return fmt.Sprintf("{%s}", t.elemType.Name())
}

func (t *MapType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("expected mapping, got %s", typeName(value))
	}
	if rv.Len() < t.minLen {
		return fmt.Errorf("expected at least %d entries, got %d", t.minLen, rv.Len())
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	var problems []string
	for _, k := range keys {
		elem := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", k, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// PatternType validates strings against a regular expression.
type PatternType struct {
	re *regexp.Regexp
}

func (t *PatternType) Name() string { return "/" + t.re.String() + "/" }

func (t *PatternType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %s", typeName(value))
	}
	if !t.re.MatchString(s) {
		return fmt.Errorf("does not match pattern %s", t.re.String())
	}
	return nil
}

// AllOfType applies several types to the same value, collecting every failure.
type AllOfType struct {
	types []Type
}

func (t *AllOfType) Name() string {
	names := make([]string, len(t.types))
	for i, typ := range t.types {
		names[i] = typ.Name()
	}
	return strings.Join(names, "&")
}

func (t *AllOfType) Validate(value any) error {
	var problems []string
	for _, typ := range t.types {
		if err := typ.Validate(value); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// OptionalType marks a field that may be absent. A present value must satisfy the inner type.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return "?" + t.inner.Name() }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
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

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// NonEmptyString creates a validator for strings with at least one non-space character.
func NonEmptyString() Type { return &StringType{nonEmpty: true} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Any accepts every value.
func Any() Type { return &AnyType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Map creates a mapping validator for values of the given type.
func Map(elemType Type) Type {
	return &MapType{elemType: elemType}
}

// NonEmptyMap is Map with at least one entry.
func NonEmptyMap(elemType Type) Type {
	return &MapType{elemType: elemType, minLen: 1}
}

// Pattern creates a validator for strings matching expr. It panics on an invalid expression.
func Pattern(expr string) Type {
	return &PatternType{re: regexp.MustCompile(expr)}
}

// AllOf combines types; the value must satisfy all of them.
func AllOf(types ...Type) Type {
	return &AllOfType{types: types}
}

// Optional marks a field as not required.
func Optional(inner Type) Type {
	return &OptionalType{inner: inner}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// IsOptional reports whether a missing field of this type is acceptable.
func IsOptional(t Type) bool {
	_, ok := t.(*OptionalType)
	return ok
}

// ParseType converts a string type name to a Type.
// Supports "string", "nonempty", "int", "bool", "any", "[T]" lists, "{T}" mappings,
// "{T}+" non-empty mappings, "/re/" patterns, "A&B" combinations and a "?" prefix
// for optional fields.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	if strings.HasPrefix(typeStr, "?") {
		inner, err := ParseType(typeStr[1:])
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	if !strings.HasPrefix(typeStr, "/") && strings.Contains(typeStr, "&") {
		parts := strings.Split(typeStr, "&")
		types := make([]Type, 0, len(parts))
		for _, part := range parts {
			t, err := ParseType(part)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		return AllOf(types...), nil
	}

	if len(typeStr) > 2 && typeStr[0] == '/' && typeStr[len(typeStr)-1] == '/' {
		re, err := regexp.Compile(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", typeStr, err)
		}
		return &PatternType{re: re}, nil
	}

	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	if len(typeStr) > 3 && typeStr[0] == '{' && strings.HasSuffix(typeStr, "}+") {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-2])
		if err != nil {
			return nil, err
		}
		return NonEmptyMap(elemType), nil
	}

	if len(typeStr) > 2 && typeStr[0] == '{' && typeStr[len(typeStr)-1] == '}' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Map(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "nonempty":
		return NonEmptyString(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"id": "nonempty", "tags": "?[string]"}
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

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map:
		return "mapping"
	case reflect.Slice, reflect.Array:
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
