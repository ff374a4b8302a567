// Package schema defines the structural contract a configuration document
// must satisfy and validates value trees against it. Validation is a pure
// function: the package has no knowledge of persistence.
package schema

import "regexp"

// Type names a primitive value kind a field may hold.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeNull    Type = "null"
)

// Format tags a string field with a well-known shape that gets its own
// validation beyond the primitive type.
type Format string

const (
	FormatNone     Format = ""
	FormatURL      Format = "url"
	FormatEmail    Format = "email"
	FormatAPIKey   Format = "api-key"
	FormatDateTime Format = "date-time"
)

// Field is one node in a schema tree. A field may accept a union of types;
// a value is valid when it satisfies any of them. Null values are rejected
// unless TypeNull appears in the union.
type Field struct {
	Types    []Type
	Required bool
	Enum     []string
	Pattern  *regexp.Regexp
	Format   Format

	// Bounds. Min/Max apply to numbers, MinLen/MaxLen to strings and arrays.
	Min    *float64
	Max    *float64
	MinLen *int
	MaxLen *int

	// Properties describes an object's fields, Items an array's elements.
	Properties map[string]*Field
	Items      *Field

	// AdditionalProperties controls how unknown object keys are treated:
	// nil or true demotes them to warnings, false makes them errors.
	AdditionalProperties *bool
}

// Object is shorthand for an object field with the given properties.
func Object(props map[string]*Field) *Field {
	return &Field{Types: []Type{TypeObject}, Properties: props}
}

// String is shorthand for an optional string field.
func String() *Field {
	return &Field{Types: []Type{TypeString}}
}

// RequiredString is shorthand for a required string field.
func RequiredString() *Field {
	return &Field{Types: []Type{TypeString}, Required: true}
}

// Bool is shorthand for an optional boolean field.
func Bool() *Field {
	return &Field{Types: []Type{TypeBoolean}}
}

// Number is shorthand for an optional number field.
func Number() *Field {
	return &Field{Types: []Type{TypeNumber}}
}

// StringEnum is shorthand for a string field constrained to the given values.
func StringEnum(values ...string) *Field {
	return &Field{Types: []Type{TypeString}, Enum: values}
}

// Array is shorthand for an array field whose elements match items.
func Array(items *Field) *Field {
	return &Field{Types: []Type{TypeArray}, Items: items}
}

// HasType reports whether t is in the field's accepted type union.
func (f *Field) HasType(t Type) bool {
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

// FloatPtr, IntPtr and BoolPtr build bound pointers for schema literals.
func FloatPtr(v float64) *float64 { return &v }
func IntPtr(v int) *int           { return &v }
func BoolPtr(v bool) *bool        { return &v }
