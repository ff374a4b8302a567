package schema

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Machine-readable validation codes.
const (
	CodeRequiredField   = "REQUIRED_FIELD"
	CodeInvalidType     = "INVALID_TYPE"
	CodeInvalidEnum     = "INVALID_ENUM"
	CodePatternMismatch = "PATTERN_MISMATCH"
	CodeMinLength       = "MIN_LENGTH"
	CodeMaxLength       = "MAX_LENGTH"
	CodeMinValue        = "MIN_VALUE"
	CodeMaxValue        = "MAX_VALUE"
	CodeInvalidURL      = "INVALID_URL"
	CodeInvalidAPIKey   = "INVALID_API_KEY"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeUnknownField    = "UNKNOWN_FIELD"
)

// Error is a single validation failure at a dot-path.
type Error struct {
	Path     string
	Code     string
	Message  string
	Value    any
	Expected string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s [%s] (got: %v)", e.Path, e.Message, e.Code, e.Value)
}

// Warning is a non-fatal validation finding.
type Warning struct {
	Path    string
	Code    string
	Message string
}

// Result collects the outcome of validating a value tree.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Warning
}

// ErrorMessages returns the error list as joined text, for log output.
func (r Result) ErrorMessages() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// apiKeyPattern matches provider API keys: a short lowercase prefix followed
// by a dash-separated body of at least 20 url-safe characters.
var apiKeyPattern = regexp.MustCompile(`^[a-z]{2,10}-[A-Za-z0-9_-]{20,}$`)

// Validate checks value against the schema tree and returns every error and
// warning found. It never mutates its inputs.
func Validate(value any, s *Field) Result {
	v := &validator{}
	v.walk("", value, s)
	return Result{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

// IsValid reports whether value satisfies the schema, discarding details.
func IsValid(value any, s *Field) bool {
	return Validate(value, s).Valid
}

// ValidateField validates a single leaf value against the field reached by
// path, without requiring the surrounding document. Used for point-edits.
func ValidateField(root *Field, path string, value any) Result {
	field, err := lookupField(root, path)
	if err != nil {
		return Result{
			Valid:  false,
			Errors: []Error{{Path: path, Code: CodeUnknownField, Message: err.Error(), Value: value}},
		}
	}
	v := &validator{}
	v.walk(path, value, field)
	return Result{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

type validator struct {
	errors   []Error
	warnings []Warning
}

func (v *validator) addError(path, code, msg string, value any, expected string) {
	v.errors = append(v.errors, Error{
		Path:     path,
		Code:     code,
		Message:  msg,
		Value:    value,
		Expected: expected,
	})
}

func (v *validator) addWarning(path, code, msg string) {
	v.warnings = append(v.warnings, Warning{Path: path, Code: code, Message: msg})
}

func (v *validator) walk(path string, value any, s *Field) {
	if s == nil {
		return
	}

	if value == nil {
		if !s.HasType(TypeNull) {
			v.addError(path, CodeInvalidType, "value must not be null", nil, typeList(s.Types))
		}
		return
	}

	actual := typeOf(value)
	if !typeAccepted(s, actual, value) {
		v.addError(path, CodeInvalidType,
			fmt.Sprintf("expected %s, got %s", typeList(s.Types), actual),
			value, typeList(s.Types))
		return
	}

	switch actual {
	case TypeString:
		v.checkString(path, value.(string), s)
	case TypeNumber, TypeInteger:
		v.checkNumber(path, toFloat(value), s)
	case TypeObject:
		v.checkObject(path, value.(map[string]any), s)
	case TypeArray:
		v.checkArray(path, value.([]any), s)
	}
}

func (v *validator) checkString(path, s string, f *Field) {
	if len(f.Enum) > 0 && !contains(f.Enum, s) {
		v.addError(path, CodeInvalidEnum,
			fmt.Sprintf("must be one of: %s", strings.Join(f.Enum, ", ")),
			s, strings.Join(f.Enum, "|"))
		return
	}
	if f.Pattern != nil && !f.Pattern.MatchString(s) {
		v.addError(path, CodePatternMismatch,
			fmt.Sprintf("must match pattern %s", f.Pattern.String()),
			s, f.Pattern.String())
	}
	if f.MinLen != nil && len(s) < *f.MinLen {
		v.addError(path, CodeMinLength,
			fmt.Sprintf("length must be at least %d", *f.MinLen), s,
			fmt.Sprintf("minLength=%d", *f.MinLen))
	}
	if f.MaxLen != nil && len(s) > *f.MaxLen {
		v.addError(path, CodeMaxLength,
			fmt.Sprintf("length must be at most %d", *f.MaxLen), s,
			fmt.Sprintf("maxLength=%d", *f.MaxLen))
	}
	v.checkFormat(path, s, f)
}

func (v *validator) checkFormat(path, s string, f *Field) {
	switch f.Format {
	case FormatURL:
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			v.addError(path, CodeInvalidURL, "must be an absolute URL", s, "url")
		}
	case FormatEmail:
		if _, err := mail.ParseAddress(s); err != nil {
			v.addError(path, CodeInvalidFormat, "must be an email address", s, "email")
		}
	case FormatAPIKey:
		if !apiKeyPattern.MatchString(s) {
			v.addError(path, CodeInvalidAPIKey, "does not look like an API key", s, "api-key")
		}
	case FormatDateTime:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			v.addError(path, CodeInvalidFormat, "must be an RFC 3339 timestamp", s, "date-time")
		}
	}
}

func (v *validator) checkNumber(path string, n float64, f *Field) {
	if f.Min != nil && n < *f.Min {
		v.addError(path, CodeMinValue,
			fmt.Sprintf("must be >= %v", *f.Min), n, fmt.Sprintf("min=%v", *f.Min))
	}
	if f.Max != nil && n > *f.Max {
		v.addError(path, CodeMaxValue,
			fmt.Sprintf("must be <= %v", *f.Max), n, fmt.Sprintf("max=%v", *f.Max))
	}
	if len(f.Enum) > 0 && !contains(f.Enum, fmt.Sprintf("%v", n)) {
		v.addError(path, CodeInvalidEnum,
			fmt.Sprintf("must be one of: %s", strings.Join(f.Enum, ", ")),
			n, strings.Join(f.Enum, "|"))
	}
}

func (v *validator) checkObject(path string, m map[string]any, f *Field) {
	for _, name := range sortedKeys(f.Properties) {
		prop := f.Properties[name]
		childPath := joinPath(path, name)
		child, present := m[name]
		if !present {
			if prop.Required {
				v.addError(childPath, CodeRequiredField, "required field is missing", nil, "")
			}
			continue
		}
		v.walk(childPath, child, prop)
	}

	if f.Properties == nil {
		return
	}
	strict := f.AdditionalProperties != nil && !*f.AdditionalProperties
	for _, key := range sortedAnyKeys(m) {
		if _, declared := f.Properties[key]; declared {
			continue
		}
		childPath := joinPath(path, key)
		if strict {
			v.addError(childPath, CodeUnknownField, "unknown field", m[key], "")
		} else {
			v.addWarning(childPath, CodeUnknownField, "unknown field")
		}
	}
}

func (v *validator) checkArray(path string, items []any, f *Field) {
	if f.MinLen != nil && len(items) < *f.MinLen {
		v.addError(path, CodeMinLength,
			fmt.Sprintf("must have at least %d items", *f.MinLen), items,
			fmt.Sprintf("minLength=%d", *f.MinLen))
	}
	if f.MaxLen != nil && len(items) > *f.MaxLen {
		v.addError(path, CodeMaxLength,
			fmt.Sprintf("must have at most %d items", *f.MaxLen), items,
			fmt.Sprintf("maxLength=%d", *f.MaxLen))
	}
	if f.Items == nil {
		return
	}
	for i, item := range items {
		v.walk(fmt.Sprintf("%s[%d]", path, i), item, f.Items)
	}
}

// typeAccepted handles the integer/number overlap: an integral value
// satisfies both TypeInteger and TypeNumber, a fractional one only
// TypeNumber.
func typeAccepted(f *Field, actual Type, value any) bool {
	if f.HasType(actual) {
		return true
	}
	if actual == TypeInteger && f.HasType(TypeNumber) {
		return true
	}
	if actual == TypeNumber && f.HasType(TypeInteger) {
		n := toFloat(value)
		return n == float64(int64(n))
	}
	return false
}

func typeOf(value any) Type {
	switch v := value.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32:
		if float64(v) == float64(int64(v)) {
			return TypeInteger
		}
		return TypeNumber
	case float64:
		if v == float64(int64(v)) {
			return TypeInteger
		}
		return TypeNumber
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	default:
		return Type(fmt.Sprintf("%T", value))
	}
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func typeList(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
