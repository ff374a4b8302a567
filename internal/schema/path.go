package schema

import (
	"fmt"
	"sort"
	"strings"
)

// PathError reports a failed path resolution with the segment that broke.
type PathError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %s at %q", e.Path, e.Reason, e.Segment)
}

// Resolve walks doc segment-by-segment along a dot-path, checking each
// segment against the schema tree, and returns the value together with the
// schema field that describes it. Resolution never falls back to raw
// dynamic access: a segment the schema does not declare is an error even
// when the document happens to contain it.
func Resolve(root *Field, doc map[string]any, path string) (any, *Field, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, nil, err
	}

	field := root
	var value any = doc
	for _, seg := range segments {
		if !field.HasType(TypeObject) {
			return nil, nil, &PathError{Path: path, Segment: seg, Reason: "parent is not an object"}
		}
		next, declared := field.Properties[seg]
		if !declared {
			return nil, nil, &PathError{Path: path, Segment: seg, Reason: "unknown key"}
		}
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, nil, &PathError{Path: path, Segment: seg, Reason: "value is not an object"}
		}
		child, present := obj[seg]
		if !present {
			return nil, nil, &PathError{Path: path, Segment: seg, Reason: "path not found"}
		}
		field = next
		value = child
	}
	return value, field, nil
}

// Set writes value at path inside doc, creating intermediate objects the
// schema declares. The value is validated against the target field before
// anything is mutated.
func Set(root *Field, doc map[string]any, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	field, err := lookupField(root, path)
	if err != nil {
		return err
	}
	if res := Validate(value, field); !res.Valid {
		return fmt.Errorf("value for %q is invalid: %s", path, res.ErrorMessages())
	}

	current := doc
	for _, seg := range segments[:len(segments)-1] {
		child, present := current[seg]
		if !present {
			next := make(map[string]any)
			current[seg] = next
			current = next
			continue
		}
		obj, ok := child.(map[string]any)
		if !ok {
			return &PathError{Path: path, Segment: seg, Reason: "value is not an object"}
		}
		current = obj
	}
	current[segments[len(segments)-1]] = value
	return nil
}

// Keys returns every leaf dot-path the schema declares, sorted. Useful for
// "did you mean" suggestions against a mistyped path.
func Keys(root *Field) []string {
	var out []string
	var walk func(prefix string, f *Field)
	walk = func(prefix string, f *Field) {
		if f.HasType(TypeObject) && len(f.Properties) > 0 {
			for _, name := range sortedKeys(f.Properties) {
				walk(joinPath(prefix, name), f.Properties[name])
			}
			return
		}
		if prefix != "" {
			out = append(out, prefix)
		}
	}
	walk("", root)
	return out
}

// lookupField resolves path against the schema tree alone, with no document.
func lookupField(root *Field, path string) (*Field, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	field := root
	for _, seg := range segments {
		if !field.HasType(TypeObject) {
			return nil, &PathError{Path: path, Segment: seg, Reason: "parent is not an object"}
		}
		next, declared := field.Properties[seg]
		if !declared {
			return nil, &PathError{Path: path, Segment: seg, Reason: "unknown key"}
		}
		field = next
	}
	return field, nil
}

func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &PathError{Path: path, Reason: "empty path"}
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, &PathError{Path: path, Segment: seg, Reason: "empty segment"}
		}
	}
	return segments, nil
}

func sortedKeys(m map[string]*Field) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
