package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document is the in-memory value tree for one scope. It stays a generic
// tree rather than a struct so the merge engine, the schema walker and the
// watcher diff all operate on the same representation the codecs produce.
type Document map[string]any

// Version returns the document's format version, or "" when absent.
func (d Document) Version() string {
	v, _ := d["version"].(string)
	return v
}

// SetVersion sets the document's format version.
func (d Document) SetVersion(v string) {
	d["version"] = v
}

// LastUpdated returns the last successful write time, zero when absent or
// unparseable.
func (d Document) LastUpdated() time.Time {
	s, _ := d["lastUpdated"].(string)
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// Stamp rewrites the lastUpdated timestamp. Called on every write.
func (d Document) Stamp(now time.Time) {
	d["lastUpdated"] = now.UTC().Format(time.RFC3339)
}

// Section returns the named top-level object section, creating nothing.
func (d Document) Section(name string) (map[string]any, bool) {
	m, ok := d[name].(map[string]any)
	return m, ok
}

// StringAt returns the string at a two-segment location, or "".
func (d Document) StringAt(section, key string) string {
	m, ok := d.Section(section)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneTree(map[string]any(d)))
}

func cloneTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = cloneTree(val)
		case []any:
			s := make([]any, len(val))
			for i, item := range val {
				if sub, ok := item.(map[string]any); ok {
					s[i] = cloneTree(sub)
				} else {
					s[i] = item
				}
			}
			out[k] = s
		default:
			out[k] = v
		}
	}
	return out
}

// CompareVersions compares two dotted numeric version strings. It returns
// -1, 0 or 1. Non-numeric segments compare lexically; a missing segment
// counts as zero, so "1.0" == "1.0.0".
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := segment(as, i), segment(bs, i)
		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func segment(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

// ParseError reports a scope file that exists but cannot be decoded. The
// caller keeps its previous in-memory state; the file on disk is left as
// is for inspection.
type ParseError struct {
	Scope Scope
	Path  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s document %s: %v", e.Scope, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a document that failed its scope schema. Write
// refuses to persist such a document.
type ValidationError struct {
	Scope  Scope
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s document invalid: %s", e.Scope, strings.Join(e.Errors, "; "))
}
