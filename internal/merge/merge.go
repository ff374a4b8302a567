// Package merge deep-merges configuration value trees under a selectable
// strategy and reports the conflicts it resolved. Merging is deterministic:
// the same inputs and options always produce byte-identical results and the
// same conflict ordering, regardless of map iteration order.
package merge

import (
	"fmt"
	"sort"
)

// Strategy selects the conflict-resolution policy.
type Strategy string

const (
	// StrategyReplace overlays source onto base at the top level only.
	StrategyReplace Strategy = "replace"
	// StrategyMerge deep-merges, source winning on scalar conflicts.
	StrategyMerge Strategy = "merge"
	// StrategyPreserve only adds keys absent from base.
	StrategyPreserve Strategy = "preserve"
	// StrategyAsk merges like StrategyMerge but reports every overlapping
	// scalar so a caller can prompt. The engine itself never blocks.
	StrategyAsk Strategy = "ask"
)

// ArrayMerge selects how two arrays at the same path are combined.
type ArrayMerge string

const (
	// ArrayReplace lets the source array win outright.
	ArrayReplace ArrayMerge = "replace"
	// ArrayConcat appends source elements after base elements.
	ArrayConcat ArrayMerge = "concat"
	// ArrayUnique set-unions the arrays, preserving first-seen order.
	ArrayUnique ArrayMerge = "unique"
)

// Options configures a merge.
type Options struct {
	Strategy   Strategy
	ArrayMerge ArrayMerge
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyMerge
	}
	if o.ArrayMerge == "" {
		o.ArrayMerge = ArrayReplace
	}
	return o
}

// Conflict records one path where base and source disagreed, the value the
// engine chose, and which strategy made that choice.
type Conflict struct {
	Path     string
	Base     any
	Incoming any
	Chosen   any
	Strategy Strategy
}

// Result is the outcome of a merge.
type Result struct {
	Result    map[string]any
	Conflicts []Conflict
	Warnings  []string
}

// Merge combines source into base under the given options and returns the
// merged tree plus every conflict that was resolved. Neither input is
// mutated.
func Merge(base, source map[string]any, opts Options) Result {
	opts = opts.withDefaults()
	m := &merger{opts: opts}

	var merged map[string]any
	switch opts.Strategy {
	case StrategyReplace:
		merged = m.replaceTopLevel(base, source)
	case StrategyPreserve:
		merged = m.preserve(base, source)
	default:
		merged = m.deepMerge("", base, source)
	}

	return Result{
		Result:    merged,
		Conflicts: m.conflicts,
		Warnings:  m.warnings,
	}
}

// DetectConflicts reports every path where base and source both hold a
// value and the values differ, without performing a merge.
func DetectConflicts(base, source map[string]any) []Conflict {
	var out []Conflict
	var walk func(prefix string, base, source map[string]any)
	walk = func(prefix string, base, source map[string]any) {
		for _, key := range sortedOverlap(base, source) {
			path := joinPath(prefix, key)
			bv, sv := base[key], source[key]
			bo, bIsObj := bv.(map[string]any)
			so, sIsObj := sv.(map[string]any)
			if bIsObj && sIsObj {
				walk(path, bo, so)
				continue
			}
			if !equalValues(bv, sv) {
				out = append(out, Conflict{Path: path, Base: bv, Incoming: sv})
			}
		}
	}
	walk("", base, source)
	return out
}

type merger struct {
	opts      Options
	conflicts []Conflict
	warnings  []string
}

func (m *merger) replaceTopLevel(base, source map[string]any) map[string]any {
	out := cloneMap(base)
	for _, key := range sortedKeys(source) {
		if prev, exists := out[key]; exists && !equalValues(prev, source[key]) {
			m.conflicts = append(m.conflicts, Conflict{
				Path:     key,
				Base:     prev,
				Incoming: source[key],
				Chosen:   source[key],
				Strategy: StrategyReplace,
			})
		}
		out[key] = cloneValue(source[key])
	}
	return out
}

// preserve never overwrites an existing base key. It records no conflicts
// even for differing values; DetectConflicts is the way to surface them.
func (m *merger) preserve(base, source map[string]any) map[string]any {
	out := cloneMap(base)
	for _, key := range sortedKeys(source) {
		prev, exists := out[key]
		if !exists {
			out[key] = cloneValue(source[key])
			continue
		}
		po, pIsObj := prev.(map[string]any)
		so, sIsObj := source[key].(map[string]any)
		if pIsObj && sIsObj {
			out[key] = m.preserve(po, so)
		}
	}
	return out
}

func (m *merger) deepMerge(prefix string, base, source map[string]any) map[string]any {
	out := cloneMap(base)
	for _, key := range sortedKeys(source) {
		path := joinPath(prefix, key)
		sv := source[key]
		bv, exists := out[key]
		if !exists {
			out[key] = cloneValue(sv)
			continue
		}

		bo, bIsObj := bv.(map[string]any)
		so, sIsObj := sv.(map[string]any)
		if bIsObj && sIsObj {
			out[key] = m.deepMerge(path, bo, so)
			continue
		}

		ba, bIsArr := bv.([]any)
		sa, sIsArr := sv.([]any)
		if bIsArr && sIsArr {
			out[key] = m.mergeArrays(ba, sa)
			continue
		}

		differs := !equalValues(bv, sv)
		// StrategyAsk records every overlapping scalar, differing or not,
		// so callers can present the full overlap for confirmation.
		if differs || m.opts.Strategy == StrategyAsk {
			m.conflicts = append(m.conflicts, Conflict{
				Path:     path,
				Base:     bv,
				Incoming: sv,
				Chosen:   sv,
				Strategy: m.opts.Strategy,
			})
		}
		out[key] = cloneValue(sv)
	}
	return out
}

func (m *merger) mergeArrays(base, source []any) []any {
	switch m.opts.ArrayMerge {
	case ArrayConcat:
		out := make([]any, 0, len(base)+len(source))
		out = append(out, cloneSlice(base)...)
		out = append(out, cloneSlice(source)...)
		return out
	case ArrayUnique:
		return UniqueUnion(base, source)
	default:
		return cloneSlice(source)
	}
}

// UniqueUnion set-unions two arrays preserving first-seen order. Equality
// is structural, so object elements dedup too.
func UniqueUnion(base, source []any) []any {
	out := make([]any, 0, len(base)+len(source))
	seen := make([]any, 0, len(base)+len(source))
	add := func(v any) {
		for _, s := range seen {
			if equalValues(s, v) {
				return
			}
		}
		seen = append(seen, v)
		out = append(out, cloneValue(v))
	}
	for _, v := range base {
		add(v)
	}
	for _, v := range source {
		add(v)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedOverlap(a, b map[string]any) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		return cloneSlice(val)
	default:
		return val
	}
}

// equalValues compares two trees structurally. Scalars compare by value
// with numeric widening so 1 and 1.0 are equal.
func equalValues(a, b any) bool {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equalValues(av, bv) {
				return false
			}
		}
		return true
	}

	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice || bIsSlice {
		if !aIsSlice || !bIsSlice || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalValues(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	if af, aIsNum := toFloat(a); aIsNum {
		if bf, bIsNum := toFloat(b); bIsNum {
			return af == bf
		}
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// String implements fmt.Stringer for conflict logging.
func (c Conflict) String() string {
	return fmt.Sprintf("%s: %v -> %v (chose %v, %s)", c.Path, c.Base, c.Incoming, c.Chosen, c.Strategy)
}
