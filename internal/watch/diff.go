package watch

import "sort"

// Change is one leaf-level difference between two document snapshots.
type Change struct {
	Path string
	Old  any
	New  any
}

// Diff computes the leaf-level differences between two snapshots in
// deterministic path order. Object-valued changes recurse; array-valued
// and scalar changes are reported as a single change at their own path.
func Diff(old, new map[string]any) []Change {
	var out []Change
	diffMaps("", old, new, &out)
	return out
}

func diffMaps(prefix string, old, new map[string]any, out *[]Change) {
	for _, key := range unionKeys(old, new) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		ov, oOK := old[key]
		nv, nOK := new[key]
		switch {
		case !oOK:
			*out = append(*out, Change{Path: path, New: nv})
		case !nOK:
			*out = append(*out, Change{Path: path, Old: ov})
		default:
			om, oIsMap := ov.(map[string]any)
			nm, nIsMap := nv.(map[string]any)
			if oIsMap && nIsMap {
				diffMaps(path, om, nm, out)
				continue
			}
			if !equalValue(ov, nv) {
				*out = append(*out, Change{Path: path, Old: ov, New: nv})
			}
		}
	}
}

func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func equalValue(a, b any) bool {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equalValue(av, bv) {
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
			if !equalValue(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
