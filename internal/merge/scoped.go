package merge

// Scope-specific merges. These wrap the generic engine with the handful of
// keys whose semantics are not "source wins": environment variables the
// user already set, the permissions allow-list, and sticky preference
// choices.

// MergeNativeSettings merges a settings template into the user's native
// settings document. The env map keeps user values on conflict and
// permissions.allow / permissions.deny are deduplicated by set union, so
// applying a template never discards an entitlement the user already has.
func MergeNativeSettings(base, source map[string]any) Result {
	res := Merge(base, source, Options{Strategy: StrategyMerge, ArrayMerge: ArrayUnique})

	// env: user value wins. The generic merge let source win, so put the
	// base values back and drop the corresponding conflicts.
	baseEnv, okBase := mapAt(base, "env")
	if okBase {
		merged, _ := mapAt(res.Result, "env")
		if merged == nil {
			merged = make(map[string]any)
			res.Result["env"] = merged
		}
		for k, v := range baseEnv {
			merged[k] = cloneValue(v)
		}
		res.Conflicts = dropConflictsUnder(res.Conflicts, "env")
	}

	// permissions lists are unions of both documents.
	basePerm, _ := mapAt(base, "permissions")
	srcPerm, _ := mapAt(source, "permissions")
	if basePerm != nil || srcPerm != nil {
		merged, ok := mapAt(res.Result, "permissions")
		if !ok {
			merged = make(map[string]any)
			res.Result["permissions"] = merged
		}
		for _, list := range []string{"allow", "deny"} {
			union := UniqueUnion(sliceAt(basePerm, list), sliceAt(srcPerm, list))
			if len(union) > 0 {
				merged[list] = union
			}
		}
	}

	return res
}

// stickyPreferenceKeys are user choices a template overlay must never
// change, whatever strategy the caller picked.
var stickyPreferenceKeys = []string{"preferredLang", "currentTool"}

// MergePreferences merges a preferences tree while keeping the base
// document's language and tool selection intact under every strategy.
func MergePreferences(base, source map[string]any, opts Options) Result {
	res := Merge(base, source, opts)

	baseGeneral, ok := mapAt(base, "general")
	if !ok {
		return res
	}
	merged, ok := mapAt(res.Result, "general")
	if !ok {
		merged = make(map[string]any)
		res.Result["general"] = merged
	}
	for _, key := range stickyPreferenceKeys {
		v, present := baseGeneral[key]
		if !present {
			continue
		}
		merged[key] = cloneValue(v)
		res.Conflicts = dropConflictsUnder(res.Conflicts, "general."+key)
	}
	return res
}

func mapAt(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	child, ok := m[key].(map[string]any)
	return child, ok
}

func sliceAt(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if s, ok := m[key].([]any); ok {
		return s
	}
	return nil
}

func dropConflictsUnder(conflicts []Conflict, prefix string) []Conflict {
	out := conflicts[:0:0]
	for _, c := range conflicts {
		if c.Path == prefix || len(c.Path) > len(prefix) && c.Path[:len(prefix)+1] == prefix+"." {
			continue
		}
		out = append(out, c)
	}
	return out
}
