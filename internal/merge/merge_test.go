package merge

import (
	"encoding/json"
	"reflect"
	"testing"
)

func deepClone(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestMergeSourceWinsOnScalars(t *testing.T) {
	t.Parallel()

	base := map[string]any{"model": "opus", "outputStyle": "engineer-professional"}
	source := map[string]any{"model": "sonnet"}

	res := Merge(base, source, Options{Strategy: StrategyMerge})
	if res.Result["model"] != "sonnet" {
		t.Fatalf("source should win, got %v", res.Result["model"])
	}
	if res.Result["outputStyle"] != "engineer-professional" {
		t.Fatal("untouched base key lost")
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Path != "model" {
		t.Fatalf("expected one conflict at model, got %v", res.Conflicts)
	}
	if res.Conflicts[0].Chosen != "sonnet" {
		t.Fatalf("conflict should record the chosen value, got %v", res.Conflicts[0].Chosen)
	}
}

func TestMergeRecursesIntoObjects(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"general": map[string]any{"preferredLang": "zh-CN", "currentTool": "claude-code"},
	}
	source := map[string]any{
		"general": map[string]any{"currentTool": "codex"},
	}

	res := Merge(base, source, Options{Strategy: StrategyMerge})
	general := res.Result["general"].(map[string]any)
	if general["preferredLang"] != "zh-CN" || general["currentTool"] != "codex" {
		t.Fatalf("deep merge wrong: %v", general)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Path != "general.currentTool" {
		t.Fatalf("expected conflict at general.currentTool, got %v", res.Conflicts)
	}
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"version": "1.0.0",
		"general": map[string]any{"preferredLang": "en"},
		"lists":   map[string]any{"allow": []any{"Bash", "Read"}},
	}
	for _, am := range []ArrayMerge{ArrayReplace, ArrayConcat, ArrayUnique} {
		res := Merge(doc, doc, Options{Strategy: StrategyMerge, ArrayMerge: am})
		if am == ArrayConcat {
			// Concat is the one array policy that is not idempotent.
			continue
		}
		if !reflect.DeepEqual(res.Result, doc) {
			t.Fatalf("merge(x, x) != x with %s arrays: %v", am, res.Result)
		}
		if len(res.Conflicts) != 0 {
			t.Fatalf("equal inputs must not conflict, got %v", res.Conflicts)
		}
	}
}

func TestMergeDeterministic(t *testing.T) {
	t.Parallel()

	base := map[string]any{"a": 1.0, "b": 2.0, "c": 3.0, "d": map[string]any{"x": 1.0}}
	source := map[string]any{"a": 9.0, "b": 8.0, "c": 7.0, "d": map[string]any{"x": 2.0}}

	first := Merge(base, source, Options{Strategy: StrategyMerge})
	for i := 0; i < 20; i++ {
		again := Merge(base, source, Options{Strategy: StrategyMerge})
		if !reflect.DeepEqual(again.Result, first.Result) {
			t.Fatal("merge result varies across runs")
		}
		if !reflect.DeepEqual(again.Conflicts, first.Conflicts) {
			t.Fatal("conflict ordering varies across runs")
		}
	}
	wantOrder := []string{"a", "b", "c", "d.x"}
	for i, c := range first.Conflicts {
		if c.Path != wantOrder[i] {
			t.Fatalf("conflicts not in path order: %v", first.Conflicts)
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	base := map[string]any{"nested": map[string]any{"keep": "base"}, "list": []any{"a"}}
	source := map[string]any{"nested": map[string]any{"keep": "source"}, "list": []any{"b"}}
	baseCopy := deepClone(t, base)
	sourceCopy := deepClone(t, source)

	res := Merge(base, source, Options{Strategy: StrategyMerge, ArrayMerge: ArrayUnique})
	res.Result["nested"].(map[string]any)["keep"] = "mutated"

	if !reflect.DeepEqual(base, baseCopy) {
		t.Fatalf("base mutated: %v", base)
	}
	if !reflect.DeepEqual(source, sourceCopy) {
		t.Fatalf("source mutated: %v", source)
	}
}

func TestReplaceStrategyIsShallow(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"general": map[string]any{"preferredLang": "zh-CN", "currentTool": "claude-code"},
		"api":     map[string]any{"timeout": 120000.0},
	}
	source := map[string]any{
		"general": map[string]any{"preferredLang": "en"},
	}

	res := Merge(base, source, Options{Strategy: StrategyReplace})
	general := res.Result["general"].(map[string]any)
	if _, kept := general["currentTool"]; kept {
		t.Fatal("replace must overwrite the section wholesale")
	}
	if _, kept := res.Result["api"]; !kept {
		t.Fatal("keys absent from source must survive")
	}
}

func TestPreserveNeverOverwrites(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"general": map[string]any{"preferredLang": "zh-CN"},
		"model":   "opus",
	}
	source := map[string]any{
		"general": map[string]any{"preferredLang": "en", "currentTool": "codex"},
		"model":   "sonnet",
		"extra":   true,
	}

	res := Merge(base, source, Options{Strategy: StrategyPreserve})
	general := res.Result["general"].(map[string]any)
	if general["preferredLang"] != "zh-CN" {
		t.Fatal("preserve overwrote an existing value")
	}
	if general["currentTool"] != "codex" {
		t.Fatal("preserve should add missing keys")
	}
	if res.Result["model"] != "opus" {
		t.Fatal("preserve overwrote a top-level scalar")
	}
	if res.Result["extra"] != true {
		t.Fatal("preserve should add new top-level keys")
	}
	if len(res.Conflicts) != 0 {
		t.Fatalf("preserve records no conflicts, got %v", res.Conflicts)
	}
}

func TestAskRecordsEveryOverlap(t *testing.T) {
	t.Parallel()

	base := map[string]any{"same": "x", "different": "a"}
	source := map[string]any{"same": "x", "different": "b"}

	res := Merge(base, source, Options{Strategy: StrategyAsk})
	if len(res.Conflicts) != 2 {
		t.Fatalf("ask must record every overlapping scalar, got %v", res.Conflicts)
	}
}

func TestArrayMergeUnique(t *testing.T) {
	t.Parallel()

	base := map[string]any{"allow": []any{"a", "b"}}
	source := map[string]any{"allow": []any{"b", "c"}}

	res := Merge(base, source, Options{Strategy: StrategyMerge, ArrayMerge: ArrayUnique})
	want := []any{"a", "b", "c"}
	if !reflect.DeepEqual(res.Result["allow"], want) {
		t.Fatalf("got %v, want %v", res.Result["allow"], want)
	}
}

func TestArrayMergeConcat(t *testing.T) {
	t.Parallel()

	base := map[string]any{"list": []any{"a"}}
	source := map[string]any{"list": []any{"a", "b"}}

	res := Merge(base, source, Options{Strategy: StrategyMerge, ArrayMerge: ArrayConcat})
	want := []any{"a", "a", "b"}
	if !reflect.DeepEqual(res.Result["list"], want) {
		t.Fatalf("got %v, want %v", res.Result["list"], want)
	}
}

func TestArrayMergeDefaultReplaces(t *testing.T) {
	t.Parallel()

	base := map[string]any{"list": []any{"a", "b"}}
	source := map[string]any{"list": []any{"c"}}

	res := Merge(base, source, Options{})
	want := []any{"c"}
	if !reflect.DeepEqual(res.Result["list"], want) {
		t.Fatalf("got %v, want %v", res.Result["list"], want)
	}
}

func TestUniqueUnionStructuralEquality(t *testing.T) {
	t.Parallel()

	base := []any{map[string]any{"name": "server", "port": 1.0}}
	source := []any{
		map[string]any{"name": "server", "port": 1.0},
		map[string]any{"name": "other", "port": 2.0},
	}
	got := UniqueUnion(base, source)
	if len(got) != 2 {
		t.Fatalf("structurally equal objects must dedup, got %v", got)
	}
}

func TestEqualValuesNumericWidening(t *testing.T) {
	t.Parallel()

	if !equalValues(1, 1.0) {
		t.Fatal("1 and 1.0 must compare equal")
	}
	if !equalValues(int64(42), float64(42)) {
		t.Fatal("int64 42 and float64 42 must compare equal")
	}
	if equalValues(1, "1") {
		t.Fatal("number and string must not compare equal")
	}
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"general": map[string]any{"preferredLang": "zh-CN", "currentTool": "codex"},
		"same":    "x",
	}
	source := map[string]any{
		"general": map[string]any{"preferredLang": "en", "currentTool": "codex"},
		"same":    "x",
		"onlyNew": true,
	}

	got := DetectConflicts(base, source)
	if len(got) != 1 {
		t.Fatalf("expected one conflict, got %v", got)
	}
	if got[0].Path != "general.preferredLang" || got[0].Base != "zh-CN" || got[0].Incoming != "en" {
		t.Fatalf("unexpected conflict: %+v", got[0])
	}
}
