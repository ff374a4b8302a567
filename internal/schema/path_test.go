package schema

import (
	"errors"
	"reflect"
	"testing"
)

func walkerSchema() *Field {
	return Object(map[string]*Field{
		"version": RequiredString(),
		"general": Object(map[string]*Field{
			"preferredLang": StringEnum("zh-CN", "en"),
			"currentTool":   String(),
		}),
		"features": Object(map[string]*Field{
			"autoUpdate": Bool(),
		}),
	})
}

func TestResolveNestedValue(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"general": map[string]any{"preferredLang": "zh-CN"},
	}
	value, field, err := Resolve(walkerSchema(), doc, "general.preferredLang")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if value != "zh-CN" {
		t.Fatalf("got %v, want zh-CN", value)
	}
	if len(field.Enum) == 0 {
		t.Fatal("expected the enum field to be returned")
	}
}

func TestResolveUnknownKey(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"general": map[string]any{"typo": true}}
	_, _, err := Resolve(walkerSchema(), doc, "general.typo")
	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *PathError, got %v", err)
	}
	if pathErr.Segment != "typo" || pathErr.Reason != "unknown key" {
		t.Fatalf("unexpected error detail: %+v", pathErr)
	}
}

func TestResolveDeclaredButAbsent(t *testing.T) {
	t.Parallel()

	_, _, err := Resolve(walkerSchema(), map[string]any{}, "general.preferredLang")
	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *PathError, got %v", err)
	}
	if pathErr.Reason != "path not found" {
		t.Fatalf("unexpected reason %q", pathErr.Reason)
	}
}

func TestResolveEmptyPath(t *testing.T) {
	t.Parallel()

	_, _, err := Resolve(walkerSchema(), map[string]any{}, "")
	if err == nil {
		t.Fatal("expected an error for the empty path")
	}
}

func TestSetCreatesIntermediates(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"version": "1.0.0"}
	if err := Set(walkerSchema(), doc, "features.autoUpdate", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	features, ok := doc["features"].(map[string]any)
	if !ok || features["autoUpdate"] != true {
		t.Fatalf("value not written: %v", doc)
	}
}

func TestSetRejectsInvalidValueWithoutMutating(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"general": map[string]any{"preferredLang": "en"}}
	before := map[string]any{"general": map[string]any{"preferredLang": "en"}}

	if err := Set(walkerSchema(), doc, "general.preferredLang", "fr"); err == nil {
		t.Fatal("expected an enum violation")
	}
	if !reflect.DeepEqual(doc, before) {
		t.Fatalf("document mutated on failed Set: %v", doc)
	}
}

func TestSetRejectsUnknownPath(t *testing.T) {
	t.Parallel()

	doc := map[string]any{}
	err := Set(walkerSchema(), doc, "general.doesNotExist", "x")
	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *PathError, got %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("document mutated: %v", doc)
	}
}

func TestKeysListsLeafPaths(t *testing.T) {
	t.Parallel()

	got := Keys(walkerSchema())
	want := []string{
		"features.autoUpdate",
		"general.currentTool",
		"general.preferredLang",
		"version",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
