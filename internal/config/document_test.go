package config

import (
	"testing"
	"time"
)

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0", "1.0.0", 0},
		{"0.9.0", "1.0.0", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0", "2.0.0", -1},
		{"", "1.0.0", -1},
	}
	for _, tc := range cases {
		if got := CompareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDocumentVersionAccessors(t *testing.T) {
	t.Parallel()

	doc := Document{}
	if doc.Version() != "" {
		t.Fatal("empty document should report no version")
	}
	doc.SetVersion("1.0.0")
	if doc.Version() != "1.0.0" {
		t.Fatalf("got %q", doc.Version())
	}
}

func TestDocumentStamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 10, 30, 0, 0, time.FixedZone("CST", 8*3600))
	doc := Document{}
	doc.Stamp(now)

	got := doc.LastUpdated()
	if !got.Equal(now) {
		t.Fatalf("round trip lost the instant: got %v, want %v", got, now)
	}
	if s := doc["lastUpdated"].(string); s != "2026-08-31T02:30:00Z" {
		t.Fatalf("stamp must be UTC RFC 3339, got %q", s)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	t.Parallel()

	doc := Document{
		"general": map[string]any{"preferredLang": "en"},
		"list":    []any{map[string]any{"id": "a"}},
	}
	clone := doc.Clone()
	clone["general"].(map[string]any)["preferredLang"] = "ja"
	clone["list"].([]any)[0].(map[string]any)["id"] = "b"

	if doc.StringAt("general", "preferredLang") != "en" {
		t.Fatal("clone shares the nested map")
	}
	if doc["list"].([]any)[0].(map[string]any)["id"] != "a" {
		t.Fatal("clone shares the nested slice element")
	}
}

func TestDocumentSection(t *testing.T) {
	t.Parallel()

	doc := Document{"general": map[string]any{"currentTool": "codex"}, "flat": "x"}
	if _, ok := doc.Section("missing"); ok {
		t.Fatal("missing section reported present")
	}
	if _, ok := doc.Section("flat"); ok {
		t.Fatal("non-object value reported as section")
	}
	if doc.StringAt("general", "currentTool") != "codex" {
		t.Fatal("StringAt lookup failed")
	}
}
