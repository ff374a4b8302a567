package cmd

import (
	"strings"
	"testing"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/schema"
	"github.com/ccjk/ccjk/internal/service"
)

func TestParseLiteral(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"120000", 120000.0},
		{"1.5", 1.5},
		{"zh-CN", "zh-CN"},
		{`["Bash","Read"]`, []any{"Bash", "Read"}},
		{"plain words", "plain words"},
	}
	for _, tc := range cases {
		got := parseLiteral(tc.in)
		switch want := tc.want.(type) {
		case []any:
			list, ok := got.([]any)
			if !ok || len(list) != len(want) {
				t.Errorf("parseLiteral(%q) = %v, want %v", tc.in, got, tc.want)
				continue
			}
			for i := range want {
				if list[i] != want[i] {
					t.Errorf("parseLiteral(%q) = %v, want %v", tc.in, got, tc.want)
				}
			}
		default:
			if got != tc.want {
				t.Errorf("parseLiteral(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestWithKeySuggestion(t *testing.T) {
	t.Parallel()

	svc, err := service.New(service.Options{
		Paths: config.Paths{RootDir: t.TempDir(), ClaudeDir: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}

	pathErr := &schema.PathError{
		Path:    "general.preferedLang",
		Segment: "preferedLang",
		Reason:  "unknown key",
	}
	got := withKeySuggestion(svc, config.ScopePreferences, "general.preferedLang", pathErr)
	if got == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(got.Error(), "general.preferredLang") {
		t.Fatalf("suggestion missing from %q", got.Error())
	}

	// Non-path errors pass through untouched.
	plain := withKeySuggestion(svc, config.ScopePreferences, "x", errPlain)
	if plain != errPlain {
		t.Fatalf("plain error decorated: %v", plain)
	}
}

var errPlain = &plainError{}

type plainError struct{}

func (*plainError) Error() string { return "plain failure" }
