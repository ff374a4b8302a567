package migrate

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/fsutil"
)

// defaultSteps is the built-in registry, ordered oldest format first.
func defaultSteps(paths config.Paths) []Step {
	return []Step{
		{
			Name:          "flat-json-to-preferences",
			Description:   "convert the original flat config.json into a sectioned preferences document",
			Source:        KindFlatJSON,
			TargetScope:   config.ScopePreferences,
			TargetVersion: config.CurrentVersion,
			Detect: func(info LegacyInfo) bool {
				_, ok := probeFlatJSON(info.Path)
				return ok
			},
			Migrate: func(info LegacyInfo, now time.Time) (config.Document, []string, error) {
				data, err := fsutil.Read(info.Path)
				if err != nil {
					return nil, nil, err
				}
				var raw map[string]any
				if err := json.Unmarshal(data, &raw); err != nil {
					return nil, nil, fmt.Errorf("parsing legacy JSON: %w", err)
				}
				return flatToPreferences(raw, now)
			},
		},
		{
			Name:          "flat-yaml-to-preferences",
			Description:   "convert the YAML rendition of the flat config into a sectioned preferences document",
			Source:        KindYAML,
			TargetScope:   config.ScopePreferences,
			TargetVersion: config.CurrentVersion,
			Detect: func(info LegacyInfo) bool {
				_, ok := probeYAML(info.Path)
				return ok
			},
			Migrate: func(info LegacyInfo, now time.Time) (config.Document, []string, error) {
				data, err := fsutil.Read(info.Path)
				if err != nil {
					return nil, nil, err
				}
				var raw map[string]any
				if err := yaml.Unmarshal(data, &raw); err != nil {
					return nil, nil, fmt.Errorf("parsing legacy YAML: %w", err)
				}
				return flatToPreferences(raw, now)
			},
		},
		{
			Name:          "preferences-v0-to-v1",
			Description:   "lift a 0.x preferences file into the 1.0 sectioned layout",
			Source:        KindPrefsV0,
			TargetScope:   config.ScopePreferences,
			TargetVersion: config.CurrentVersion,
			Detect: func(info LegacyInfo) bool {
				_, ok := probePrefsV0(info.Path)
				return ok
			},
			Migrate: func(info LegacyInfo, now time.Time) (config.Document, []string, error) {
				data, err := fsutil.Read(info.Path)
				if err != nil {
					return nil, nil, err
				}
				var raw map[string]any
				if err := toml.Unmarshal(data, &raw); err != nil {
					return nil, nil, fmt.Errorf("parsing v0 preferences: %w", err)
				}
				return v0ToPreferences(raw, now)
			},
		},
	}
}

// legacyToolNames maps every historical tool identifier to the current one.
var legacyToolNames = map[string]string{
	"claude":      "claude-code",
	"claude-code": "claude-code",
	"claudeCode":  "claude-code",
	"codex":       "codex",
}

// flatToPreferences lifts the flat {preferredLang, codeToolType, ...} shape
// into a fully-defaulted current preferences document. Every field the
// current schema requires is populated; anything the legacy file lacked
// comes from the scope defaults.
func flatToPreferences(raw map[string]any, now time.Time) (config.Document, []string, error) {
	lang, _ := raw["preferredLang"].(string)
	doc := config.DefaultPreferences(lang, config.InstallGlobal, now)
	migrated := map[string]bool{}
	if lang != "" {
		migrated["general.preferredLang"] = true
	}

	general, _ := doc.Section("general")

	if v, ok := raw["templateLang"].(string); ok && v != "" {
		general["templateLang"] = v
		migrated["general.templateLang"] = true
	}
	if v, ok := raw["aiOutputLang"].(string); ok && v != "" {
		general["aiOutputLang"] = v
		migrated["general.aiOutputLang"] = true
	}

	if legacy, ok := raw["codeToolType"].(string); ok && legacy != "" {
		tool, known := legacyToolNames[legacy]
		if !known {
			return nil, nil, fmt.Errorf("unknown legacy tool type %q", legacy)
		}
		general["currentTool"] = tool
		migrated["general.currentTool"] = true

		tools, _ := doc.Section("tools")
		key := toolSectionKey(tool)
		entry, _ := tools[key].(map[string]any)
		if entry == nil {
			entry = map[string]any{}
			tools[key] = entry
		}
		entry["enabled"] = true
		migrated["tools."+key+".enabled"] = true
	}

	if v, ok := toNumber(raw["apiTimeout"]); ok {
		api, _ := doc.Section("api")
		api["timeout"] = v
		migrated["api.timeout"] = true
	}

	return doc, sortedPaths(migrated), nil
}

// v0ToPreferences lifts the 0.x sectioned-less TOML shape, which used the
// short keys lang / templateLang / tool at the top level.
func v0ToPreferences(raw map[string]any, now time.Time) (config.Document, []string, error) {
	lang, _ := raw["lang"].(string)
	doc := config.DefaultPreferences(lang, config.InstallGlobal, now)
	migrated := map[string]bool{}
	if lang != "" {
		migrated["general.preferredLang"] = true
	}

	general, _ := doc.Section("general")
	if v, ok := raw["templateLang"].(string); ok && v != "" {
		general["templateLang"] = v
		migrated["general.templateLang"] = true
	}

	if legacy, ok := raw["tool"].(string); ok && legacy != "" {
		tool, known := legacyToolNames[legacy]
		if !known {
			return nil, nil, fmt.Errorf("unknown legacy tool %q", legacy)
		}
		general["currentTool"] = tool
		migrated["general.currentTool"] = true

		tools, _ := doc.Section("tools")
		key := toolSectionKey(tool)
		entry, _ := tools[key].(map[string]any)
		if entry == nil {
			entry = map[string]any{}
			tools[key] = entry
		}
		entry["enabled"] = true
		migrated["tools."+key+".enabled"] = true
	}

	return doc, sortedPaths(migrated), nil
}

func toolSectionKey(tool string) string {
	if tool == "claude-code" {
		return "claudeCode"
	}
	return tool
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func sortedPaths(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
