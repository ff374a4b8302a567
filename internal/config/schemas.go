package config

import "github.com/ccjk/ccjk/internal/schema"

// Schema trees for the three scopes. These are the single structural
// contract: the validator, the path walker and the CLI key listing all
// derive from them.

// PreferencesSchema describes the preferences scope document.
func PreferencesSchema() *schema.Field {
	return schema.Object(map[string]*schema.Field{
		"version": schema.RequiredString(),
		"lastUpdated": {
			Types:  []schema.Type{schema.TypeString},
			Format: schema.FormatDateTime,
		},
		"general": {
			Types:    []schema.Type{schema.TypeObject},
			Required: true,
			Properties: map[string]*schema.Field{
				"preferredLang": {
					Types:    []schema.Type{schema.TypeString},
					Required: true,
					Enum:     SupportedLanguages,
				},
				"templateLang": schema.StringEnum(SupportedLanguages...),
				"aiOutputLang": schema.String(),
				"currentTool":  schema.StringEnum(SupportedTools...),
			},
		},
		"tools": schema.Object(map[string]*schema.Field{
			"claudeCode": toolSchema(),
			"codex":      toolSchema(),
		}),
		"api": schema.Object(map[string]*schema.Field{
			"url": {
				Types:  []schema.Type{schema.TypeString},
				Format: schema.FormatURL,
			},
			"keyName": schema.String(),
			"timeout": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(0),
				Max:   schema.FloatPtr(600000),
			},
		}),
		"features": schema.Object(map[string]*schema.Field{
			"autoUpdate": schema.Bool(),
			"telemetry":  schema.Bool(),
			"checkIntervalHours": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(1),
				Max:   schema.FloatPtr(720),
			},
		}),
	})
}

func toolSchema() *schema.Field {
	return schema.Object(map[string]*schema.Field{
		"enabled":     schema.Bool(),
		"installType": schema.StringEnum("global", "local"),
		"configDir":   schema.String(),
		"outputStyle": schema.String(),
		"version":     schema.String(),
	})
}

// SettingsSchema describes the wrapped tool's native settings document.
// The document is owned by the external tool, so unknown keys are only
// warnings at every level.
func SettingsSchema() *schema.Field {
	return schema.Object(map[string]*schema.Field{
		"model": schema.String(),
		"env": schema.Object(map[string]*schema.Field{
			"ANTHROPIC_API_KEY": {
				Types:  []schema.Type{schema.TypeString},
				Format: schema.FormatAPIKey,
			},
			"ANTHROPIC_BASE_URL": {
				Types:  []schema.Type{schema.TypeString},
				Format: schema.FormatURL,
			},
			"MCP_TIMEOUT": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(0),
				Max:   schema.FloatPtr(3600000),
			},
			"MCP_TOOL_TIMEOUT": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(0),
				Max:   schema.FloatPtr(3600000),
			},
		}),
		"permissions": schema.Object(map[string]*schema.Field{
			"allow": schema.Array(schema.String()),
			"deny":  schema.Array(schema.String()),
		}),
		"outputStyle": schema.String(),
	})
}

// StateSchema describes the runtime-state scope document.
func StateSchema() *schema.Field {
	return schema.Object(map[string]*schema.Field{
		"version": schema.RequiredString(),
		"lastUpdated": {
			Types:  []schema.Type{schema.TypeString},
			Format: schema.FormatDateTime,
		},
		"sessions": schema.Array(schema.Object(map[string]*schema.Field{
			"id":   schema.RequiredString(),
			"tool": schema.StringEnum(SupportedTools...),
			"startedAt": {
				Types:  []schema.Type{schema.TypeString},
				Format: schema.FormatDateTime,
			},
			"cwd": schema.String(),
		})),
		"cache": schema.Object(map[string]*schema.Field{
			"lastCleanup": {
				Types:  []schema.Type{schema.TypeString, schema.TypeNull},
				Format: schema.FormatDateTime,
			},
			"size": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(0),
			},
			"maxAge": {
				Types: []schema.Type{schema.TypeNumber},
				Min:   schema.FloatPtr(0),
			},
		}),
		"updates": schema.Object(map[string]*schema.Field{
			"lastCheck": {
				Types:  []schema.Type{schema.TypeString, schema.TypeNull},
				Format: schema.FormatDateTime,
			},
			"lastVersion":     schema.String(),
			"currentVersion":  schema.String(),
			"updateAvailable": schema.Bool(),
		}),
	})
}

// SchemaFor maps a concrete scope to its schema tree.
func SchemaFor(scope Scope) *schema.Field {
	switch scope {
	case ScopePreferences:
		return PreferencesSchema()
	case ScopeSettings:
		return SettingsSchema()
	case ScopeState:
		return StateSchema()
	}
	return nil
}
