package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/schema"
)

var configScope string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print one configuration value by dot-path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		scope, err := config.ParseScope(configScope)
		if err != nil {
			return err
		}
		value, err := svc.Get(scope, args[0])
		if err != nil {
			return withKeySuggestion(svc, scope, args[0], err)
		}
		out, err := json.Marshal(value)
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set one configuration value by dot-path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		scope, err := config.ParseScope(configScope)
		if err != nil {
			return err
		}
		if err := svc.Set(scope, args[0], parseLiteral(args[1])); err != nil {
			return withKeySuggestion(svc, scope, args[0], err)
		}
		cmd.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every declared configuration key for the scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		scope, err := config.ParseScope(configScope)
		if err != nil {
			return err
		}
		m, err := svc.Manager(scope)
		if err != nil {
			return err
		}
		doc, err := svc.RedactedView(scope)
		if err != nil {
			return err
		}
		for _, key := range schema.Keys(m.Schema()) {
			value, _, getErr := schema.Resolve(m.Schema(), map[string]any(doc), key)
			if getErr != nil {
				cmd.Printf("%s = (unset)\n", key)
				continue
			}
			out, _ := json.Marshal(value)
			cmd.Printf("%s = %s\n", key, string(out))
		}
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the on-disk documents against their schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		scope, err := config.ParseScope(configScope)
		if err != nil {
			return err
		}
		if err := svc.Validate(scope); err != nil {
			return err
		}
		cmd.Println("ok")
		return nil
	},
}

func init() {
	configCmd.PersistentFlags().StringVar(&configScope, "scope", string(config.ScopePreferences),
		"configuration scope (preferences, native-settings, runtime-state, all)")
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

// withKeySuggestion decorates an unknown-key error with the closest
// declared paths.
func withKeySuggestion(svc serviceWithManager, scope config.Scope, path string, err error) error {
	var pathErr *schema.PathError
	if !errors.As(err, &pathErr) {
		return err
	}
	m, mErr := svc.Manager(scope)
	if mErr != nil {
		return err
	}
	matches := fuzzy.Find(path, schema.Keys(m.Schema()))
	if len(matches) == 0 {
		return err
	}
	limit := len(matches)
	if limit > 3 {
		limit = 3
	}
	suggestions := make([]string, 0, limit)
	for _, match := range matches[:limit] {
		suggestions = append(suggestions, match.Str)
	}
	return fmt.Errorf("%w (did you mean %v?)", err, suggestions)
}

type serviceWithManager interface {
	Manager(scope config.Scope) (*config.Manager, error)
}

// parseLiteral interprets a CLI argument as JSON scalar when possible and
// falls back to a plain string.
func parseLiteral(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
