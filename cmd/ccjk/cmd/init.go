package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccjk/ccjk/internal/config"
)

var (
	initLang  string
	initTool  string
	initLocal bool
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create fresh configuration documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		existing, err := svc.Read(config.ScopePreferences)
		if err != nil {
			return err
		}
		if existing != nil && !initForce {
			return fmt.Errorf("preferences already exist at %s (use --force to reset)", svc.Paths().Preferences())
		}
		if existing != nil {
			// Forced re-initialization is destructive, so back up first.
			backups, err := svc.BackupAll()
			if err != nil {
				return err
			}
			for scope, path := range backups {
				cmd.Printf("backed up %s to %s\n", scope, path)
			}
		}

		mode := config.InstallGlobal
		if initLocal {
			mode = config.InstallLocal
		}
		doc := config.DefaultPreferences(initLang, mode, time.Now())
		if initTool != "" {
			general, _ := doc.Section("general")
			general["currentTool"] = initTool
			tools, _ := doc.Section("tools")
			if entry, ok := tools[toolSection(initTool)].(map[string]any); ok {
				entry["enabled"] = true
			}
		}
		if err := svc.Write(config.ScopePreferences, doc); err != nil {
			return err
		}

		if err := svc.Write(config.ScopeState, config.DefaultState(appVersion, time.Now())); err != nil {
			return err
		}

		cmd.Printf("initialized %s\n", svc.Paths().RootDir)
		return nil
	},
}

func toolSection(tool string) string {
	if tool == "claude-code" {
		return "claudeCode"
	}
	return tool
}

func init() {
	initCmd.Flags().StringVar(&initLang, "lang", "en", "preferred language")
	initCmd.Flags().StringVar(&initTool, "tool", "", "wrapped tool to select (claude-code, codex)")
	initCmd.Flags().BoolVar(&initLocal, "local", false, "record a local install instead of global")
	initCmd.Flags().BoolVar(&initForce, "force", false, "reset existing configuration (backs up first)")
	rootCmd.AddCommand(initCmd)
}
