package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccjk/ccjk/internal/migrate"
)

var (
	migrateDryRun   bool
	migrateNoBackup bool
	migrateForce    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate legacy configuration files into the current formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		res := svc.Migrate(migrate.Options{
			Backup: !migrateNoBackup,
			DryRun: migrateDryRun,
			Force:  migrateForce,
		})

		if res.BackupDir != "" {
			cmd.Printf("backup: %s\n", res.BackupDir)
		}
		for _, m := range res.Migrated {
			cmd.Printf("migrated %s -> %s (%s)\n", m.LegacyPath, m.Scope, m.Step)
			for _, p := range m.MigratedPaths {
				cmd.Printf("  %s\n", p)
			}
		}
		if len(res.Migrated) == 0 && res.Success {
			cmd.Println("nothing to migrate")
		}
		if !res.Success {
			return errors.New("migration finished with errors: " + strings.Join(res.Errors, "; "))
		}
		return nil
	},
}

var migrateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether any legacy configuration awaits migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		if svc.NeedsMigration() {
			cmd.Println("migration needed")
			return nil
		}
		cmd.Println("up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false,
		"detect and transform without writing anything")
	migrateCmd.Flags().BoolVar(&migrateNoBackup, "no-backup", false,
		"skip the pre-migration backup (not recommended)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false,
		"run even when no legacy configuration is detected")
	migrateCmd.AddCommand(migrateCheckCmd)
	rootCmd.AddCommand(migrateCmd)
}
