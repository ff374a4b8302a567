package cmd

import (
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/fsutil"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the configuration platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		paths := svc.Paths()

		for _, scope := range config.Scopes() {
			path, err := paths.ForScope(scope)
			if err != nil {
				return err
			}
			switch {
			case !fsutil.Exists(path):
				cmd.Printf("%-16s missing (defaults apply)  %s\n", scope, path)
			case svc.Validate(scope) != nil:
				cmd.Printf("%-16s INVALID                   %s\n", scope, path)
			default:
				cmd.Printf("%-16s ok                        %s\n", scope, path)
			}
		}

		if svc.NeedsMigration() {
			cmd.Println(translator.T("legacy configuration detected: run `ccjk {cmd}`",
				map[string]string{"cmd": "migrate"}))
		}

		if usage, err := disk.Usage(paths.RootDir); err == nil {
			cmd.Printf("disk: %.1f%% used, %d MB free on config volume\n",
				usage.UsedPercent, usage.Free/1024/1024)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
