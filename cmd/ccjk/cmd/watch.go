package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccjk/ccjk/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch every scope file and print changes as they land",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return svc.WatchAll(ctx, func(ev watch.Event) {
			cmd.Printf("%s %s: %v -> %v\n",
				ev.Timestamp.Format("15:04:05"), ev.Path, ev.OldValue, ev.NewValue)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
