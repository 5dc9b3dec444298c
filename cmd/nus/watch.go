package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsCurator/internal/app"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Repeat independent runs on scheduler.interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
				opts.cfg.Scheduler.Interval = interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Watch(ctx)
		},
	}

	cmd.Flags().Duration("interval", 0, "override scheduler.interval")
	return cmd
}
