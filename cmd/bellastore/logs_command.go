package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bellastore/internal/logging"
	"bellastore/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the bellastore log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.LogFilePath(cfg.Paths.LogDir)
			out := cmd.OutOrStdout()

			last, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range last {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			followCtx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = logs.Follow(followCtx, path, offset, 250*time.Millisecond, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only lines from this run ID")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only lines from this component (ingest, reconcile, backup, ...)")
	return cmd
}
