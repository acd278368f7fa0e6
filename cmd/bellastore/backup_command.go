package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bellastore/internal/backup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var maxBackups int
	var compress bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped catalog backup and rotate old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runOptions{}, func(runCtx context.Context, rt *runtime) error {
				keep := rt.cfg.Backup.MaxBackups
				if cmd.Flags().Changed("max") {
					keep = maxBackups
				}
				res, err := backup.Create(runCtx, backup.Options{
					Catalog:    rt.catalog,
					BackupDir:  rt.cfg.BackupDir(),
					MaxBackups: keep,
					Compress:   compress || rt.cfg.Backup.Compress,
					Logger:     rt.logger,
				})
				out := cmd.OutOrStdout()
				if res.Path != "" {
					fmt.Fprintf(out, "Backup written to %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Size)))
				}
				for _, p := range res.Pruned {
					fmt.Fprintf(out, "Removed old backup %s\n", p)
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&maxBackups, "max", 0, "Number of backups to keep (0 keeps all; default from config)")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress the backup with zstd")
	return cmd
}
