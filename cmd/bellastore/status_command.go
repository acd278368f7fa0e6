package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bellastore/internal/backup"
	"bellastore/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show directory health, catalog size and backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runOptions{}, func(runCtx context.Context, rt *runtime) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				writeLines(out, renderSectionHeader("Directories", colorize))
				for _, r := range preflight.RunAll(rt.cfg) {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out)

				counts, err := rt.catalog.Counts(runCtx)
				if err != nil {
					return err
				}
				usage, err := rt.store.Usage()
				if err != nil {
					return err
				}
				writeLines(out, renderSectionHeader("Catalog", colorize))
				fmt.Fprintln(out, renderStatusLine("Catalog file", statusInfo, rt.catalog.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("Formats", statusInfo, strings.Join(rt.formats.Extensions(), " "), colorize))
				fmt.Fprintln(out, renderStatusLine("Ingress events", statusInfo,
					fmt.Sprintf("%s (%s distinct hashes)", humanize.Comma(int64(counts.IngressRows)), humanize.Comma(int64(counts.IngressHashes))), colorize))
				fmt.Fprintln(out, renderStatusLine("Stored scans", statusInfo, humanize.Comma(int64(counts.StorageRecords)), colorize))
				storeKind := statusOK
				if usage.Directories != counts.StorageRecords {
					storeKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Store directories", storeKind,
					fmt.Sprintf("%d (%d files, %s)", usage.Directories, usage.Files, humanize.Bytes(uint64(usage.Bytes))), colorize))
				fmt.Fprintln(out)

				backups, err := backup.List(rt.cfg.BackupDir())
				if err != nil {
					return err
				}
				writeLines(out, renderSectionHeader("Backups", colorize))
				if len(backups) == 0 {
					fmt.Fprintln(out, renderStatusLine("Backups", statusWarn, "none", colorize))
					return nil
				}
				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					rows = append(rows, []string{
						b.Name,
						humanize.Bytes(uint64(b.Size)),
						humanize.RelTime(b.ModTime, time.Now(), "ago", "from now"),
						yesNo(b.Compressed),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Backup", "Size", "Age", "Compressed"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
