package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bellastore/internal/reconcile"
)

var errIntegrityFailed = errors.New("integrity check failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var withCatalog bool
	var noRepair bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every store directory against its content",
		RunE: func(cmd *cobra.Command, args []string) error {
			repair := !noRepair
			return ctx.withRuntime(cmd, runOptions{exclusive: repair}, func(runCtx context.Context, rt *runtime) error {
				rec := reconcile.New(rt.catalog, rt.store, rt.formats, rt.cfg.Ingest.Workers, rt.logger)
				report, err := rec.CheckIntegrity(runCtx, reconcile.Options{CheckCatalog: withCatalog, Repair: repair})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printIntegrityReport(out, report, shouldColorize(out))
				if !report.Passed() {
					return errIntegrityFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "Also cross-check directories against the catalog")
	cmd.Flags().BoolVar(&noRepair, "no-repair", false, "Report stale directory names instead of renaming them")
	return cmd
}

func printIntegrityReport(out io.Writer, report reconcile.Report, colorize bool) {
	for _, rn := range report.Renamed {
		fmt.Fprintln(out, renderStatusLine("Renamed", statusWarn, fmt.Sprintf("%s -> %s", rn.From, rn.To), colorize))
	}
	if report.Passed() {
		fmt.Fprintln(out, renderStatusLine("Integrity", statusOK, fmt.Sprintf("%d directories verified", report.Directories), colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Integrity", statusError,
		fmt.Sprintf("%d violations in %d directories", len(report.Violations), report.Directories), colorize))
	rows := make([][]string, 0, len(report.Violations))
	for _, v := range report.Violations {
		rows = append(rows, []string{string(v.Kind), v.Dir, v.Hash, v.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Directory", "Hash", "Detail"}, rows, nil))
}
