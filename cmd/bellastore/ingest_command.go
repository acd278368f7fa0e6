package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bellastore/internal/ingest"
	"bellastore/internal/reconcile"
	"bellastore/internal/staging"
)

var errIngestFailures = errors.New("some scans failed to ingest")

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var move bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "List or ingest the scans waiting in the staging directory",
		Long: "Without --move, print the valid candidate scans under the staging directory.\n" +
			"With --move, hash them, move new content into the store, record provenance,\n" +
			"prune emptied staging directories and run an integrity check.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runOptions{exclusive: move, readOnly: !move}
			return ctx.withRuntime(cmd, opts, func(runCtx context.Context, rt *runtime) error {
				ingestOpts := ingest.Options{
					Store:      rt.store,
					Formats:    rt.formats,
					Workers:    rt.cfg.Ingest.Workers,
					StagingDir: rt.cfg.Paths.StagingDir,
					Prune:      rt.cfg.Ingest.PruneEmptyDirs,
					Exclude:    []string{rt.cfg.StorageDir(), rt.cfg.BackupDir()},
					Logger:     rt.logger,
				}
				out := cmd.OutOrStdout()
				if !move {
					found, err := ingest.New(ingestOpts).DryRun(runCtx)
					if err != nil {
						return err
					}
					printCandidates(out, found)
					return nil
				}

				ingestOpts.Catalog = rt.catalog
				orch := ingest.New(ingestOpts)
				summary, err := orch.InsertFromStaging(runCtx)
				printIngestSummary(out, summary)
				if err != nil {
					return err
				}

				rec := reconcile.New(rt.catalog, rt.store, rt.formats, rt.cfg.Ingest.Workers, rt.logger)
				report, err := rec.CheckIntegrity(runCtx, reconcile.Options{Repair: true})
				if err != nil {
					return err
				}
				printIntegrityReport(out, report, shouldColorize(out))
				if !report.Passed() {
					return errIntegrityFailed
				}
				if len(summary.Failures()) > 0 {
					return errIngestFailures
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "Move candidates into the store instead of listing them")
	return cmd
}

func printCandidates(out io.Writer, found staging.Discovery) {
	for _, p := range found.Valid {
		fmt.Fprintln(out, p)
	}
	parts := make([]string, 0, len(found.ByFormat))
	for _, f := range found.Formats() {
		parts = append(parts, fmt.Sprintf("%s: %d", f, found.ByFormat[f]))
	}
	fmt.Fprintf(out, "%d candidate scans", len(found.Valid))
	if len(parts) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintf(out, ", %d other files ignored\n", found.Ignored)
}

func printIngestSummary(out io.Writer, summary ingest.Summary) {
	rows := [][]string{
		{"Stored", fmt.Sprintf("%d", summary.Count(ingest.OutcomeStored)), humanize.Bytes(uint64(summary.BytesStored()))},
		{"Deduplicated", fmt.Sprintf("%d", summary.Count(ingest.OutcomeDeduplicated)), ""},
		{"Already ingested", fmt.Sprintf("%d", summary.Count(ingest.OutcomeAlreadyIngested)), ""},
		{"Skipped", fmt.Sprintf("%d", summary.Count(ingest.OutcomeSkipped)), ""},
		{"Failed", fmt.Sprintf("%d", summary.Count(ingest.OutcomeFailed)), ""},
		{"Directories pruned", fmt.Sprintf("%d", len(summary.Pruned)), ""},
	}
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Scans", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))

	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}
	failRows := make([][]string, 0, len(failures))
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		failRows = append(failRows, []string{f.Source, msg})
	}
	fmt.Fprintln(out, renderTable([]string{"Failed scan", "Error"}, failRows, nil))
}
