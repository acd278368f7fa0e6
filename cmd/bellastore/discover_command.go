package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bellastore/internal/reconcile"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find store content that is missing from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runOptions{exclusive: write}, func(runCtx context.Context, rt *runtime) error {
				out := cmd.OutOrStdout()
				rec := reconcile.New(rt.catalog, rt.store, rt.formats, rt.cfg.Ingest.Workers, rt.logger)
				found, err := rec.ExistingSlides(runCtx)
				if err != nil {
					var integrity *reconcile.IntegrityError
					if errors.As(err, &integrity) {
						printIntegrityReport(out, reconcile.Report{Violations: integrity.Violations}, shouldColorize(out))
					}
					return err
				}

				rows := make([][]string, 0, len(found))
				for _, s := range found {
					rows = append(rows, []string{s.ContentHash, s.Filename, s.Format()})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Hash", "File", "Format"}, rows, nil))
				}
				if !write {
					fmt.Fprintf(out, "%d uncataloged scans found\n", len(found))
					return nil
				}

				written, err := rt.catalog.Write(runCtx, found)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d uncataloged scans found, %d written to the catalog\n", len(found), len(written))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write the discovered scans to the catalog")
	return cmd
}
