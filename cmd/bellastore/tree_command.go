package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the content store as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runOptions{}, func(_ context.Context, rt *runtime) error {
				tree, err := rt.store.Tree()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), tree)
				return nil
			})
		},
	}
}
