package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relq-optimize",
		Short: "Query-plan optimizer demo harness",
		Long: `relq-optimize builds sample retrieve trees directly from the ast
package (parsing is out of scope for the optimizer core) and runs them
through the full rewrite pipeline, printing before/after.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newExplainCommand(), newListScenariosCommand())
	return cmd
}
