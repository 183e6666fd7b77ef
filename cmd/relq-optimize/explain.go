package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/optimizer"
	"github.com/relq/optimizer/relqobserve"
)

func newListScenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-scenarios",
		Short: "List the built-in demo scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.name, s.description)
			}
			return nil
		},
	}
}

func newExplainCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "explain <scenario>",
		Short: "Run a demo scenario through the optimizer and print before/after",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := findScenario(args[0])
			if s == nil {
				return fmt.Errorf("unknown scenario %q (see list-scenarios)", args[0])
			}

			q, md := s.build()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "-- before --")
			fmt.Fprintln(out, q.Pretty())

			opts := optimizer.Options{}
			if verbose {
				opts.Tracer = relqobserve.NewColorTracer(os.Stderr)
			}

			result, err := optimizer.New(md, opts).Optimize(q)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "-- after --")
			fmt.Fprintln(out, result.Pretty())
			fmt.Fprintln(out, "-- ranges --")
			fmt.Fprintln(out, rangesTable(result))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace each pipeline phase to stderr")
	return cmd
}

// rangesTable renders a markdown table of the final range list, flagging
// the anchor.
func rangesTable(q *ast.Retrieve) string {
	var b strings.Builder
	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"name", "entity", "join kind", "anchor", "predicate"})

	for _, r := range q.Ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok {
			table.Append([]string{r.RangeName(), "(json)", "-", "no", "-"})
			continue
		}
		joinKind := "LEFT"
		if dr.Required {
			joinKind = "INNER"
		}
		anchor := "no"
		pred := "-"
		if dr.IsAnchor() {
			anchor = "yes"
		} else {
			pred = dr.Join.String()
		}
		table.Append([]string{dr.Name, dr.Entity, joinKind, anchor, pred})
	}

	table.Render()
	return b.String()
}
