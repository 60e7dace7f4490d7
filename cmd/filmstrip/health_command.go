package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"filmstrip/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check catalog connectivity, tools, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.newCatalog(false, logger)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, store)
			fmt.Fprintln(cmd.OutOrStdout(), renderPreflight(results))
			if !preflight.AllPassed(results) {
				return errors.New("one or more health checks failed")
			}
			return nil
		},
	}
}

func renderPreflight(results []preflight.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, r := range results {
		status := "fail"
		if r.Passed {
			status = "ok"
		}
		tw.AppendRow(table.Row{r.Name, status, r.Detail})
	}
	return tw.Render()
}
