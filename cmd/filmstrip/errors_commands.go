package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filmstrip/internal/batch"
	"filmstrip/internal/catalog"
	"filmstrip/internal/discovery"
	"filmstrip/internal/logging"
)

func newErrorsCommand(ctx *commandContext) *cobra.Command {
	errorsCmd := &cobra.Command{
		Use:   "errors",
		Short: "Inspect and retry items that failed processing",
	}

	errorsCmd.AddCommand(newErrorsRetryCommand(ctx))
	errorsCmd.AddCommand(newErrorsClearCommand(ctx))

	return errorsCmd
}

func newErrorsRetryCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Clear error tags and reprocess the failed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := newPipeline(runCtx, ctx, overrides)
			if err != nil {
				return err
			}
			log := logging.WithComponent(p.logger, "errors")

			items, err := findErrorItems(runCtx, p)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items carry error tags.")
				return nil
			}
			log.Info("retrying failed items", logging.Int("items", len(items)))

			if err := clearErrorTags(runCtx, p, items); err != nil {
				return err
			}

			stats := runBatch(runCtx, p, discovery.Batch{Items: items, TotalRemaining: len(items)})
			fmt.Fprintln(cmd.OutOrStdout(), batch.RenderSummary(stats.Snapshot()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overrides.DryRun, "dry-run", false, "Log mutations and extractions instead of performing them")
	cmd.Flags().IntVar(&overrides.Workers, "workers", 0, "Concurrent items (overrides config)")
	cmd.Flags().BoolVar(&overrides.ForceVAAPI, "vaapi", false, "Force hardware-accelerated transcoding")
	cmd.Flags().BoolVar(&overrides.DisableVAAPI, "no-vaapi", false, "Force software transcoding")
	cmd.MarkFlagsMutuallyExclusive("vaapi", "no-vaapi")

	return cmd
}

func newErrorsClearCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Strip error tags from all items without reprocessing",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context(), ctx, runOverrides{DryRun: dryRun})
			if err != nil {
				return err
			}

			items, err := findErrorItems(cmd.Context(), p)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items carry error tags.")
				return nil
			}
			if err := clearErrorTags(cmd.Context(), p, items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared error tags from %d items.\n", len(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log tag removals instead of performing them")
	return cmd
}

func findErrorItems(ctx context.Context, p *pipeline) ([]catalog.Item, error) {
	return p.store.FindItems(ctx, catalog.Filter{
		IncludeTagIDs: []int64{
			p.cfg.Catalog.HashErrorTagID,
			p.cfg.Catalog.CoverErrorTagID,
		},
	}, catalog.AllItems)
}

// clearErrorTags removes both error tags from each item. Removal of a
// tag the item does not carry is a no-op on the catalog side.
func clearErrorTags(ctx context.Context, p *pipeline, items []catalog.Item) error {
	for _, item := range items {
		for _, tagID := range []int64{p.cfg.Catalog.HashErrorTagID, p.cfg.Catalog.CoverErrorTagID} {
			if err := p.store.RemoveTag(ctx, item.ID, tagID); err != nil {
				return fmt.Errorf("clear error tag on item %s: %w", item.ID, err)
			}
		}
	}
	return nil
}
