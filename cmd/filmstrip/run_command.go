package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"filmstrip/internal/batch"
	"filmstrip/internal/discovery"
	"filmstrip/internal/logging"
	"filmstrip/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides
	var once bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Claim batches of items and generate their artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := newPipeline(runCtx, ctx, overrides)
			if err != nil {
				return err
			}

			// One worker per scratch root; a second instance on the
			// same machine would fight over scratch directories.
			lock := flock.New(filepath.Join(p.cfg.Paths.ScratchDir, "filmstrip.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire scratch lock: %w", err)
			}
			if !locked {
				return errors.New("another filmstrip instance is already running against this scratch directory")
			}
			defer lock.Unlock()

			if !skipPreflight {
				results := preflight.RunAll(runCtx, p.cfg, p.store)
				if !preflight.AllPassed(results) {
					fmt.Fprintln(cmd.ErrOrStderr(), renderPreflight(results))
					return errors.New("preflight checks failed")
				}
			}

			return runLoop(runCtx, cmd, p, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Process a single batch and exit")
	cmd.Flags().BoolVar(&overrides.DryRun, "dry-run", false, "Log mutations and extractions instead of performing them")
	cmd.Flags().StringVar(&overrides.Filemask, "filemask", "", "Only process files whose basename matches this glob")
	cmd.Flags().IntVar(&overrides.BatchSize, "batch-size", 0, "Items per discovered batch (overrides config)")
	cmd.Flags().IntVar(&overrides.Workers, "workers", 0, "Concurrent items per batch (overrides config)")
	cmd.Flags().BoolVar(&overrides.ForceVAAPI, "vaapi", false, "Force hardware-accelerated transcoding")
	cmd.Flags().BoolVar(&overrides.DisableVAAPI, "no-vaapi", false, "Force software transcoding")
	cmd.Flags().BoolVar(&overrides.DisableSprite, "no-sprite", false, "Skip sprite sheet generation")
	cmd.Flags().BoolVar(&overrides.DisablePreview, "no-preview", false, "Skip preview video generation")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup checks")
	cmd.MarkFlagsMutuallyExclusive("vaapi", "no-vaapi")

	return cmd
}

// runLoop discovers and processes batches until stopped. Empty
// discoveries and catalog outages wait out the inter-batch pause rather
// than exiting; the loop only ends on shutdown or --once.
func runLoop(ctx context.Context, cmd *cobra.Command, p *pipeline, once bool) error {
	log := logging.WithComponent(p.logger, "run")
	filter := workFilter(p.cfg)
	out := cmd.OutOrStdout()

	for {
		b, err := p.coordinator.Discover(ctx, filter, p.filemask)
		if err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			log.Error("discovery failed", logging.Error(err))
			if once {
				return err
			}
			if !pause(ctx, p.pause) {
				return context.Canceled
			}
			continue
		}
		if b.Empty() {
			if b.TotalRemaining > 0 {
				log.Info("filemask matched nothing in the selected page",
					logging.Int("remaining", b.TotalRemaining))
			} else {
				log.Info("no items awaiting processing")
			}
			if once {
				return nil
			}
			if !pause(ctx, p.pause) {
				return context.Canceled
			}
			continue
		}

		log.Info("processing batch",
			logging.Int("items", len(b.Items)),
			logging.Int("remaining", b.TotalRemaining),
		)
		stats := runBatch(ctx, p, b)
		fmt.Fprintln(out, batch.RenderSummary(stats.Snapshot()))

		if once {
			return nil
		}
		if ctx.Err() != nil {
			return context.Canceled
		}
		if !pause(ctx, p.pause) {
			return context.Canceled
		}
	}
}

// runBatch runs one orchestration, with a progress bar when attached to
// a terminal.
func runBatch(ctx context.Context, p *pipeline, b discovery.Batch) *batch.Stats {
	orch := p.newOrchestrator()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar := progressbar.NewOptions(len(b.Items),
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		orch = orch.WithObserver(func(done, total int) {
			_ = bar.Set(done)
		})
		defer bar.Finish()
	}
	return orch.Run(ctx, b)
}

// pause sleeps the inter-batch interval, reporting false when shutdown
// arrives first.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
