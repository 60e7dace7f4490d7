// Package batch runs the bounded worker pool over one discovered batch
// of items. Each item gets its own deadline; a pipeline that never
// returns costs the batch one timeout, not the whole run. Shutdown is
// cooperative: dispatch stops, in-flight items are cancelled, and their
// claim release still runs.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"filmstrip/internal/catalog"
	"filmstrip/internal/discovery"
	"filmstrip/internal/logging"
	"filmstrip/internal/processor"
)

// ProcessFunc runs the per-item pipeline. The context carries the
// per-item deadline; implementations run every external command under
// it so a timeout kills in-flight subprocesses.
type ProcessFunc func(ctx context.Context, item catalog.Item) processor.Outcome

// Orchestrator owns the batch worker pool.
type Orchestrator struct {
	process     ProcessFunc
	logger      *slog.Logger
	concurrency int
	itemTimeout time.Duration

	// observe is called after each recorded item, for progress
	// reporting. Nil means no reporting.
	observe func(done, total int)
}

// New constructs an Orchestrator running up to concurrency items at
// once, each bounded by itemTimeout.
func New(process ProcessFunc, logger *slog.Logger, concurrency int, itemTimeout time.Duration) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		process:     process,
		logger:      logging.WithComponent(logger, "batch"),
		concurrency: concurrency,
		itemTimeout: itemTimeout,
	}
}

// WithObserver registers a progress callback invoked after every item.
func (o *Orchestrator) WithObserver(observe func(done, total int)) *Orchestrator {
	o.observe = observe
	return o
}

// Run processes the batch and returns its statistics. Cancellation of
// ctx stops dispatching new items; items already running finish or are
// abandoned at their own deadline.
func (o *Orchestrator) Run(ctx context.Context, b discovery.Batch) *Stats {
	stats := NewStats()
	if b.Empty() {
		return stats
	}

	total := len(b.Items)
	jobs := make(chan catalog.Item)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.runWorkers(ctx, jobs, stats, total)
	}()

dispatch:
	for _, item := range b.Items {
		select {
		case jobs <- item:
		case <-ctx.Done():
			o.logger.Info("shutdown requested, stopping dispatch",
				logging.Int("dispatched", stats.Total()))
			break dispatch
		}
	}
	close(jobs)
	<-done

	stats.Finish()
	return stats
}

func (o *Orchestrator) runWorkers(ctx context.Context, jobs <-chan catalog.Item, stats *Stats, total int) {
	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				o.runItem(ctx, item, stats)
				if o.observe != nil {
					o.observe(stats.Total(), total)
				}
			}
		}()
	}
	wg.Wait()
}

// runItem executes one pipeline under the per-item deadline. The worker
// is freed the moment the deadline fires even if the pipeline ignores
// cancellation; the abandoned goroutine's subprocesses die with the
// cancelled context.
func (o *Orchestrator) runItem(ctx context.Context, item catalog.Item, stats *Stats) {
	itemCtx, cancel := context.WithTimeout(ctx, o.itemTimeout)
	defer cancel()

	outcome := make(chan processor.Outcome, 1)
	go func() {
		outcome <- o.process(itemCtx, item)
	}()

	select {
	case out := <-outcome:
		stats.Record(out)
	case <-itemCtx.Done():
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			o.logger.Error("item abandoned at deadline",
				logging.String(logging.FieldItemID, item.ID),
				logging.Duration("timeout", o.itemTimeout),
			)
			stats.RecordTimeout(item.ID, o.itemTimeout)
			return
		}
		// Shutdown mid-item: the pipeline sees the cancelled context
		// and unwinds; wait for it so the claim release is observed.
		// The wait is still bounded by the item's original deadline so
		// a pipeline stuck in uncancellable I/O cannot stall shutdown.
		deadline, ok := itemCtx.Deadline()
		if !ok {
			deadline = time.Now().Add(o.itemTimeout)
		}
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		select {
		case out := <-outcome:
			out.Success = false
			stats.Record(out)
		case <-timer.C:
			o.logger.Error("item abandoned at deadline during shutdown",
				logging.String(logging.FieldItemID, item.ID),
				logging.Duration("timeout", o.itemTimeout),
			)
			stats.RecordTimeout(item.ID, o.itemTimeout)
		}
	}
}
