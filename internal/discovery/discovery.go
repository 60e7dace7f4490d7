// Package discovery selects batches of unprocessed items from the
// shared catalog and manages the advisory processing claim. Multiple
// nodes run the same selection concurrently with no shared lock;
// randomized page selection keeps them off each other's work most of
// the time. It is a load-spreading heuristic, not mutual exclusion.
package discovery

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"filmstrip/internal/catalog"
	"filmstrip/internal/logging"
	"filmstrip/internal/pathmap"
)

// Batch is one coordinator selection handed to the orchestrator. It is
// immutable once returned and discarded after the run.
type Batch struct {
	Items []catalog.Item
	// TotalRemaining is the catalog-wide count of unprocessed items
	// at selection time, for progress reporting.
	TotalRemaining int
}

// Empty reports whether the batch carries no work.
func (b Batch) Empty() bool { return len(b.Items) == 0 }

// Coordinator discovers work and claims items for processing.
type Coordinator struct {
	client   catalog.Client
	logger   *slog.Logger
	pageSize int

	// pickPage draws a page index in [1, totalPages]; overridable in
	// tests for deterministic selection.
	pickPage func(totalPages int) int
}

// NewCoordinator constructs a Coordinator selecting pages of pageSize
// items.
func NewCoordinator(client catalog.Client, logger *slog.Logger, pageSize int) *Coordinator {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Coordinator{
		client:   client,
		logger:   logging.WithComponent(logger, "discovery"),
		pageSize: pageSize,
		pickPage: func(totalPages int) int {
			return 1 + rand.IntN(totalPages)
		},
	}
}

// Discover runs the id-only count query, draws a uniformly random page
// of the result, fetches it with full metadata, and applies the
// optional filename mask. An empty batch means no matching work exists;
// a non-empty TotalRemaining with zero items means the mask filtered
// the fetched page away.
func (c *Coordinator) Discover(ctx context.Context, filter catalog.Filter, mask string) (Batch, error) {
	ids, err := c.client.FindItemIDs(ctx, filter)
	if err != nil {
		return Batch{}, err
	}
	if len(ids) == 0 {
		return Batch{}, nil
	}

	totalPages := (len(ids) + c.pageSize - 1) / c.pageSize
	page := c.pickPage(totalPages)
	c.logger.Debug("selected page",
		logging.Int("page", page),
		logging.Int("total_pages", totalPages),
		logging.Int("remaining", len(ids)),
	)

	items, err := c.client.FindItems(ctx, filter, catalog.Page{Number: page, Size: c.pageSize})
	if err != nil {
		return Batch{}, err
	}

	kept := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		file, ok := item.PrimaryFile()
		if !ok {
			c.logger.Warn("item has no backing file", logging.String(logging.FieldItemID, item.ID))
			continue
		}
		if !pathmap.MatchesMask(file.Path, mask) {
			continue
		}
		kept = append(kept, item)
	}
	if len(kept) < len(items) {
		c.logger.Debug("filename mask narrowed page",
			logging.Int("fetched", len(items)),
			logging.Int("kept", len(kept)),
		)
	}
	return Batch{Items: kept, TotalRemaining: len(ids)}, nil
}

// Claim marks an item as in progress with the processing tag and
// returns a release function. The release runs unconditionally at
// pipeline exit and detaches from the caller's context so a shutdown
// mid-item still clears the claim.
func (c *Coordinator) Claim(ctx context.Context, itemID string, processingTagID int64) (release func(), err error) {
	if err := c.client.AddTag(ctx, itemID, processingTagID); err != nil {
		return nil, err
	}
	releaseCtx := context.WithoutCancel(ctx)
	return func() {
		if err := c.client.RemoveTag(releaseCtx, itemID, processingTagID); err != nil {
			c.logger.Warn("failed to release processing claim",
				logging.String(logging.FieldItemID, itemID),
				logging.Error(err),
			)
		}
	}, nil
}
