package catalog

import (
	"context"
	"log/slog"

	"filmstrip/internal/logging"
)

// DryRun wraps a Client so reads pass through while every mutation is
// logged instead of applied.
type DryRun struct {
	client Client
	logger *slog.Logger
}

// NewDryRun builds a dry-run wrapper around the provided client.
func NewDryRun(client Client, logger *slog.Logger) *DryRun {
	return &DryRun{client: client, logger: logging.WithComponent(logger, "catalog")}
}

func (d *DryRun) FindItemIDs(ctx context.Context, filter Filter) ([]string, error) {
	return d.client.FindItemIDs(ctx, filter)
}

func (d *DryRun) FindItems(ctx context.Context, filter Filter, page Page) ([]Item, error) {
	return d.client.FindItems(ctx, filter, page)
}

func (d *DryRun) AddTag(_ context.Context, itemID string, tagID int64) error {
	d.logger.Info("dry run: would add tag",
		logging.String(logging.FieldItemID, itemID), logging.Int64("tag_id", tagID))
	return nil
}

func (d *DryRun) RemoveTag(_ context.Context, itemID string, tagID int64) error {
	d.logger.Info("dry run: would remove tag",
		logging.String(logging.FieldItemID, itemID), logging.Int64("tag_id", tagID))
	return nil
}

func (d *DryRun) SetFingerprint(_ context.Context, fileID, kind, value string) error {
	d.logger.Info("dry run: would set fingerprint",
		logging.String("file_id", fileID), logging.String("type", kind), logging.String("value", value))
	return nil
}

func (d *DryRun) SetCoverImage(_ context.Context, itemID, _ string) error {
	d.logger.Info("dry run: would set cover image", logging.String(logging.FieldItemID, itemID))
	return nil
}

var _ Client = (*DryRun)(nil)
