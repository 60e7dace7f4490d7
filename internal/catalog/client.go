package catalog

import "context"

// Client is the catalog surface the pipelines depend on. Every call may
// fail with an error wrapping services.ErrRemote; callers treat such
// failures as item-scoped, never fatal to a batch.
type Client interface {
	// FindItemIDs runs the lightweight id-only query for every item
	// matching the filter.
	FindItemIDs(ctx context.Context, filter Filter) ([]string, error)
	// FindItems fetches one page of items with full metadata.
	FindItems(ctx context.Context, filter Filter, page Page) ([]Item, error)
	// AddTag and RemoveTag mutate an item's tag set; the advisory
	// claim protocol is built on these.
	AddTag(ctx context.Context, itemID string, tagID int64) error
	RemoveTag(ctx context.Context, itemID string, tagID int64) error
	// SetFingerprint records a content fingerprint on a file.
	SetFingerprint(ctx context.Context, fileID, kind, value string) error
	// SetCoverImage replaces an item's cover with an encoded data URI.
	SetCoverImage(ctx context.Context, itemID, dataURI string) error
}
