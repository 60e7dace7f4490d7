// Package processor runs the per-item pipeline: resolve the local file,
// take the advisory processing claim, then generate the perceptual
// hash, cover image, sprite sheet, and preview video. A step failure
// tags the item and continues; the claim is always released at exit.
package processor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"filmstrip/internal/catalog"
	"filmstrip/internal/logging"
	"filmstrip/internal/media/videohash"
	"filmstrip/internal/pathmap"
	"filmstrip/internal/services"
)

// Claimer takes and releases the advisory processing claim on an item.
type Claimer interface {
	Claim(ctx context.Context, itemID string, processingTagID int64) (release func(), err error)
}

// SpriteBuilder builds a sprite sheet and caption track for a source.
type SpriteBuilder interface {
	Generate(ctx context.Context, source, spritePath, vttPath, scratchDir string) error
}

// PreviewBuilder builds a preview reel for a source.
type PreviewBuilder interface {
	Generate(ctx context.Context, source, outputPath, scratchDir string) error
}

// Options carries the tag identifiers, output locations, and step
// toggles for one run.
type Options struct {
	ProcessingTagID int64
	HashErrorTagID  int64
	CoverErrorTagID int64

	SpriteDir  string
	PreviewDir string
	ScratchDir string

	GenerateSprite  bool
	GeneratePreview bool

	// FFmpeg is the binary used for cover frame extraction.
	FFmpeg string

	// DryRun logs extractions instead of running them; catalog
	// mutations are expected to be wrapped separately.
	DryRun bool
}

// Outcome is the per-item result handed to the statistics aggregator.
// It is never persisted beyond the run's summary.
type Outcome struct {
	ItemID  string
	Success bool
	Elapsed time.Duration
	// Steps lists the operations that actually ran for the item.
	Steps []string
}

// Processor executes the pipeline for single items.
type Processor struct {
	catalog  catalog.Client
	claimer  Claimer
	mapper   *pathmap.Mapper
	hasher   videohash.Client
	sprites  SpriteBuilder
	previews PreviewBuilder
	httpDo   catalog.HTTPDoer
	logger   *slog.Logger
	opts     Options

	// newToken produces the fallback scratch token when the item has
	// no usable fingerprint; overridable in tests.
	newToken func() string
	// fileExists is overridable in tests.
	fileExists func(path string) bool
}

// New constructs a Processor. The sprite and preview builders may be
// nil when the corresponding step is disabled.
func New(store catalog.Client, claimer Claimer, mapper *pathmap.Mapper, hasher videohash.Client,
	sprites SpriteBuilder, previews PreviewBuilder, httpDo catalog.HTTPDoer,
	logger *slog.Logger, opts Options) *Processor {
	return &Processor{
		catalog:  store,
		claimer:  claimer,
		mapper:   mapper,
		hasher:   hasher,
		sprites:  sprites,
		previews: previews,
		httpDo:   httpDo,
		logger:   logging.WithComponent(logger, "processor"),
		opts:     opts,
		newToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		fileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Process runs every enabled step for one item. The item is claimed
// before the first step and released on every exit path. A failed step
// tags the item and lets the remaining steps run.
func (p *Processor) Process(ctx context.Context, item catalog.Item) Outcome {
	start := time.Now()
	outcome := Outcome{ItemID: item.ID}
	log := p.logger.With(logging.String(logging.FieldItemID, item.ID))

	file, ok := item.PrimaryFile()
	if !ok {
		log.Error("item has no backing file")
		outcome.Elapsed = time.Since(start)
		return outcome
	}

	localPath := p.mapper.Translate(file.Path)
	if !p.fileExists(localPath) {
		err := services.Wrap(services.ErrNotFound, "file check", "stat", localPath, nil)
		log.Error("source missing after path translation",
			logging.String("path", localPath), logging.Error(err))
		p.tagError(ctx, log, item.ID, p.opts.HashErrorTagID, "file check")
		outcome.Elapsed = time.Since(start)
		return outcome
	}

	token := p.scratchToken(item)
	log.Info("processing item",
		logging.String("file", filepath.Base(localPath)),
		logging.String("token", token),
	)

	release, err := p.claimer.Claim(ctx, item.ID, p.opts.ProcessingTagID)
	if err != nil {
		log.Error("failed to claim item", logging.Error(err))
		outcome.Elapsed = time.Since(start)
		return outcome
	}
	defer release()

	success := true

	if step, ok := p.runHash(ctx, log, item.ID, file.ID, localPath); ok {
		outcome.Steps = append(outcome.Steps, step)
	} else {
		success = false
	}

	// Cover failures carry their own error tag and never fail the
	// item; the artifacts are independent of the catalog's cover.
	if step, refreshed := p.refreshCover(ctx, log, item, localPath, token); refreshed {
		outcome.Steps = append(outcome.Steps, step)
	}

	if p.opts.GenerateSprite && p.sprites != nil {
		if step, ok := p.runSprite(ctx, log, item.ID, localPath, token); ok {
			if step != "" {
				outcome.Steps = append(outcome.Steps, step)
			}
		} else {
			success = false
		}
	}

	if p.opts.GeneratePreview && p.previews != nil {
		if step, ok := p.runPreview(ctx, log, item.ID, localPath, token); ok {
			if step != "" {
				outcome.Steps = append(outcome.Steps, step)
			}
		} else {
			success = false
		}
	}

	outcome.Success = success
	outcome.Elapsed = time.Since(start)
	if success {
		log.Info("item processed",
			logging.Duration("elapsed", outcome.Elapsed),
			logging.String("steps", strings.Join(outcome.Steps, ", ")),
		)
	}
	return outcome
}

// runHash computes the perceptual hash and records it on the item's
// file.
func (p *Processor) runHash(ctx context.Context, log *slog.Logger, itemID, fileID, localPath string) (string, bool) {
	if p.opts.DryRun {
		log.Info("dry run: would compute perceptual hash", logging.String("path", localPath))
		return "phash (dry run)", true
	}
	hash, err := p.hasher.PerceptualHash(ctx, localPath)
	if err == nil {
		err = p.catalog.SetFingerprint(ctx, fileID, "phash", hash)
	}
	if err != nil {
		p.failStep(ctx, log, itemID, p.opts.HashErrorTagID, services.WithStep("hashing", err))
		return "", false
	}
	return "phash", true
}

// runSprite builds the sprite sheet unless the output already exists.
// The empty step with ok=true means the step was skipped.
func (p *Processor) runSprite(ctx context.Context, log *slog.Logger, itemID, localPath, token string) (string, bool) {
	spriteFile := filepath.Join(p.opts.SpriteDir, token+"_sprite.jpg")
	vttFile := filepath.Join(p.opts.SpriteDir, token+"_thumbs.vtt")
	if p.fileExists(spriteFile) {
		log.Debug("sprite already exists, skipping", logging.String("sprite", spriteFile))
		return "", true
	}
	if p.opts.DryRun {
		log.Info("dry run: would generate sprite", logging.String("sprite", spriteFile))
		return "sprite (dry run)", true
	}
	scratch := filepath.Join(p.opts.ScratchDir, "screenshots_"+token)
	if err := p.sprites.Generate(ctx, localPath, spriteFile, vttFile, scratch); err != nil {
		p.failStep(ctx, log, itemID, p.opts.HashErrorTagID, services.WithStep("sprite", err))
		return "", false
	}
	return "sprite", true
}

// runPreview builds the preview reel unless the output already exists.
func (p *Processor) runPreview(ctx context.Context, log *slog.Logger, itemID, localPath, token string) (string, bool) {
	previewFile := filepath.Join(p.opts.PreviewDir, token+".mp4")
	if p.fileExists(previewFile) {
		log.Debug("preview already exists, skipping", logging.String("preview", previewFile))
		return "", true
	}
	if p.opts.DryRun {
		log.Info("dry run: would generate preview", logging.String("preview", previewFile))
		return "preview (dry run)", true
	}
	scratch := filepath.Join(p.opts.ScratchDir, "preview_"+token)
	if err := p.previews.Generate(ctx, localPath, previewFile, scratch); err != nil {
		p.failStep(ctx, log, itemID, p.opts.HashErrorTagID, services.WithStep("preview", err))
		return "", false
	}
	return "preview", true
}

// failStep logs a failed step and records its error tag. The step label
// travels on the error itself so both the log line and the tag warning
// name the same step.
func (p *Processor) failStep(ctx context.Context, log *slog.Logger, itemID string, tagID int64, err error) {
	step := services.Step(err)
	log.Error("step failed",
		logging.String(logging.FieldStep, step), logging.Error(err))
	p.tagError(ctx, log, itemID, tagID, step)
}

// tagError marks the item with a failure tag. Tagging is best-effort;
// a catalog outage here must not mask the original failure.
func (p *Processor) tagError(ctx context.Context, log *slog.Logger, itemID string, tagID int64, step string) {
	if err := p.catalog.AddTag(ctx, itemID, tagID); err != nil {
		log.Warn("failed to record error tag",
			logging.String(logging.FieldStep, step), logging.Error(err))
	}
}

// scratchToken derives the per-item scratch and artifact name token
// from the oshash fingerprint. Values unusable as a path component fall
// back to a random token.
func (p *Processor) scratchToken(item catalog.Item) string {
	token := item.FingerprintValue("oshash")
	if token == "" || strings.ContainsAny(token, ":\\/") {
		return p.newToken()
	}
	return token
}
