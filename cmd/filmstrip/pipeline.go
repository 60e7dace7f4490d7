package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"filmstrip/internal/batch"
	"filmstrip/internal/catalog"
	"filmstrip/internal/config"
	"filmstrip/internal/discovery"
	"filmstrip/internal/logging"
	"filmstrip/internal/media/transcode"
	"filmstrip/internal/media/videohash"
	"filmstrip/internal/pathmap"
	"filmstrip/internal/preview"
	"filmstrip/internal/processor"
	"filmstrip/internal/sprite"
)

// runOverrides carries the run command's flag values that beat the
// config file.
type runOverrides struct {
	DryRun    bool
	Filemask  string
	BatchSize int
	Workers   int

	ForceVAAPI   bool
	DisableVAAPI bool

	DisableSprite  bool
	DisablePreview bool
}

// pipeline bundles the wired components for one processing session.
type pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       catalog.Client
	coordinator *discovery.Coordinator
	processor   *processor.Processor
	strategy    transcode.Strategy

	workers     int
	itemTimeout time.Duration
	pause       time.Duration
	filemask    string
}

// newPipeline wires the catalog client, transcode strategy, artifact
// generators, and per-item processor for one session.
func newPipeline(ctx context.Context, cmdCtx *commandContext, overrides runOverrides) (*pipeline, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := cmdCtx.newCatalog(overrides.DryRun, logger)
	if err != nil {
		return nil, err
	}

	strategy := chooseStrategy(ctx, cfg, overrides, logger)

	spriteEnabled := cfg.Sprite.Enabled && !overrides.DisableSprite
	previewEnabled := cfg.Preview.Enabled && !overrides.DisablePreview

	var spriteGen processor.SpriteBuilder
	if spriteEnabled {
		spriteGen = sprite.NewGenerator(cfg.Tools.FFprobe, strategy, logger, sprite.Options{
			Shots:      cfg.Sprite.Shots,
			Columns:    cfg.Sprite.Columns,
			Rows:       cfg.Sprite.Rows,
			TileWidth:  cfg.Sprite.TileWidth,
			TileHeight: cfg.Sprite.TileHeight,
		})
	}
	var previewGen processor.PreviewBuilder
	if previewEnabled {
		previewGen = preview.NewGenerator(cfg.Tools.FFprobe, strategy, logger, preview.Options{
			Clips:       cfg.Preview.Clips,
			ClipLength:  cfg.Preview.ClipLength,
			SkipSeconds: cfg.Preview.SkipSeconds,
			Width:       cfg.Preview.Width,
			Height:      cfg.Preview.Height,
		})
	}

	rules := make([]pathmap.Rule, 0, len(cfg.Translations))
	for _, t := range cfg.Translations {
		rules = append(rules, pathmap.Rule{CatalogPrefix: t.CatalogPrefix, LocalPrefix: t.LocalPrefix})
	}
	mapper := pathmap.NewMapper(rules)

	pageSize := cfg.Batch.PageSize
	if overrides.BatchSize > 0 {
		pageSize = overrides.BatchSize
	}
	workers := cfg.Batch.Workers
	if overrides.Workers > 0 {
		workers = overrides.Workers
	}

	coordinator := discovery.NewCoordinator(store, logger, pageSize)
	hasher := videohash.NewCLI(videohash.WithBinary(cfg.Tools.VideoHashes))

	proc := processor.New(store, coordinator, mapper, hasher, spriteGen, previewGen,
		&http.Client{Timeout: 30 * time.Second}, logger, processor.Options{
			ProcessingTagID: cfg.Catalog.ProcessingTagID,
			HashErrorTagID:  cfg.Catalog.HashErrorTagID,
			CoverErrorTagID: cfg.Catalog.CoverErrorTagID,
			SpriteDir:       cfg.Paths.SpriteDir,
			PreviewDir:      cfg.Paths.PreviewDir,
			ScratchDir:      cfg.Paths.ScratchDir,
			GenerateSprite:  spriteEnabled,
			GeneratePreview: previewEnabled,
			FFmpeg:          cfg.Tools.FFmpeg,
			DryRun:          overrides.DryRun,
		})

	return &pipeline{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		coordinator: coordinator,
		processor:   proc,
		strategy:    strategy,
		workers:     workers,
		itemTimeout: time.Duration(cfg.ItemTimeout()) * time.Second,
		pause:       time.Duration(cfg.Batch.PauseSeconds) * time.Second,
		filemask:    overrides.Filemask,
	}, nil
}

// chooseStrategy resolves the transcode code path for the whole run.
// Flags beat config, config beats autodetection.
func chooseStrategy(ctx context.Context, cfg *config.Config, overrides runOverrides, logger *slog.Logger) transcode.Strategy {
	mode := transcode.Mode(cfg.HWAccel.Mode)
	switch {
	case overrides.DisableVAAPI:
		mode = transcode.ModeOff
	case overrides.ForceVAAPI:
		mode = transcode.ModeOn
	}
	strategy := transcode.Choose(ctx, cfg.Tools.FFmpeg, mode, cfg.HWAccel.Device)
	logger.Info("transcode strategy selected", logging.String("strategy", strategy.Name()))
	return strategy
}

// workFilter selects items missing a perceptual hash and not already
// claimed or failed.
func workFilter(cfg *config.Config) catalog.Filter {
	return catalog.Filter{
		MissingFingerprint: "phash",
		ExcludeTagIDs: []int64{
			cfg.Catalog.ProcessingTagID,
			cfg.Catalog.HashErrorTagID,
			cfg.Catalog.CoverErrorTagID,
		},
	}
}

// newOrchestrator builds the batch orchestrator for one batch.
func (p *pipeline) newOrchestrator() *batch.Orchestrator {
	return batch.New(p.processor.Process, p.logger, p.workers, p.itemTimeout)
}
