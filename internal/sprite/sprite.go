// Package sprite builds thumbnail sprite sheets and their WebVTT
// caption tracks. A build extracts evenly spaced frames with a bounded
// worker pool, tiles them into a fixed grid, and emits one cue per tile
// referencing its region of the sheet.
package sprite

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"filmstrip/internal/logging"
	"filmstrip/internal/media/ffprobe"
	"filmstrip/internal/media/transcode"
	"filmstrip/internal/sampling"
	"filmstrip/internal/services"
)

// Frame extraction runs in its own bounded pool, independent of the
// batch orchestrator's worker pool.
const extractWorkers = 4

// Options controls the sprite grid geometry.
type Options struct {
	Shots      int
	Columns    int
	Rows       int
	TileWidth  int
	TileHeight int
}

// Generator builds sprite sheets for one configured geometry.
type Generator struct {
	strategy transcode.Strategy
	logger   *slog.Logger
	opts     Options

	// probe resolves media duration; overridable in tests.
	probe func(ctx context.Context, path string) (float64, error)
}

// NewGenerator constructs a Generator using the given probe binary and
// transcode strategy.
func NewGenerator(probeBinary string, strategy transcode.Strategy, logger *slog.Logger, opts Options) *Generator {
	return &Generator{
		strategy: strategy,
		logger:   logging.WithComponent(logger, "sprite"),
		opts:     opts,
		probe: func(ctx context.Context, path string) (float64, error) {
			return ffprobe.Duration(ctx, probeBinary, path)
		},
	}
}

// Generate builds the sprite sheet and caption track for source. The
// scratch directory is private to this build and removed on every exit
// path. Any single frame failure aborts the whole build; no partial
// sprite is written.
func (g *Generator) Generate(ctx context.Context, source, spritePath, vttPath, scratchDir string) (err error) {
	duration, err := g.probe(ctx, source)
	if err != nil {
		return err
	}
	points, err := sampling.SampleTimestamps(duration, g.opts.Shots)
	if err != nil {
		return services.Wrap(services.ErrSprite, "sprite", "compute timestamps", "", err)
	}

	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return services.Wrap(services.ErrSprite, "sprite", "create scratch dir", scratchDir, err)
	}
	defer func() {
		if removeErr := os.RemoveAll(scratchDir); removeErr != nil && err == nil {
			g.logger.Warn("scratch cleanup failed",
				logging.String("dir", scratchDir), logging.Error(removeErr))
		}
	}()

	if err := g.extractFrames(ctx, source, scratchDir, points); err != nil {
		return err
	}

	sheet, err := g.assemble(scratchDir)
	if err != nil {
		return err
	}
	if err := imaging.Save(sheet, spritePath); err != nil {
		return services.Wrap(services.ErrSprite, "sprite", "save sheet", spritePath, err)
	}

	interval := sampling.Interval(duration, g.opts.Shots)
	if err := writeCaptionTrack(vttPath, filepath.Base(spritePath), g.tileCount(), interval, g.opts); err != nil {
		// The sheet without its track is useless to the player.
		_ = os.Remove(spritePath)
		return err
	}

	g.logger.Debug("sprite built",
		logging.String("source", source),
		logging.String("sheet", spritePath),
		logging.Int("tiles", g.tileCount()),
	)
	return nil
}

func (g *Generator) tileCount() int {
	capacity := g.opts.Columns * g.opts.Rows
	if g.opts.Shots < capacity {
		return g.opts.Shots
	}
	return capacity
}

// extractFrames pulls one still per sample point with a bounded pool.
// The first failure cancels the remaining extractions.
func (g *Generator) extractFrames(ctx context.Context, source, scratchDir string, points []sampling.Point) error {
	extractCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan sampling.Point)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < extractWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for point := range jobs {
				if extractCtx.Err() != nil {
					return
				}
				req := transcode.FrameRequest{
					Source:  source,
					Seconds: point.Seconds,
					Width:   g.opts.TileWidth,
					Height:  g.opts.TileHeight,
					Output:  framePath(scratchDir, point.Index),
				}
				if err := g.strategy.ExtractFrame(extractCtx, req); err != nil {
					fail(services.Wrap(services.ErrSprite, "sprite",
						fmt.Sprintf("extract frame %d", point.Index), "", err))
					return
				}
			}
		}()
	}

	for _, point := range points {
		select {
		case jobs <- point:
		case <-extractCtx.Done():
		}
		if extractCtx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrSprite, "sprite", "extract frames", "cancelled", err)
	}
	return nil
}

// assemble tiles the extracted frames into one sheet. Frames beyond the
// grid capacity are discarded.
func (g *Generator) assemble(scratchDir string) (image.Image, error) {
	sheet := imaging.New(
		g.opts.Columns*g.opts.TileWidth,
		g.opts.Rows*g.opts.TileHeight,
		color.NRGBA{A: 255},
	)
	for idx := 0; idx < g.tileCount(); idx++ {
		tile, err := imaging.Open(framePath(scratchDir, idx))
		if err != nil {
			return nil, services.Wrap(services.ErrSprite, "sprite",
				fmt.Sprintf("open frame %d", idx), "", err)
		}
		// Hardware scaling can deliver off-by-one dimensions on odd
		// sources; normalize to the exact tile size.
		if tile.Bounds().Dx() != g.opts.TileWidth || tile.Bounds().Dy() != g.opts.TileHeight {
			tile = imaging.Resize(tile, g.opts.TileWidth, g.opts.TileHeight, imaging.Lanczos)
		}
		rect := sampling.GridPlacement(idx, g.opts.Columns, g.opts.TileWidth, g.opts.TileHeight)
		sheet = imaging.Paste(sheet, tile, image.Pt(rect.X, rect.Y))
	}
	return sheet, nil
}

func framePath(scratchDir string, index int) string {
	return filepath.Join(scratchDir, fmt.Sprintf("frame_%03d.jpg", index))
}
