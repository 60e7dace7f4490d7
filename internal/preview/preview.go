// Package preview builds short preview reels. A build cuts evenly
// spaced one-shot clips from the source with a bounded worker pool and
// splices the survivors into a single file. Unlike sprite generation,
// losing individual clips is tolerated; only losing all of them fails
// the build.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"filmstrip/internal/logging"
	"filmstrip/internal/media/ffprobe"
	"filmstrip/internal/media/transcode"
	"filmstrip/internal/sampling"
	"filmstrip/internal/services"
)

const extractWorkers = 4

// Options controls the preview geometry and sampling.
type Options struct {
	Clips       int
	ClipLength  float64
	SkipSeconds float64
	Width       int
	Height      int
}

// Generator builds preview reels for one configured geometry.
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
		logger:   logging.WithComponent(logger, "preview"),
		opts:     opts,
		probe: func(ctx context.Context, path string) (float64, error) {
			return ffprobe.Duration(ctx, probeBinary, path)
		},
	}
}

// Generate builds a preview reel for source at outputPath. The scratch
// directory is private to this build and removed on every exit path.
func (g *Generator) Generate(ctx context.Context, source, outputPath, scratchDir string) (err error) {
	duration, err := g.probe(ctx, source)
	if err != nil {
		return err
	}

	points, err := g.startTimes(duration)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return services.Wrap(services.ErrNoClips, "preview", "create scratch dir", scratchDir, err)
	}
	defer func() {
		if removeErr := os.RemoveAll(scratchDir); removeErr != nil && err == nil {
			g.logger.Warn("scratch cleanup failed",
				logging.String("dir", scratchDir), logging.Error(removeErr))
		}
	}()

	clips := g.extractClips(ctx, source, scratchDir, points)
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrNoClips, "preview", "extract clips", "cancelled", err)
	}
	if len(clips) == 0 {
		return services.Wrap(services.ErrNoClips, "preview", "extract clips",
			fmt.Sprintf("all %d clip extractions failed", len(points)), nil)
	}
	if len(clips) < len(points) {
		g.logger.Warn("preview built from partial clips",
			logging.String("source", source),
			logging.Int("survived", len(clips)),
			logging.Int("requested", len(points)),
		)
	}

	listFile := filepath.Join(scratchDir, "clips.txt")
	if err := writeConcatList(listFile, clips); err != nil {
		return err
	}
	req := transcode.SpliceRequest{
		ListFile: listFile,
		Width:    g.opts.Width,
		Height:   g.opts.Height,
		Output:   outputPath,
	}
	if err := g.strategy.Splice(ctx, req); err != nil {
		return err
	}

	g.logger.Debug("preview built",
		logging.String("source", source),
		logging.String("output", outputPath),
		logging.Int("clips", len(clips)),
	)
	return nil
}

// startTimes spaces the clip starts across the video. Sources too short
// for the configured lead-in skip are retried without it; sources too
// short for even a single clip fail.
func (g *Generator) startTimes(duration float64) ([]sampling.Point, error) {
	points, err := sampling.ClipStartTimes(duration, g.opts.SkipSeconds, g.opts.Clips, g.opts.ClipLength)
	if err == nil {
		return points, nil
	}
	if g.opts.SkipSeconds > 0 {
		g.logger.Debug("retrying clip layout without lead-in skip",
			logging.Float64("duration", duration))
		points, err = sampling.ClipStartTimes(duration, 0, g.opts.Clips, g.opts.ClipLength)
		if err == nil {
			return points, nil
		}
	}
	return nil, services.Wrap(services.ErrDuration, "preview", "compute clip layout", "", err)
}

// extractClips cuts one clip per start point and returns the paths that
// succeeded, sorted by filename so splice order matches sample order.
func (g *Generator) extractClips(ctx context.Context, source, scratchDir string, points []sampling.Point) []string {
	jobs := make(chan sampling.Point)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var clips []string

	for w := 0; w < extractWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for point := range jobs {
				output := filepath.Join(scratchDir, fmt.Sprintf("clip_%03d.mp4", point.Index))
				req := transcode.ClipRequest{
					Source: source,
					Start:  point.Seconds,
					Length: g.opts.ClipLength,
					Width:  g.opts.Width,
					Height: g.opts.Height,
					Output: output,
				}
				if err := g.strategy.ExtractClip(ctx, req); err != nil {
					g.logger.Warn("clip extraction failed",
						logging.Int("clip", point.Index),
						logging.Float64("start", point.Seconds),
						logging.Error(err),
					)
					continue
				}
				mu.Lock()
				clips = append(clips, output)
				mu.Unlock()
			}
		}()
	}

	for _, point := range points {
		select {
		case jobs <- point:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	sort.Strings(clips)
	return clips
}

// writeConcatList emits the ffmpeg concat demuxer list for the clips.
func writeConcatList(path string, clips []string) error {
	var b strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&b, "file '%s'\n", clip)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrNoClips, "preview", "write concat list", path, err)
	}
	return nil
}
