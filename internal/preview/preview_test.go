package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"filmstrip/internal/logging"
	"filmstrip/internal/media/transcode"
	"filmstrip/internal/services"
)

type stubStrategy struct {
	mu     sync.Mutex
	clips  []transcode.ClipRequest
	splice *transcode.SpliceRequest

	// failStarts lists clip start indices (zero-based) whose
	// extraction should fail.
	failStarts map[int]bool
	spliceErr  error
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) ExtractFrame(ctx context.Context, req transcode.FrameRequest) error {
	return errors.New("not used")
}

func (s *stubStrategy) ExtractClip(ctx context.Context, req transcode.ClipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := len(s.clips)
	// Recover the clip index from the output filename; concurrency
	// makes call order unreliable.
	fmt.Sscanf(filepath.Base(req.Output), "clip_%d.mp4", &index)
	if s.failStarts[index] {
		return services.Wrap(services.ErrTranscode, "stub", "extract clip", "boom", nil)
	}
	s.clips = append(s.clips, req)
	return os.WriteFile(req.Output, []byte("clip"), 0o644)
}

func (s *stubStrategy) Splice(ctx context.Context, req transcode.SpliceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spliceErr != nil {
		return s.spliceErr
	}
	s.splice = &req
	return os.WriteFile(req.Output, []byte("reel"), 0o644)
}

func newTestGenerator(strategy transcode.Strategy, opts Options, duration float64) *Generator {
	gen := NewGenerator("ffprobe", strategy, logging.NewNop(), opts)
	gen.probe = func(ctx context.Context, path string) (float64, error) {
		return duration, nil
	}
	return gen
}

func TestGenerateBuildsReel(t *testing.T) {
	dir := t.TempDir()
	strategy := &stubStrategy{}
	opts := Options{Clips: 5, ClipLength: 1, SkipSeconds: 15, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 300)

	output := filepath.Join(dir, "preview.mp4")
	scratch := filepath.Join(dir, "scratch")
	if err := gen.Generate(context.Background(), "/video.mp4", output, scratch); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(strategy.clips) != 5 {
		t.Fatalf("extracted %d clips, want 5", len(strategy.clips))
	}
	for _, clip := range strategy.clips {
		if clip.Start < 15 {
			t.Fatalf("clip start %v inside the lead-in skip", clip.Start)
		}
		if clip.Start+clip.Length > 300 {
			t.Fatalf("clip at %v runs past the end", clip.Start)
		}
	}
	if strategy.splice == nil {
		t.Fatal("splice never called")
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("reel missing: %v", err)
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Fatalf("scratch dir survived: %v", err)
	}
}

func TestGenerateConcatListOrderedByFilename(t *testing.T) {
	dir := t.TempDir()
	var listContents string
	strategy := &listCapturingStrategy{onSplice: func(listFile string) {
		raw, err := os.ReadFile(listFile)
		if err != nil {
			t.Fatalf("read concat list: %v", err)
		}
		listContents = string(raw)
	}}
	opts := Options{Clips: 4, ClipLength: 1, SkipSeconds: 0, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 100)

	if err := gen.Generate(context.Background(), "/video.mp4", filepath.Join(dir, "p.mp4"), filepath.Join(dir, "scratch")); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(listContents), "\n")
	if len(lines) != 4 {
		t.Fatalf("concat list has %d lines, want 4:\n%s", len(lines), listContents)
	}
	for i, line := range lines {
		want := fmt.Sprintf("clip_%03d.mp4'", i)
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, want) {
			t.Fatalf("line %d = %q, want file entry for clip %d", i, line, i)
		}
	}
}

func TestGenerateToleratesPartialClipLoss(t *testing.T) {
	dir := t.TempDir()
	strategy := &stubStrategy{failStarts: map[int]bool{1: true, 3: true}}
	opts := Options{Clips: 5, ClipLength: 1, SkipSeconds: 0, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 120)

	if err := gen.Generate(context.Background(), "/video.mp4", filepath.Join(dir, "p.mp4"), filepath.Join(dir, "scratch")); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(strategy.clips) != 3 {
		t.Fatalf("spliced %d clips, want 3 survivors", len(strategy.clips))
	}
}

func TestGenerateFailsWhenAllClipsLost(t *testing.T) {
	dir := t.TempDir()
	failAll := map[int]bool{}
	for i := 0; i < 5; i++ {
		failAll[i] = true
	}
	strategy := &stubStrategy{failStarts: failAll}
	opts := Options{Clips: 5, ClipLength: 1, SkipSeconds: 0, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 120)

	output := filepath.Join(dir, "p.mp4")
	err := gen.Generate(context.Background(), "/video.mp4", output, filepath.Join(dir, "scratch"))
	if !errors.Is(err, services.ErrNoClips) {
		t.Fatalf("error = %v, want ErrNoClips", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatal("output written despite total clip loss")
	}
}

func TestGenerateRetriesWithoutSkipForShortVideos(t *testing.T) {
	dir := t.TempDir()
	strategy := &stubStrategy{}
	// 10s video cannot absorb a 15s skip, but works with skip=0.
	opts := Options{Clips: 3, ClipLength: 1, SkipSeconds: 15, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 10)

	if err := gen.Generate(context.Background(), "/video.mp4", filepath.Join(dir, "p.mp4"), filepath.Join(dir, "scratch")); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for _, clip := range strategy.clips {
		if clip.Start+clip.Length > 10 {
			t.Fatalf("clip at %v runs past the 10s end", clip.Start)
		}
	}
}

func TestGenerateFailsForVideoShorterThanOneClip(t *testing.T) {
	dir := t.TempDir()
	strategy := &stubStrategy{}
	opts := Options{Clips: 3, ClipLength: 2, SkipSeconds: 15, Width: 640, Height: 360}
	gen := newTestGenerator(strategy, opts, 1.5)

	err := gen.Generate(context.Background(), "/video.mp4", filepath.Join(dir, "p.mp4"), filepath.Join(dir, "scratch"))
	if !errors.Is(err, services.ErrDuration) {
		t.Fatalf("error = %v, want ErrDuration", err)
	}
}

type listCapturingStrategy struct {
	stubStrategy
	onSplice func(listFile string)
}

func (s *listCapturingStrategy) Splice(ctx context.Context, req transcode.SpliceRequest) error {
	s.onSplice(req.ListFile)
	return os.WriteFile(req.Output, []byte("reel"), 0o644)
}
