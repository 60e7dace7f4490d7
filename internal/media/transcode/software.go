package transcode

import "context"

// Software encodes on the CPU with libx264. It is the fallback strategy
// and works on every host ffmpeg runs on.
type Software struct {
	Binary string
}

// NewSoftware constructs the CPU strategy.
func NewSoftware(binary string) *Software {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Software{Binary: binary}
}

func (s *Software) Name() string { return "software" }

func (s *Software) ExtractFrame(ctx context.Context, req FrameRequest) error {
	args := []string{
		"-v", "error", "-y",
		"-ss", seconds(req.Seconds),
		"-i", req.Source,
		"-frames:v", "1",
		"-vf", "scale=" + scaleArg(req.Width, req.Height),
		"-q:v", "2",
		req.Output,
	}
	return run(ctx, s.Name(), "extract frame", s.Binary, args)
}

func (s *Software) ExtractClip(ctx context.Context, req ClipRequest) error {
	args := []string{
		"-v", "error", "-y",
		"-ss", seconds(req.Start),
		"-i", req.Source,
		"-t", seconds(req.Length),
		"-vf", "scale=" + scaleArg(req.Width, req.Height),
		"-c:v", "libx264",
		"-crf", "18",
		"-preset", "slow",
		"-an",
		req.Output,
	}
	return run(ctx, s.Name(), "extract clip", s.Binary, args)
}

func (s *Software) Splice(ctx context.Context, req SpliceRequest) error {
	args := []string{
		"-v", "error", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", req.ListFile,
		"-vf", "scale=" + scaleArg(req.Width, req.Height),
		"-c:v", "libx264",
		"-crf", "18",
		"-preset", "slow",
		"-an",
		req.Output,
	}
	return run(ctx, s.Name(), "splice", s.Binary, args)
}

var _ Strategy = (*Software)(nil)
