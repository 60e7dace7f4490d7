// Package transcode runs the external ffmpeg engine behind a small
// strategy surface. One strategy is chosen per run (hardware VAAPI or
// software x264) and used uniformly for every extraction and splice in
// that run.
package transcode

import (
	"context"
	"os/exec"
	"strconv"

	"filmstrip/internal/services"
)

var commandContext = exec.CommandContext

// FrameRequest describes one still-frame extraction.
type FrameRequest struct {
	Source  string
	Seconds float64
	Width   int
	Height  int
	Output  string
}

// ClipRequest describes one short clip extraction.
type ClipRequest struct {
	Source string
	Start  float64
	Length float64
	Width  int
	Height int
	Output string
}

// SpliceRequest concatenates previously extracted clips listed in a
// ffmpeg concat file.
type SpliceRequest struct {
	ListFile string
	Width    int
	Height   int
	Output   string
}

// Strategy is the uniform capability contract for one transcoding code
// path. Implementations shell out to ffmpeg; any non-zero exit surfaces
// as a transcode error scoped to that single request.
type Strategy interface {
	Name() string
	ExtractFrame(ctx context.Context, req FrameRequest) error
	ExtractClip(ctx context.Context, req ClipRequest) error
	Splice(ctx context.Context, req SpliceRequest) error
}

func run(ctx context.Context, strategy, operation, binary string, args []string) error {
	cmd := commandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrTranscode, strategy, operation, string(trimOutput(output)), err)
	}
	return nil
}

func trimOutput(output []byte) []byte {
	const limit = 512
	if len(output) > limit {
		output = output[len(output)-limit:]
	}
	return output
}

func seconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func scaleArg(width, height int) string {
	return strconv.Itoa(width) + ":" + strconv.Itoa(height)
}
