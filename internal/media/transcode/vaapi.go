package transcode

import "context"

// VAAPI encodes through a DRM render node. Decode output stays on the
// device until the final download so frame extraction and clip encoding
// avoid round-tripping through system memory.
type VAAPI struct {
	Binary string
	Device string
}

// NewVAAPI constructs the hardware strategy bound to a render device.
func NewVAAPI(binary, device string) *VAAPI {
	if binary == "" {
		binary = "ffmpeg"
	}
	if device == "" {
		device = DefaultDevice
	}
	return &VAAPI{Binary: binary, Device: device}
}

func (v *VAAPI) Name() string { return "vaapi" }

func (v *VAAPI) ExtractFrame(ctx context.Context, req FrameRequest) error {
	args := []string{
		"-hwaccel", "vaapi",
		"-hwaccel_output_format", "vaapi",
		"-vaapi_device", v.Device,
		"-v", "error", "-y",
		"-ss", seconds(req.Seconds),
		"-i", req.Source,
		"-frames:v", "1",
		"-vf", "scale_vaapi=" + scaleArg(req.Width, req.Height) + ",hwdownload,format=nv12",
		req.Output,
	}
	return run(ctx, v.Name(), "extract frame", v.Binary, args)
}

func (v *VAAPI) ExtractClip(ctx context.Context, req ClipRequest) error {
	args := []string{
		"-vaapi_device", v.Device,
		"-v", "error", "-y",
		"-ss", seconds(req.Start),
		"-i", req.Source,
		"-t", seconds(req.Length),
		"-vf", "format=nv12,hwupload,scale_vaapi=" + scaleArg(req.Width, req.Height),
		"-c:v", "h264_vaapi",
		"-qp", "23",
		"-an",
		req.Output,
	}
	return run(ctx, v.Name(), "extract clip", v.Binary, args)
}

func (v *VAAPI) Splice(ctx context.Context, req SpliceRequest) error {
	args := []string{
		"-v", "error", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", req.ListFile,
		"-vaapi_device", v.Device,
		"-vf", "format=nv12,hwupload,scale_vaapi=" + scaleArg(req.Width, req.Height),
		"-c:v", "h264_vaapi",
		"-qp", "23",
		"-an",
		req.Output,
	}
	return run(ctx, v.Name(), "splice", v.Binary, args)
}

var _ Strategy = (*VAAPI)(nil)
