package transcode

import (
	"context"
	"strings"
	"time"
)

// DefaultDevice is the render node probed first during detection.
const DefaultDevice = "/dev/dri/renderD128"

var candidateDevices = []string{
	DefaultDevice,
	"/dev/dri/card0",
	"/dev/dri/card1",
}

// Mode mirrors the hwaccel.mode config values.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

// DetectVAAPI probes the candidate DRM devices with vainfo and returns
// the first usable device. Probe failures are not errors; they simply
// mean the software path will be used.
func DetectVAAPI(ctx context.Context) (string, bool) {
	for _, device := range candidateDevices {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		cmd := commandContext(probeCtx, "vainfo", "--display", "drm", "--device", device)
		output, err := cmd.CombinedOutput()
		cancel()
		if err != nil {
			continue
		}
		text := string(output)
		if strings.Contains(text, "VA-API version") && strings.Contains(text, "Driver version") {
			return device, true
		}
	}
	return "", false
}

// Choose resolves the strategy for one run. ModeOn forces hardware even
// when detection fails (the configured device is trusted); ModeOff
// forces software; ModeAuto uses hardware only when a device probes
// successfully.
func Choose(ctx context.Context, binary string, mode Mode, device string) Strategy {
	switch mode {
	case ModeOff:
		return NewSoftware(binary)
	case ModeOn:
		return NewVAAPI(binary, device)
	default:
		if detected, ok := DetectVAAPI(ctx); ok {
			if device == "" {
				device = detected
			}
			return NewVAAPI(binary, device)
		}
		return NewSoftware(binary)
	}
}
