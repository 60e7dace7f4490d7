package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"filmstrip/internal/catalog"
	"filmstrip/internal/logging"
	"filmstrip/internal/services"
)

var commandContext = exec.CommandContext

// Timestamps tried for the replacement cover frame. Short videos miss
// the 30s mark, so a second pass runs near the start.
var coverSeekPoints = []string{"00:00:30", "00:00:05"}

// refreshCover replaces the catalog's cover when it is still the SVG
// placeholder. The boolean reports whether a refresh ran; failures are
// logged, tagged with the cover error tag, and never fail the item.
func (p *Processor) refreshCover(ctx context.Context, log *slog.Logger, item catalog.Item, localPath, token string) (string, bool) {
	screenshotURL := item.Paths.Screenshot
	if strings.TrimSpace(screenshotURL) == "" {
		return "", false
	}

	placeholder, err := p.coverIsPlaceholder(ctx, screenshotURL)
	if err != nil {
		log.Warn("cover inspection failed",
			logging.String(logging.FieldStep, "cover"), logging.Error(err))
		p.tagError(ctx, log, item.ID, p.opts.CoverErrorTagID, "cover")
		return "", false
	}
	if !placeholder {
		return "", false
	}

	if p.opts.DryRun {
		log.Info("dry run: would refresh cover image")
		return "cover (dry run)", true
	}

	if err := p.extractAndUploadCover(ctx, item.ID, localPath, token); err != nil {
		log.Error("cover refresh failed",
			logging.String(logging.FieldStep, "cover"), logging.Error(err))
		p.tagError(ctx, log, item.ID, p.opts.CoverErrorTagID, "cover")
		return "", false
	}
	return "cover", true
}

// coverIsPlaceholder fetches the current cover and reports whether it
// is the catalog's default SVG placeholder rather than a real frame.
func (p *Processor) coverIsPlaceholder(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, services.Wrap(services.ErrRemote, "cover", "build request", url, err)
	}
	resp, err := p.httpDo.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrRemote, "cover", "fetch cover", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, services.Wrap(services.ErrRemote, "cover", "fetch cover",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	// Placeholders are tiny; cap the read so a real image never pulls
	// megabytes through memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, services.Wrap(services.ErrRemote, "cover", "read cover", url, err)
	}
	return strings.Contains(strings.ToLower(string(body)), "<svg"), nil
}

// extractAndUploadCover pulls a single frame from the source and pushes
// it to the catalog as a base64 data URI.
func (p *Processor) extractAndUploadCover(ctx context.Context, itemID, localPath, token string) error {
	tempDir := filepath.Join(p.opts.ScratchDir, "cover_"+token)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "cover", "create scratch dir", tempDir, err)
	}
	defer os.RemoveAll(tempDir)

	framePath := filepath.Join(tempDir, token+"_cover.jpg")
	var lastErr error
	for _, seek := range coverSeekPoints {
		args := []string{
			"-hide_banner", "-loglevel", "error", "-nostdin",
			"-ss", seek, "-i", localPath,
			"-frames:v", "1", "-y", framePath,
		}
		cmd := commandContext(ctx, p.opts.FFmpeg, args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			lastErr = services.Wrap(services.ErrExternalTool, "cover", "extract frame",
				strings.TrimSpace(string(output)), err)
			continue
		}
		if p.fileExists(framePath) {
			lastErr = nil
			break
		}
		lastErr = services.Wrap(services.ErrExternalTool, "cover", "extract frame",
			"no frame written at "+seek, nil)
	}
	if lastErr != nil {
		return lastErr
	}

	raw, err := os.ReadFile(framePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "cover", "read frame", framePath, err)
	}
	dataURI := "data:image/jpg;base64," + base64.StdEncoding.EncodeToString(raw)
	return p.catalog.SetCoverImage(ctx, itemID, dataURI)
}
