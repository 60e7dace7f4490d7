package sprite

import (
	"fmt"
	"os"
	"strings"

	"filmstrip/internal/sampling"
	"filmstrip/internal/services"
)

// writeCaptionTrack emits a WebVTT file with one cue per sprite tile.
// Each cue spans one sampling interval and points at the tile's region
// of the sheet via a media fragment.
func writeCaptionTrack(path, sheetName string, tiles int, interval float64, opts Options) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for idx := 0; idx < tiles; idx++ {
		start := float64(idx) * interval
		end := start + interval
		rect := sampling.GridPlacement(idx, opts.Columns, opts.TileWidth, opts.TileHeight)
		fmt.Fprintf(&b, "%s --> %s\n", sampling.FormatTimecode(start), sampling.FormatTimecode(end))
		fmt.Fprintf(&b, "%s#xywh=%d,%d,%d,%d\n\n",
			sheetName, rect.X, rect.Y, rect.Width, rect.Height)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrSprite, "sprite", "write caption track", path, err)
	}
	return nil
}
