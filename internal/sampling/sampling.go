// Package sampling computes the timestamps and spatial placements used
// by the sprite and preview pipelines. Everything here is pure
// computation; the pipelines own all I/O.
package sampling

import (
	"fmt"
	"math"
)

// Point marks where a frame or clip is taken from the source media.
type Point struct {
	Index   int
	Seconds float64
}

// Rect is a tile placement inside a sprite sheet, in pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ClipStartTimes spaces count clip start times evenly across the usable
// span of the video, skipping the first skip seconds and leaving room
// for a full clip at the end. The first start lands one interval after
// skip so clips never begin at the very first frame.
//
// A video too short to fit the skip and one clip yields an error; the
// caller decides whether to retry with a smaller skip.
func ClipStartTimes(duration, skip float64, count int, clipLength float64) ([]Point, error) {
	if count < 1 {
		return nil, fmt.Errorf("clip count must be at least 1, got %d", count)
	}
	if clipLength <= 0 {
		return nil, fmt.Errorf("clip length must be positive, got %g", clipLength)
	}
	if skip < 0 {
		skip = 0
	}
	usable := duration - skip - clipLength
	if usable <= 0 {
		return nil, fmt.Errorf("duration %.2fs leaves no room for a %.2fs clip after skipping %.2fs", duration, clipLength, skip)
	}

	interval := usable / float64(count+1)
	points := make([]Point, 0, count)
	for i := 1; i <= count; i++ {
		points = append(points, Point{Index: i - 1, Seconds: skip + interval*float64(i)})
	}
	return points, nil
}

// SampleTimestamps spaces count frame timestamps evenly across the full
// duration, starting at zero.
func SampleTimestamps(duration float64, count int) ([]Point, error) {
	if count < 1 {
		return nil, fmt.Errorf("sample count must be at least 1, got %d", count)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", duration)
	}
	interval := duration / float64(count)
	points := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, Point{Index: i, Seconds: float64(i) * interval})
	}
	return points, nil
}

// Interval reports the spacing used by SampleTimestamps for the given
// duration and count. Callers use it to compute cue end times.
func Interval(duration float64, count int) float64 {
	if count < 1 {
		return 0
	}
	return duration / float64(count)
}

// GridPlacement maps a tile index to its rectangle in a sprite sheet
// laid out row-major with the given column count.
func GridPlacement(index, columns, tileWidth, tileHeight int) Rect {
	if columns < 1 {
		columns = 1
	}
	return Rect{
		X:      (index % columns) * tileWidth,
		Y:      (index / columns) * tileHeight,
		Width:  tileWidth,
		Height: tileHeight,
	}
}

// FormatTimecode renders seconds as "HH:MM:SS.mmm" for caption cues.
// Milliseconds are truncated, not rounded, so cue boundaries never
// overshoot the sampled timestamp.
func FormatTimecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	whole := int(seconds)
	millis := int((seconds - float64(whole)) * 1000)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
