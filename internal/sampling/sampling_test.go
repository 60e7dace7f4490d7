package sampling

import (
	"math"
	"testing"
)

func TestClipStartTimesProperties(t *testing.T) {
	cases := []struct {
		name       string
		duration   float64
		skip       float64
		count      int
		clipLength float64
	}{
		{"typical", 1800, 15, 15, 1},
		{"short video", 45, 15, 5, 1},
		{"long clips", 3600, 30, 10, 5},
		{"single clip", 120, 0, 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := ClipStartTimes(tc.duration, tc.skip, tc.count, tc.clipLength)
			if err != nil {
				t.Fatalf("ClipStartTimes: %v", err)
			}
			if len(points) != tc.count {
				t.Fatalf("got %d points, want %d", len(points), tc.count)
			}
			prev := math.Inf(-1)
			for _, p := range points {
				if p.Seconds <= prev {
					t.Fatalf("start times not strictly increasing: %v", points)
				}
				prev = p.Seconds
				if p.Seconds < tc.skip || p.Seconds > tc.duration-tc.clipLength {
					t.Fatalf("start %.3f outside [%g, %g]", p.Seconds, tc.skip, tc.duration-tc.clipLength)
				}
			}
		})
	}
}

func TestClipStartTimesFormula(t *testing.T) {
	// duration 100, skip 10, 4 clips of length 10: interval = 80/5 = 16.
	points, err := ClipStartTimes(100, 10, 4, 10)
	if err != nil {
		t.Fatalf("ClipStartTimes: %v", err)
	}
	want := []float64{26, 42, 58, 74}
	for i, p := range points {
		if math.Abs(p.Seconds-want[i]) > 1e-9 {
			t.Fatalf("point %d = %.3f, want %.3f", i, p.Seconds, want[i])
		}
		if p.Index != i {
			t.Fatalf("point %d has index %d", i, p.Index)
		}
	}
}

func TestClipStartTimesRejectsDegenerateSpan(t *testing.T) {
	if _, err := ClipStartTimes(10, 15, 5, 1); err == nil {
		t.Fatal("expected error when skip exceeds duration")
	}
	if _, err := ClipStartTimes(16, 15, 5, 1); err == nil {
		t.Fatal("expected error when no usable span remains")
	}
	if _, err := ClipStartTimes(100, 0, 0, 1); err == nil {
		t.Fatal("expected error for zero clip count")
	}
	if _, err := ClipStartTimes(100, 0, 5, 0); err == nil {
		t.Fatal("expected error for zero clip length")
	}
}

func TestSampleTimestamps(t *testing.T) {
	points, err := SampleTimestamps(81, 81)
	if err != nil {
		t.Fatalf("SampleTimestamps: %v", err)
	}
	if len(points) != 81 {
		t.Fatalf("got %d points, want 81", len(points))
	}
	if points[0].Seconds != 0 {
		t.Fatalf("first timestamp = %g, want 0", points[0].Seconds)
	}
	interval := Interval(81, 81)
	for i, p := range points {
		if math.Abs(p.Seconds-float64(i)*interval) > 1e-9 {
			t.Fatalf("point %d = %.6f, want %.6f", i, p.Seconds, float64(i)*interval)
		}
	}
}

func TestSampleTimestampsRejectsBadInput(t *testing.T) {
	if _, err := SampleTimestamps(0, 5); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := SampleTimestamps(10, 0); err == nil {
		t.Fatal("expected error for zero count")
	}
}

func TestGridPlacement(t *testing.T) {
	// Wrapping to the second row.
	if got := GridPlacement(9, 9, 160, 90); got != (Rect{X: 0, Y: 90, Width: 160, Height: 90}) {
		t.Fatalf("GridPlacement(9) = %+v", got)
	}
	if got := GridPlacement(0, 9, 160, 90); got != (Rect{X: 0, Y: 0, Width: 160, Height: 90}) {
		t.Fatalf("GridPlacement(0) = %+v", got)
	}
	if got := GridPlacement(13, 9, 160, 90); got != (Rect{X: 4 * 160, Y: 90, Width: 160, Height: 90}) {
		t.Fatalf("GridPlacement(13) = %+v", got)
	}
}

func TestGridPlacementInjective(t *testing.T) {
	const columns, rows = 9, 9
	seen := map[Rect]int{}
	for i := 0; i < columns*rows; i++ {
		r := GridPlacement(i, columns, 160, 90)
		if prev, dup := seen[r]; dup {
			t.Fatalf("indices %d and %d share placement %+v", prev, i, r)
		}
		seen[r] = i
	}
}

func TestFormatTimecode(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{3661.5, "01:01:01.500"},
		{59.9994, "00:00:59.999"},
		{7322.25, "02:02:02.250"},
		{-5, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := FormatTimecode(tc.in); got != tc.want {
			t.Fatalf("FormatTimecode(%g) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
