/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import "time"

const (
	minTurns = 5
	maxTurns = 7

	// DefaultSpinDelay is the pause before the wheel starts turning.
	DefaultSpinDelay = 100 * time.Millisecond

	// DefaultSpinDuration is how long a round lasts before the result is shown.
	DefaultSpinDuration = 3 * time.Second

	labelLimit   = 12
	labelKeep    = 10
	labelEllipse = "..."
)

// Palette is cycled over wheel segments.
var Palette = []string{
	"#14B8A6", // teal
	"#F97316", // orange
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#10B981", // green
	"#F59E0B", // amber
	"#3B82F6", // blue
	"#EF4444", // red
}

// Segment is one slice of the wheel.
type Segment struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SpinPlan describes how the wheel animates toward an already chosen winner.
// It carries no randomness of its own.
type SpinPlan struct {
	WinnerIndex   int           `json:"winnerIndex"`
	SegmentAngle  float64       `json:"segmentAngle"`
	FinalRotation float64       `json:"finalRotation"`
	Delay         time.Duration `json:"-"`
	Duration      time.Duration `json:"-"`
	DelayMS       int64         `json:"delayMs"`
	DurationMS    int64         `json:"durationMs"`
	Segments      []Segment     `json:"segments"`
}

// PlanSpin computes the rotation that brings segment index under the pointer
// at the top of a wheel of len(names) segments, after turns full revolutions.
// turns must be whole so the wheel stops on the winner.
func PlanSpin(names []string, index int, turns int, delay, duration time.Duration) SpinPlan {
	n := len(names)
	if n == 0 {
		return SpinPlan{WinnerIndex: -1}
	}

	segment := 360.0 / float64(n)
	target := float64(index) * segment

	return SpinPlan{
		WinnerIndex:   index,
		SegmentAngle:  segment,
		FinalRotation: float64(turns)*360 + (360 - target) - segment/2,
		Delay:         delay,
		Duration:      duration,
		DelayMS:       delay.Milliseconds(),
		DurationMS:    duration.Milliseconds(),
		Segments:      Segments(names),
	}
}

// Segments lays names out clockwise from the top of the wheel.
func Segments(names []string) []Segment {
	if len(names) == 0 {
		return nil
	}

	angle := 360.0 / float64(len(names))
	segments := make([]Segment, len(names))
	for i, name := range names {
		start := float64(i)*angle - 90
		segments[i] = Segment{
			Name:  name,
			Label: Label(name),
			Color: Palette[i%len(Palette)],
			Start: start,
			End:   start + angle,
		}
	}

	return segments
}

// Label shortens long names so they fit inside a wheel segment.
func Label(name string) string {
	r := []rune(name)
	if len(r) <= labelLimit {
		return name
	}
	return string(r[:labelKeep]) + labelEllipse
}

// Landing returns the segment index sitting under the pointer once the wheel
// has rotated by rotation degrees. It is the inverse of PlanSpin.
func Landing(rotation float64, n int) int {
	if n <= 0 {
		return -1
	}

	segment := 360.0 / float64(n)
	offset := 360 - mod360(rotation)
	return int(mod360(offset)/segment) % n
}

func mod360(v float64) float64 {
	for v < 0 {
		v += 360
	}
	for v >= 360 {
		v -= 360
	}
	return v
}
