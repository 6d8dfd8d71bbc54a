package roulette

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("p%d", i)
	}
	return out
}

func TestPlanSpin_LandsOnWinner(t *testing.T) {
	for n := 1; n <= 13; n++ {
		for index := range n {
			for turns := minTurns; turns <= maxTurns; turns++ {
				plan := PlanSpin(names(n), index, turns, DefaultSpinDelay, DefaultSpinDuration)

				require.Equal(t, index, Landing(plan.FinalRotation, n), "n=%d index=%d turns=%d", n, index, turns)
				require.GreaterOrEqual(t, plan.FinalRotation, float64(turns)*360)
			}
		}
	}
}

func TestPlanSpin_Fields(t *testing.T) {
	plan := PlanSpin([]string{"Alice", "Bob", "Carol", "Dave"}, 1, 5, 100*time.Millisecond, 3*time.Second)

	require.Equal(t, 1, plan.WinnerIndex)
	require.InDelta(t, 90.0, plan.SegmentAngle, 1e-9)
	require.InDelta(t, 5*360+270-45, plan.FinalRotation, 1e-9)
	require.Equal(t, int64(100), plan.DelayMS)
	require.Equal(t, int64(3000), plan.DurationMS)
	require.Len(t, plan.Segments, 4)
}

func TestPlanSpin_Empty(t *testing.T) {
	plan := PlanSpin(nil, 0, 5, 0, 0)
	require.Equal(t, -1, plan.WinnerIndex)
	require.Equal(t, -1, Landing(0, 0))
}

func TestSegments(t *testing.T) {
	segments := Segments(names(10))

	require.Len(t, segments, 10)
	require.InDelta(t, -90.0, segments[0].Start, 1e-9)
	require.InDelta(t, 270.0, segments[9].End, 1e-9)
	require.Equal(t, Palette[0], segments[0].Color)
	require.Equal(t, Palette[1], segments[9].Color)

	for i := 1; i < len(segments); i++ {
		require.InDelta(t, segments[i-1].End, segments[i].Start, 1e-9)
	}

	require.Nil(t, Segments(nil))
}

func TestLabel(t *testing.T) {
	require.Equal(t, "Alice", Label("Alice"))
	require.Equal(t, "Maximiliana1", Label("Maximiliana1"))
	require.Equal(t, "Maximilian...", Label("Maximiliana12"))
	require.Equal(t, strings.Repeat("ж", 10)+"...", Label(strings.Repeat("ж", 20)))
}
