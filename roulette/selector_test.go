package roulette

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectWinner_Empty(t *testing.T) {
	_, err := NewSeededSelector(1, 1).SelectWinner(nil)
	require.ErrorIs(t, err, ErrInsufficientCandidates)
}

func TestSelectWinner_Single(t *testing.T) {
	draw, err := NewSeededSelector(3, 4).SelectWinner([]Participant{{Name: "Alice"}})

	require.NoError(t, err)
	require.Equal(t, "Alice", draw.Winner.Name)
	require.Zero(t, draw.Index)
	require.Equal(t, []string{"Alice"}, draw.Candidates)
}

func TestSelectWinner_ConsistentDraw(t *testing.T) {
	sel := NewSeededSelector(5, 6)
	eligible := []Participant{{Name: "Bob"}, {Name: "Carol"}, {Name: "Dave"}}

	for range 200 {
		draw, err := sel.SelectWinner(eligible)
		require.NoError(t, err)

		require.Equal(t, eligible[draw.Index], draw.Winner)
		require.Equal(t, []string{"Bob", "Carol", "Dave"}, draw.Candidates)
		require.GreaterOrEqual(t, draw.Turns, minTurns)
		require.LessOrEqual(t, draw.Turns, maxTurns)
	}
}

func TestSelectWinner_Uniform(t *testing.T) {
	const trials = 10000

	sel := NewSeededSelector(42, 1337)
	eligible := []Participant{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}

	counts := make(map[string]int)
	for range trials {
		draw, err := sel.SelectWinner(eligible)
		require.NoError(t, err)
		counts[draw.Winner.Name]++
	}

	for _, p := range eligible {
		freq := float64(counts[p.Name]) / trials
		require.InDelta(t, 0.25, freq, 0.03, "%s picked %d times", p.Name, counts[p.Name])
	}
}

func TestNewSelector(t *testing.T) {
	sel, err := NewSelector()
	require.NoError(t, err)

	draw, err := sel.SelectWinner([]Participant{{Name: "Alice"}, {Name: "Bob"}})
	require.NoError(t, err)
	require.Contains(t, []string{"Alice", "Bob"}, draw.Winner.Name)
}
