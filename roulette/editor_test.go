package roulette

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRosterText(t *testing.T) {
	long := strings.Repeat("a", MaxNameLength+1)
	exact := strings.Repeat("ё", MaxNameLength)

	tests := []struct {
		name       string
		text       string
		want       []string
		duplicates bool
		dropped    int
	}{
		{"one per line", "Alice\nBob\nCarol", []string{"Alice", "Bob", "Carol"}, false, 0},
		{"trims and skips blanks", "  Alice \n\n\t\nBob\n", []string{"Alice", "Bob"}, false, 0},
		{"windows line endings", "Alice\r\nBob\r\n", []string{"Alice", "Bob"}, false, 0},
		{"duplicates folded", "Alice\nAlice\nBob", []string{"Alice", "Bob"}, true, 0},
		{"duplicates after trimming", "Alice\n Alice ", []string{"Alice"}, true, 0},
		{"long names dropped", "Alice\n" + long, []string{"Alice"}, false, 1},
		{"limit counts runes", exact, []string{exact}, false, 0},
		{"case sensitive", "alice\nAlice", []string{"alice", "Alice"}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRosterText(tt.text)

			require.NoError(t, err)
			require.Equal(t, tt.want, got.Names)
			require.Equal(t, tt.duplicates, got.Duplicates)
			require.Equal(t, tt.dropped, got.Dropped)
		})
	}
}

func TestParseRosterText_Rejected(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		_, err := ParseRosterText(text)
		require.True(t, IsValidation(err), "text %q", text)
		require.ErrorContains(t, err, "add at least one name")
	}

	_, err := ParseRosterText(strings.Repeat("b", MaxNameLength+1))
	require.True(t, IsValidation(err))
	require.ErrorContains(t, err, "enter valid names")
}
