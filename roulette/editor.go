/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Parsed is the result of reading the roster editor's text.
type Parsed struct {
	Names      []string
	Duplicates bool
	// Dropped counts non-empty lines rejected for being too long.
	Dropped int
}

// ParseRosterText reads one name per line. Lines are trimmed, blank lines and
// names longer than MaxNameLength are discarded, and repeated names are folded
// into their first occurrence. It fails only when no usable name remains.
func ParseRosterText(text string) (Parsed, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return Parsed{}, validationError("add at least one name")
	}

	valid := lo.Filter(names, func(name string, _ int) bool {
		return utf8.RuneCountInString(name) <= MaxNameLength
	})
	if len(valid) == 0 {
		return Parsed{}, validationError("enter valid names")
	}

	unique := lo.Uniq(valid)

	return Parsed{
		Names:      unique,
		Duplicates: len(unique) != len(valid),
		Dropped:    len(names) - len(valid),
	}, nil
}
