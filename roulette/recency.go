/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"strings"

	"github.com/samber/lo"
)

// WindowSize is how many recent hosts sit out the next round.
const WindowSize = 2

// RecencyWindow holds the most recent hosts, most recent first.
type RecencyWindow []string

// Advance records winner as the latest host. The previous latest host moves to
// the second slot and anything older falls off.
func Advance(window RecencyWindow, winner string) RecencyWindow {
	candidates := []string{winner}
	if len(window) > 0 {
		candidates = append(candidates, window[0])
	}

	next := lo.Uniq(lo.Filter(candidates, func(name string, _ int) bool {
		return strings.TrimSpace(name) != ""
	}))
	if len(next) > WindowSize {
		next = next[:WindowSize]
	}

	return RecencyWindow(next)
}

// Prune drops entries whose name is no longer in names, keeping order.
func Prune(window RecencyWindow, names []string) RecencyWindow {
	known := lo.SliceToMap(names, func(name string) (string, struct{}) {
		return name, struct{}{}
	})

	return lo.Filter(window, func(name string, _ int) bool {
		_, ok := known[name]
		return ok
	})
}

func (w RecencyWindow) Contains(name string) bool {
	return lo.Contains(w, name)
}

// Rank is the 1-based position of name in the window, or 0 if absent.
func (w RecencyWindow) Rank(name string) int {
	return lo.IndexOf(w, name) + 1
}

// Last returns the most recent host, if any.
func (w RecencyWindow) Last() string {
	if len(w) == 0 {
		return ""
	}
	return w[0]
}
