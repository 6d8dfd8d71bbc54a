/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import "github.com/samber/lo"

// Eligible returns, in roster order, everyone who is present and has not hosted
// in the current window. An empty result is valid; callers decide what to do
// with it.
func Eligible(roster Roster, window RecencyWindow) []Participant {
	return lo.Filter(roster, func(p Participant, _ int) bool {
		return !p.IsAbsent && !window.Contains(p.Name)
	})
}
