/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roulette picks who hosts the next meeting.
//
// Everyone on the roster is a candidate unless they are marked absent or were
// one of the last two hosts. A winner is drawn uniformly from the remaining
// candidates, the wheel is animated toward that winner, and once it stops the
// winner joins the recent-host window.
//
// Features:
//   - Roster edited as plain text, one name per line, duplicates folded
//   - Absence flags survive roster edits for names that stay
//   - Two-host cooldown window, pruned when names leave the roster
//   - Reducer-style State transitions; randomness only enters through a Draw
//   - One goroutine per Session; round timers cancelled on every exit path
//   - Roster and window mirrored to a storage.Store, best effort
package roulette
