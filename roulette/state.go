/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"fmt"
	"slices"
	"strings"
)

// Phase is where the session sits in a round.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseSelecting
	PhaseResultShown
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseSelecting:
		return "selecting"
	case PhaseResultShown:
		return "result"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one immutable snapshot of a session. Transitions never modify a
// State in place; Reduce always hands back a fresh value.
type State struct {
	Roster Roster
	Recent RecencyWindow
	Phase  Phase

	// Winner is set only while the result is shown.
	Winner string

	// Round identifies the current selection attempt. Completions carrying any
	// other round are stale.
	Round uint64
	Draw  *Draw

	Error          string
	Editing        bool
	StorageWarning bool
}

// Eligible is a convenience for Eligible(s.Roster, s.Recent).
func (s State) Eligible() []Participant {
	return Eligible(s.Roster, s.Recent)
}

// Action is anything Reduce knows how to apply.
type Action interface {
	Name() string
}

// SaveRoster replaces the roster with the names in Text. Confirm acknowledges
// the duplicate names warning.
type SaveRoster struct {
	Text    string
	Confirm bool
}

type ToggleAbsent struct {
	Index int
}

// Start begins a round with a winner that has already been drawn from the
// current eligible set. Draw is nil when there was nothing to draw from.
type Start struct {
	Draw *Draw
}

// Complete is sent by the wheel once it stops.
type Complete struct {
	Round  uint64
	Winner string
}

type (
	SelectAgain   struct{}
	OpenEditor    struct{}
	CloseEditor   struct{}
	Clear         struct{}
	Reset         struct{}
	StorageFailed struct{}
)

func (SaveRoster) Name() string    { return "save_roster" }
func (ToggleAbsent) Name() string  { return "toggle_absent" }
func (Start) Name() string         { return "start" }
func (Complete) Name() string      { return "complete" }
func (SelectAgain) Name() string   { return "select_again" }
func (OpenEditor) Name() string    { return "open_editor" }
func (CloseEditor) Name() string   { return "close_editor" }
func (Clear) Name() string         { return "clear" }
func (Reset) Name() string         { return "reset" }
func (StorageFailed) Name() string { return "storage_failed" }

// Reduce applies a to s. When an error is returned, the returned State is the
// one the session should keep: for some errors that is s untouched, for others
// the machine falls back to Setup with an error message.
func Reduce(s State, a Action) (State, error) {
	if s.Phase == PhaseSelecting {
		switch a.(type) {
		case Complete, Reset, StorageFailed:
		default:
			return s, ErrSelectionInProgress
		}
	}

	switch a := a.(type) {
	case SaveRoster:
		return saveRoster(s, a)
	case ToggleAbsent:
		return toggleAbsent(s, a)
	case Start:
		return start(s, a)
	case Complete:
		return complete(s, a)
	case SelectAgain:
		next := s.clone()
		next.Error = ""
		next.Phase = PhaseSetup
		next.Winner = ""
		next.Draw = nil
		return next, nil
	case OpenEditor:
		next := s.clone()
		next.Editing = true
		return next, nil
	case CloseEditor:
		next := s.clone()
		next.Editing = false
		return next, nil
	case Clear:
		next := s.clone()
		next.Error = ""
		next.Phase = PhaseSetup
		next.Winner = ""
		next.Draw = nil
		next.Roster = nil
		next.Recent = nil
		return next, nil
	case Reset:
		next := s.clone()
		next.Error = ""
		next.Phase = PhaseSetup
		next.Winner = ""
		next.Draw = nil
		next.Editing = false
		return next, nil
	case StorageFailed:
		next := s.clone()
		next.StorageWarning = true
		return next, nil
	default:
		return s, fmt.Errorf("unknown action %q", a.Name())
	}
}

func saveRoster(s State, a SaveRoster) (State, error) {
	parsed, err := ParseRosterText(a.Text)
	if err != nil {
		return s, err
	}
	if parsed.Duplicates && !a.Confirm {
		return s, ErrDuplicateNames
	}

	next := s.clone()
	next.Error = ""
	next.Roster = s.Roster.Merge(parsed.Names)
	next.Recent = Prune(s.Recent, next.Roster.Names())
	next.Editing = false

	return next, nil
}

func toggleAbsent(s State, a ToggleAbsent) (State, error) {
	roster, err := s.Roster.ToggleAbsent(a.Index)
	if err != nil {
		return s, err
	}

	next := s.clone()
	next.Error = ""
	next.Roster = roster

	return next, nil
}

func start(s State, a Start) (State, error) {
	if s.Phase != PhaseSetup {
		return s, ErrResultShown
	}

	next := s.clone()
	next.Error = ""

	eligible := s.Eligible()
	if len(eligible) == 0 {
		next.Phase = PhaseSetup
		next.Error = ErrInsufficientCandidates.Error()
		return next, ErrInsufficientCandidates
	}

	if err := checkDraw(a.Draw, eligible); err != nil {
		next.Phase = PhaseSetup
		next.Error = ErrInvalidWinner.Error()
		return next, err
	}

	next.Phase = PhaseSelecting
	next.Round = s.Round + 1
	next.Winner = ""
	next.Draw = a.Draw
	next.Editing = false

	return next, nil
}

// checkDraw makes sure the draw was taken from exactly the candidates that are
// eligible now.
func checkDraw(d *Draw, eligible []Participant) error {
	if d == nil {
		return fmt.Errorf("%w: no draw", ErrInvalidWinner)
	}

	names := make([]string, len(eligible))
	for i, p := range eligible {
		names[i] = p.Name
	}

	switch {
	case !slices.Equal(d.Candidates, names):
		return fmt.Errorf("%w: draw taken from a different candidate set", ErrInvalidWinner)
	case d.Index < 0 || d.Index >= len(names):
		return fmt.Errorf("%w: index %d out of range", ErrInvalidWinner, d.Index)
	case names[d.Index] != d.Winner.Name:
		return fmt.Errorf("%w: %q is not at index %d", ErrInvalidWinner, d.Winner.Name, d.Index)
	}

	return nil
}

func complete(s State, a Complete) (State, error) {
	if s.Phase != PhaseSelecting || a.Round != s.Round {
		return s, ErrStaleCompletion
	}

	next := s.clone()
	next.Error = ""
	next.Draw = nil

	winner := strings.TrimSpace(a.Winner)
	if winner == "" || s.Draw == nil || winner != s.Draw.Winner.Name {
		next.Phase = PhaseSetup
		next.Winner = ""
		next.Error = ErrInvalidWinner.Error()
		return next, fmt.Errorf("%w: %q", ErrInvalidWinner, a.Winner)
	}

	next.Phase = PhaseResultShown
	next.Winner = winner
	next.Recent = Advance(s.Recent, winner)

	return next, nil
}

func (s State) clone() State {
	next := s
	next.Roster = s.Roster.clone()
	if s.Recent != nil {
		next.Recent = slices.Clone(s.Recent)
	}
	return next
}
