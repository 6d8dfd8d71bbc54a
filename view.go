/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"

	"github.com/Seednode/hostroulette/roulette"
)

// Messages coming from clients
type ClientMessage struct {
	Type    string `json:"type"`              // "save_roster", "toggle_absent", "start", "select_again", "open_editor", "close_editor", "clear", "reset"
	Text    string `json:"text,omitempty"`    // save_roster
	Confirm bool   `json:"confirm,omitempty"` // save_roster / clear
	Index   *int   `json:"index,omitempty"`   // toggle_absent
}

// ParticipantView is one row of the participant list.
type ParticipantView struct {
	Name     string `json:"name"`
	IsAbsent bool   `json:"isAbsent"`
	Eligible bool   `json:"eligible"`
	HostRank int    `json:"hostRank,omitempty"` // 1 = last host, 2 = the one before
}

// StateMessage is broadcast to every client after each accepted transition.
type StateMessage struct {
	Type           string             `json:"type"` // "state"
	Phase          roulette.Phase     `json:"phase"`
	Participants   []ParticipantView  `json:"participants"`
	RecentHosts    []string           `json:"recentHosts"`
	Total          int                `json:"total"`
	EligibleCount  int                `json:"eligibleCount"`
	LastHost       string             `json:"lastHost,omitempty"`
	Winner         string             `json:"winner,omitempty"`
	Round          uint64             `json:"round"`
	Wheel          []roulette.Segment `json:"wheel,omitempty"`
	Error          string             `json:"error,omitempty"`
	Editing        bool               `json:"editing"`
	EditorText     string             `json:"editorText"`
	StorageWarning bool               `json:"storageWarning"`
}

// SpinMessage tells clients to start turning the wheel.
type SpinMessage struct {
	Type  string            `json:"type"` // "spin"
	Round uint64            `json:"round"`
	Plan  roulette.SpinPlan `json:"plan"`
}

// NoticeMessage is sent only to the client whose action was refused.
type NoticeMessage struct {
	Type    string `json:"type"`           // "alert" or "confirm"
	Action  string `json:"action"`         // action to resend with confirm=true
	Message string `json:"message"`        // user-facing text
	Text    string `json:"text,omitempty"` // editor text to resend
}

func newStateMessage(s roulette.State) StateMessage {
	eligible := make(map[string]bool)
	for _, p := range s.Eligible() {
		eligible[p.Name] = true
	}

	participants := make([]ParticipantView, 0, len(s.Roster))
	for _, p := range s.Roster {
		participants = append(participants, ParticipantView{
			Name:     p.Name,
			IsAbsent: p.IsAbsent,
			Eligible: eligible[p.Name],
			HostRank: s.Recent.Rank(p.Name),
		})
	}

	recent := []string(s.Recent)
	if recent == nil {
		recent = []string{}
	}

	msg := StateMessage{
		Type:           "state",
		Phase:          s.Phase,
		Participants:   participants,
		RecentHosts:    recent,
		Total:          len(s.Roster),
		EligibleCount:  len(eligible),
		LastHost:       s.Recent.Last(),
		Winner:         s.Winner,
		Round:          s.Round,
		Error:          s.Error,
		Editing:        s.Editing,
		EditorText:     s.Roster.Text(),
		StorageWarning: s.StorageWarning,
	}

	if s.Phase == roulette.PhaseSelecting && s.Draw != nil {
		msg.Wheel = roulette.Segments(s.Draw.Candidates)
	}

	return msg
}

func newSpinMessage(e roulette.Event) SpinMessage {
	return SpinMessage{
		Type:  "spin",
		Round: e.State.Round,
		Plan:  *e.Spin,
	}
}

// toAction maps a client message onto a session action.
func toAction(msg ClientMessage) (roulette.Action, bool) {
	switch msg.Type {
	case "save_roster":
		return roulette.SaveRoster{Text: msg.Text, Confirm: msg.Confirm}, true
	case "toggle_absent":
		if msg.Index == nil {
			return nil, false
		}
		return roulette.ToggleAbsent{Index: *msg.Index}, true
	case "start":
		return roulette.Start{}, true
	case "select_again":
		return roulette.SelectAgain{}, true
	case "open_editor":
		return roulette.OpenEditor{}, true
	case "close_editor":
		return roulette.CloseEditor{}, true
	case "clear":
		if !msg.Confirm {
			return nil, false
		}
		return roulette.Clear{}, true
	case "reset":
		return roulette.Reset{}, true
	default:
		return nil, false
	}
}

// noticeFor decides whether a refused action needs a blocking dialog on the
// client that sent it. Errors already reflected in State.Error need nothing.
func noticeFor(msg ClientMessage, err error) (NoticeMessage, bool) {
	switch {
	case errors.Is(err, roulette.ErrDuplicateNames):
		return NoticeMessage{
			Type:    "confirm",
			Action:  msg.Type,
			Message: err.Error() + ". Continue?",
			Text:    msg.Text,
		}, true
	case roulette.IsValidation(err),
		errors.Is(err, roulette.ErrSelectionInProgress),
		errors.Is(err, roulette.ErrResultShown),
		errors.Is(err, roulette.ErrInvalidIndex):
		return NoticeMessage{
			Type:    "alert",
			Action:  msg.Type,
			Message: err.Error(),
		}, true
	default:
		return NoticeMessage{}, false
	}
}
