/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// MaxNameLength is the longest accepted participant name, in runes.
const MaxNameLength = 100

var validate = validator.New()

// Participant is a single roster entry. The JSON form is what gets persisted.
type Participant struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsAbsent bool   `json:"isAbsent"`
}

func (p Participant) Validate() error {
	return validate.Struct(p)
}

// Roster is the ordered list of participants, in editor order.
type Roster []Participant

// Names returns participant names in roster order.
func (r Roster) Names() []string {
	return lo.Map(r, func(p Participant, _ int) string {
		return p.Name
	})
}

// Text renders the roster the way the editor expects it: one name per line.
func (r Roster) Text() string {
	return strings.Join(r.Names(), "\n")
}

func (r Roster) Contains(name string) bool {
	return lo.ContainsBy(r, func(p Participant) bool {
		return p.Name == name
	})
}

// Present counts participants not flagged absent.
func (r Roster) Present() int {
	return lo.CountBy(r, func(p Participant) bool {
		return !p.IsAbsent
	})
}

// ToggleAbsent flips the absence flag of the participant at index and returns
// a new roster. The receiver is never modified.
func (r Roster) ToggleAbsent(index int) (Roster, error) {
	if index < 0 || index >= len(r) {
		return r, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	updated := r.clone()
	updated[index].IsAbsent = !updated[index].IsAbsent

	return updated, nil
}

// Merge builds the roster that results from saving names over r. Names already
// present keep their absence flag, new names start present, and anything not in
// names is dropped.
func (r Roster) Merge(names []string) Roster {
	absent := make(map[string]bool, len(r))
	for _, p := range r {
		absent[p.Name] = p.IsAbsent
	}

	merged := make(Roster, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		merged = append(merged, Participant{
			Name:     name,
			IsAbsent: absent[name],
		})
	}

	return merged
}

// Sanitize drops entries that fail validation and repeated names, keeping the
// first occurrence. It is applied to rosters read back from storage.
func (r Roster) Sanitize() (Roster, int) {
	seen := make(map[string]bool, len(r))
	clean := make(Roster, 0, len(r))

	for _, p := range r {
		p.Name = strings.TrimSpace(p.Name)
		if p.Validate() != nil || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		clean = append(clean, p)
	}

	return clean, len(r) - len(clean)
}

func (r Roster) clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}
