/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateNames         = errors.New("the list contains duplicate names; they will be removed")
	ErrInsufficientCandidates = errors.New("not enough people: add more names or untick absent participants")
	ErrInvalidWinner          = errors.New("an error occurred while picking the host")
	ErrInvalidIndex           = errors.New("invalid participant index")
	ErrSelectionInProgress    = errors.New("a selection is already in progress")
	ErrResultShown            = errors.New("select again before starting a new round")
	ErrStaleCompletion        = errors.New("completion does not belong to the current round")
	ErrStorageUnavailable     = errors.New("storage unavailable: changes will not survive a restart")
)

// ValidationError blocks a roster save. The current state is left untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid roster: %s", e.Reason)
}

func validationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err (or anything it wraps) is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
