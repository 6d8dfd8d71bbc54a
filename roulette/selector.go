/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Draw is the outcome of a selection: the winner, where it sits among the
// candidates, and the cosmetic number of turns the wheel makes on the way.
type Draw struct {
	Winner     Participant
	Index      int
	Candidates []string
	Turns      int
}

// Selector draws winners uniformly. It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector seeded from crypto/rand.
func NewSelector() (*Selector, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}

	return NewSeededSelector(seed, seed>>32|seed<<32), nil
}

// NewSeededSelector returns a deterministic Selector, for tests and replays.
func NewSeededSelector(seed1, seed2 uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// SelectWinner picks one of eligible with equal probability. The winner is
// fixed before any animation parameters are derived from it.
func (s *Selector) SelectWinner(eligible []Participant) (Draw, error) {
	if len(eligible) == 0 {
		return Draw{}, ErrInsufficientCandidates
	}

	s.mu.Lock()
	index := s.rng.IntN(len(eligible))
	turns := minTurns + s.rng.IntN(maxTurns-minTurns+1)
	s.mu.Unlock()

	candidates := make([]string, len(eligible))
	for i, p := range eligible {
		candidates[i] = p.Name
	}

	return Draw{
		Winner:     eligible[index],
		Index:      index,
		Candidates: candidates,
		Turns:      turns,
	}, nil
}

func newSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
