/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Seednode/hostroulette/storage"
)

var ErrSessionClosed = errors.New("session closed")

// Clock schedules callbacks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type EventKind string

const (
	// EventState carries a new snapshot after every accepted transition.
	EventState EventKind = "state"

	// EventSpin tells the wheel to start turning toward Spin.FinalRotation.
	EventSpin EventKind = "spin"
)

type Event struct {
	Kind  EventKind
	State State
	Spin  *SpinPlan
}

type Options struct {
	Store        storage.Store
	Selector     *Selector
	Clock        Clock
	SpinDelay    time.Duration
	SpinDuration time.Duration
	Logf         storage.Logf
}

type request struct {
	action Action
	reply  chan result
}

type result struct {
	state State
	err   error
}

// Session owns one roster and runs every transition on a single goroutine.
// Actions arrive through Dispatch, from the round timers, and from the
// storage mirror; listeners receive Events through Subscribe.
type Session struct {
	opts Options

	actions chan request
	stopped chan struct{}

	mu      sync.RWMutex
	current State
	subs    map[int]chan Event
	nextSub int

	warned atomic.Bool

	// owned by the loop goroutine
	state  State
	timers []Timer
	mirror *mirror
}

// NewSession loads saved data from opts.Store and returns a session in Setup.
// Call Run to start processing actions.
func NewSession(opts Options) (*Session, error) {
	if opts.Store == nil {
		opts.Store = storage.Unavailable{}
	}
	if opts.Selector == nil {
		sel, err := NewSelector()
		if err != nil {
			return nil, err
		}
		opts.Selector = sel
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.SpinDelay <= 0 {
		opts.SpinDelay = DefaultSpinDelay
	}
	if opts.SpinDuration <= 0 {
		opts.SpinDuration = DefaultSpinDuration
	}

	roster, recent, available := Load(opts.Store, opts.Logf)

	s := &Session{
		opts:    opts,
		actions: make(chan request, 16),
		stopped: make(chan struct{}),
		subs:    make(map[int]chan Event),
		state: State{
			Roster:         roster,
			Recent:         recent,
			Phase:          PhaseSetup,
			StorageWarning: !available,
		},
	}
	s.current = s.state
	s.warned.Store(!available)

	if !available {
		logMsg(opts.Logf, "STORE: %v", ErrStorageUnavailable)
	}

	return s, nil
}

// Run processes actions until ctx is cancelled. Pending timers are cancelled
// and outstanding writes flushed before it returns.
func (s *Session) Run(ctx context.Context) {
	s.mirror = newMirror(s.opts.Store, s.storageFailed)
	go s.mirror.run()

	defer func() {
		s.cancelTimers()
		close(s.stopped)
		s.mirror.close()

		s.mu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.actions:
			state, err := s.apply(req.action)
			if req.reply != nil {
				req.reply <- result{state: state, err: err}
			}
		}
	}
}

// Dispatch hands a to the session loop and waits for the outcome. A Start
// without a Draw is drawn by the session from the current eligible set.
func (s *Session) Dispatch(ctx context.Context, a Action) (State, error) {
	reply := make(chan result, 1)

	select {
	case s.actions <- request{action: a, reply: reply}:
	case <-s.stopped:
		return State{}, ErrSessionClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.state, r.err
	case <-s.stopped:
		return State{}, ErrSessionClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Snapshot returns the most recently published state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Subscribe registers a listener. Slow listeners are dropped rather than
// allowed to stall the loop; their channel is closed when that happens. After
// the session has stopped the returned channel is already closed.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 16)

	select {
	case <-s.stopped:
		close(ch)
		return ch, func() {}
	default:
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

// enqueue posts an action without waiting for its result. It gives up if the
// session has stopped.
func (s *Session) enqueue(a Action) {
	select {
	case s.actions <- request{action: a}:
	case <-s.stopped:
	}
}

func (s *Session) apply(a Action) (State, error) {
	if st, ok := a.(Start); ok && st.Draw == nil && s.state.Phase == PhaseSetup {
		if eligible := s.state.Eligible(); len(eligible) > 0 {
			draw, err := s.opts.Selector.SelectWinner(eligible)
			if err == nil {
				st.Draw = &draw
			}
		}
		a = st
	}

	prev := s.state
	next, err := Reduce(prev, a)

	switch {
	case errors.Is(err, ErrInvalidWinner):
		logMsg(s.opts.Logf, "ROUND: %v", err)
	case errors.Is(err, ErrStaleCompletion):
		return prev, err
	}

	s.state = next

	if _, cleared := a.(Clear); err == nil || next.Error != prev.Error {
		s.mirror.sync(prev, next, cleared && err == nil)
		s.publish(Event{Kind: EventState, State: next})
	}

	// Timers are armed only after the new state is visible to Snapshot.
	if err == nil {
		s.afterTransition(next, a)
	} else if next.Phase != PhaseSelecting {
		s.cancelTimers()
	}

	return next, err
}

func (s *Session) afterTransition(next State, a Action) {
	switch a.(type) {
	case Start:
		s.cancelTimers()
		s.scheduleRound(next)
		logMsg(s.opts.Logf, "ROUND: Started round %d with %d candidate(s)", next.Round, len(next.Draw.Candidates))
	case Complete:
		s.cancelTimers()
		logMsg(s.opts.Logf, "ROUND: %q will host (round %d)", next.Winner, next.Round)
	case SelectAgain, Reset:
		s.cancelTimers()
	}
}

// scheduleRound arms the two timers that belong to round: the spin start and
// the completion. Both are cancelled on any exit from Selecting.
func (s *Session) scheduleRound(state State) {
	draw := state.Draw
	round := state.Round
	plan := PlanSpin(draw.Candidates, draw.Index, draw.Turns, s.opts.SpinDelay, s.opts.SpinDuration)

	spin := s.opts.Clock.AfterFunc(s.opts.SpinDelay, func() {
		s.publishSpin(Event{Kind: EventSpin, State: state, Spin: &plan})
	})

	done := s.opts.Clock.AfterFunc(s.opts.SpinDelay+s.opts.SpinDuration, func() {
		s.enqueue(Complete{Round: round, Winner: draw.Winner.Name})
	})

	s.timers = append(s.timers, spin, done)
}

func (s *Session) cancelTimers() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Session) storageFailed() {
	if !s.warned.CompareAndSwap(false, true) {
		return
	}
	logMsg(s.opts.Logf, "STORE: %v", ErrStorageUnavailable)
	s.enqueue(StorageFailed{})
}

func (s *Session) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.publishLocked(e)
}

// publishSpin sends e only while its round is still the one being selected.
// The check and the send share the lock with state updates, so a round that
// was reset in the meantime never starts spinning.
func (s *Session) publishSpin(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Phase != PhaseSelecting || s.current.Round != e.State.Round {
		return
	}
	s.publishLocked(e)
}

func (s *Session) publishLocked(e Event) {
	if e.Kind == EventState {
		s.current = e.State
	}

	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			close(ch)
			delete(s.subs, id)
		}
	}
}
