/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roulette

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/Seednode/hostroulette/storage"
	"github.com/samber/lo"
)

const (
	KeyParticipants = "participants"
	KeyLastTwoHosts = "lastTwoHosts"
)

// Load reads the saved roster and host history. Unreadable values are logged
// and skipped. available is false when the store cannot be used at all.
func Load(store storage.Store, logf storage.Logf) (roster Roster, recent RecencyWindow, available bool) {
	if !store.IsAvailable() {
		return nil, nil, false
	}

	if raw, ok := store.Get(KeyParticipants); ok {
		if err := json.Unmarshal([]byte(raw), &roster); err != nil {
			logMsg(logf, "LOAD: Failed to parse saved participants: %v", err)
			roster = nil
		}
	}

	if raw, ok := store.Get(KeyLastTwoHosts); ok {
		if err := json.Unmarshal([]byte(raw), &recent); err != nil {
			logMsg(logf, "LOAD: Failed to parse saved hosts: %v", err)
			recent = nil
		}
	}

	roster, dropped := roster.Sanitize()
	if dropped > 0 {
		logMsg(logf, "LOAD: Dropped %d invalid saved participant(s)", dropped)
	}

	recent = lo.Uniq(recent)
	if len(recent) > WindowSize {
		recent = recent[:WindowSize]
	}
	recent = Prune(recent, roster.Names())

	return roster, recent, true
}

func logMsg(logf storage.Logf, format string, args ...any) {
	if logf != nil {
		logf(format, args...)
	}
}

type writeOp struct {
	value  string
	remove bool
}

// mirror copies state into the store from its own goroutine. Only the latest
// pending write per key is kept, and a failed write never reaches the caller
// beyond the onFailure hook.
type mirror struct {
	store     storage.Store
	onFailure func()

	mu      sync.Mutex
	pending map[string]writeOp
	order   []string

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newMirror(store storage.Store, onFailure func()) *mirror {
	return &mirror{
		store:     store,
		onFailure: onFailure,
		pending:   make(map[string]writeOp),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (m *mirror) run() {
	defer close(m.done)

	for {
		select {
		case <-m.wake:
			m.flush()
		case <-m.quit:
			m.flush()
			return
		}
	}
}

func (m *mirror) put(key string, op writeOp) {
	m.mu.Lock()
	if _, ok := m.pending[key]; !ok {
		m.order = append(m.order, key)
	}
	m.pending[key] = op
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mirror) flush() {
	m.mu.Lock()
	pending, order := m.pending, m.order
	m.pending = make(map[string]writeOp)
	m.order = nil
	m.mu.Unlock()

	for _, key := range order {
		op := pending[key]

		var ok bool
		if op.remove {
			ok = m.store.Remove(key)
		} else {
			ok = m.store.Set(key, op.value)
		}

		if !ok && m.onFailure != nil {
			m.onFailure()
		}
	}
}

// close drains outstanding writes and waits for them to finish.
func (m *mirror) close() {
	close(m.quit)
	<-m.done
}

// sync queues whatever changed between prev and next.
func (m *mirror) sync(prev, next State, cleared bool) {
	if cleared {
		m.put(KeyParticipants, writeOp{remove: true})
		m.put(KeyLastTwoHosts, writeOp{remove: true})
		return
	}

	if !slices.Equal(prev.Roster, next.Roster) && len(next.Roster) > 0 {
		if data, err := json.Marshal(next.Roster); err == nil {
			m.put(KeyParticipants, writeOp{value: string(data)})
		}
	}

	if !slices.Equal(prev.Recent, next.Recent) {
		recent := next.Recent
		if recent == nil {
			recent = RecencyWindow{}
		}
		if data, err := json.Marshal(recent); err == nil {
			m.put(KeyLastTwoHosts, writeOp{value: string(data)})
		}
	}
}
