package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/hostroulette/roulette"
	"github.com/Seednode/hostroulette/storage"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

// heldClock records timers and never fires them.
type heldClock struct {
	mu     sync.Mutex
	timers []*heldTimer
}

type heldTimer struct {
	clock   *heldClock
	stopped bool
}

func (c *heldClock) AfterFunc(time.Duration, func()) roulette.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &heldTimer{clock: c}
	c.timers = append(c.timers, t)
	return t
}

func (t *heldTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// active counts timers that were scheduled and not stopped.
func (c *heldClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// newTestServer serves the wheel over a fresh in-memory session. A nil clock
// runs real timers with short spins.
func newTestServer(t *testing.T, clock roulette.Clock) (*httptest.Server, *roulette.Session) {
	t.Helper()

	cfg := validConfig()
	cfg.spinDelay = 5 * time.Millisecond
	cfg.spinDuration = 20 * time.Millisecond

	session, err := newSession(cfg, storage.NewMemory(), clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	errs := make(chan error, 16)
	mux := httprouter.New()
	mux.GET("/healthz", serveHealthCheck(cfg, errs))
	mux.GET("/api/state", serveState(cfg, session, errs))
	registerWheel(cfg, mux, session, errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-session.Done()
	})

	return srv, session
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readUntil skips messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))

		if match(msg) {
			return msg
		}
	}
}

func ofType(kind string) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		return msg["type"] == kind
	}
}

func TestWheel_Round(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dial(t, srv)

	first := readUntil(t, conn, ofType("state"))
	require.Equal(t, "setup", first["phase"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "save_roster", Text: "Alice\nBob"}))
	readUntil(t, conn, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["total"] == float64(2)
	})

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "start"}))

	selecting := readUntil(t, conn, ofType("state"))
	require.Equal(t, "selecting", selecting["phase"])
	require.NotContains(t, selecting, "winner")

	spin := readUntil(t, conn, ofType("spin"))
	plan := spin["plan"].(map[string]any)
	require.Len(t, plan["segments"], 2)

	result := readUntil(t, conn, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["phase"] == "result"
	})
	winner := result["winner"].(string)
	require.Contains(t, []string{"Alice", "Bob"}, winner)
	require.Equal(t, []any{winner}, result["recentHosts"])
	require.Equal(t, []string{"Alice", "Bob"}[int(plan["winnerIndex"].(float64))], winner)
}

func TestWheel_DuplicateConfirmation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dial(t, srv)
	readUntil(t, conn, ofType("state"))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "save_roster", Text: "Carol\nCarol"}))

	notice := readUntil(t, conn, ofType("confirm"))
	require.Equal(t, "save_roster", notice["action"])
	require.Equal(t, "Carol\nCarol", notice["text"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "save_roster", Text: "Carol\nCarol", Confirm: true}))
	saved := readUntil(t, conn, ofType("state"))
	require.Equal(t, float64(1), saved["total"])
}

func TestWheel_BroadcastsToEveryTab(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	a := dial(t, srv)
	b := dial(t, srv)
	readUntil(t, a, ofType("state"))
	readUntil(t, b, ofType("state"))

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "save_roster", Text: "Alice"}))

	got := readUntil(t, b, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["total"] == float64(1)
	})
	require.Equal(t, "Alice", got["editorText"])
}

func TestWheel_EmptyRosterAlert(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dial(t, srv)
	readUntil(t, conn, ofType("state"))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "save_roster", Text: "  \n"}))

	alert := readUntil(t, conn, ofType("alert"))
	require.Contains(t, alert["message"], "add at least one name")
}

func TestServeState(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var msg map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Equal(t, roulette.PhaseSetup.String(), msg["phase"])
	require.Equal(t, float64(0), msg["total"])
	require.Equal(t, false, msg["storageWarning"])
}

func TestServeHomeAndQR(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "<html")
	require.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))

	resp, err = http.Get(srv.URL + "/qr")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/assets/app.js")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWheel_LastTabLeavingResetsRound(t *testing.T) {
	clock := &heldClock{}
	srv, session := newTestServer(t, clock)
	conn := dial(t, srv)
	readUntil(t, conn, ofType("state"))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "save_roster", Text: "Alice\nBob"}))
	readUntil(t, conn, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["total"] == float64(2)
	})

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "start"}))
	readUntil(t, conn, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["phase"] == "selecting"
	})
	require.Equal(t, 2, clock.active())

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return session.Snapshot().Phase == roulette.PhaseSetup && clock.active() == 0
	}, 5*time.Second, 5*time.Millisecond)
	require.Empty(t, session.Snapshot().Recent)
	require.Empty(t, session.Snapshot().Winner)
}

func TestWheel_OtherTabKeepsRound(t *testing.T) {
	clock := &heldClock{}
	srv, session := newTestServer(t, clock)
	a := dial(t, srv)
	b := dial(t, srv)
	readUntil(t, a, ofType("state"))
	readUntil(t, b, ofType("state"))

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "save_roster", Text: "Alice\nBob"}))
	require.NoError(t, a.WriteJSON(ClientMessage{Type: "start"}))
	readUntil(t, b, func(msg map[string]any) bool {
		return msg["type"] == "state" && msg["phase"] == "selecting"
	})

	require.NoError(t, a.Close())

	require.Never(t, func() bool {
		return session.Snapshot().Phase != roulette.PhaseSelecting
	}, 100*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, 2, clock.active())
}

// waitState reads hub output until match accepts a state message.
func waitState(t *testing.T, states <-chan StateMessage, match func(StateMessage) bool) {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-states:
			if match(s) {
				return
			}
		case <-timeout:
			t.Fatal("no matching state message")
		}
	}
}

func TestHub_ResubscribesAfterFallingBehind(t *testing.T) {
	cfg := validConfig()
	session, err := newSession(cfg, storage.NewMemory(), &heldClock{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	_, err = session.Dispatch(ctx, roulette.SaveRoster{Text: "Alice"})
	require.NoError(t, err)

	hub := newHub(session)
	stopped := make(chan struct{})
	go func() {
		hub.run(cfg)
		close(stopped)
	}()

	client := &Client{id: uuid.New(), send: make(chan any, 256)}
	hub.register(client)

	states := make(chan StateMessage, 256)
	go func() {
		for msg := range client.send {
			if sm, ok := msg.(StateMessage); ok {
				select {
				case states <- sm:
				default:
				}
			}
		}
	}()

	t.Cleanup(func() {
		hub.unregister(client)
		cancel()
		<-session.Done()
		<-stopped
	})

	// Make sure the hub is forwarding before stalling it.
	_, err = session.Dispatch(ctx, roulette.OpenEditor{})
	require.NoError(t, err)
	waitState(t, states, func(s StateMessage) bool { return s.Editing })

	hub.mu.Lock()
	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = session.Dispatch(ctx, roulette.ToggleAbsent{Index: 0})
		}()
	}
	wg.Wait()
	hub.mu.Unlock()

	_, err = session.Dispatch(ctx, roulette.CloseEditor{})
	require.NoError(t, err)
	waitState(t, states, func(s StateMessage) bool { return !s.Editing })

	select {
	case <-stopped:
		t.Fatal("hub stopped while the session is still running")
	default:
	}
}
