// Host Roulette wheel
//
// The page at / shows the roster, lets the user tick people absent, edit the
// list, and spin the wheel. Every open tab is a view of the same session: the
// server owns the state and the round timers, tabs only render and animate.
//
// Features:
// - One WebSocket per tab at /ws, all fed from the same session
// - Full state snapshot on connect and after every accepted action
// - Spin message once the wheel should start turning; the winner is fixed
//   before it is sent
// - Blocking alerts and the duplicate-names confirmation go only to the tab
//   that caused them
// - Closing the last tab mid-spin resets the round
// - QR code of the page URL at /qr, backed by go-qrcode

package main

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/Seednode/hostroulette/roulette"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan any
}

// Hub fans session events out to connected tabs.
type Hub struct {
	session *roulette.Session

	mu      sync.Mutex
	clients map[*Client]bool
}

func newHub(session *roulette.Session) *Hub {
	return &Hub{
		session: session,
		clients: make(map[*Client]bool),
	}
}

// run forwards session events until the session stops. If the session drops
// the hub for falling behind, it subscribes again and sends every tab a fresh
// snapshot so nothing stays stale.
func (h *Hub) run(cfg *Config) {
	defer h.closeAll()

	events, unsubscribe := h.session.Subscribe()
	for {
		h.forward(cfg, events)
		unsubscribe()

		select {
		case <-h.session.Done():
			return
		default:
		}

		logf(cfg, "SERVE: Hub fell behind the session, resubscribing")

		events, unsubscribe = h.session.Subscribe()
		h.broadcast(newStateMessage(h.session.Snapshot()))
	}
}

func (h *Hub) forward(cfg *Config, events <-chan roulette.Event) {
	for e := range events {
		switch e.Kind {
		case roulette.EventState:
			h.broadcast(newStateMessage(e.State))
		case roulette.EventSpin:
			logf(cfg, "ROUND: Spinning round %d", e.State.Round)
			h.broadcast(newSpinMessage(e))
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true

	c.send <- newStateMessage(h.session.Snapshot())
}

// unregister removes c and reports how many clients remain.
func (h *Hub) unregister(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	return len(h.clients)
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects all clients (used once the session stops).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func serveWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:   uuid.New(),
			conn: conn,
			send: make(chan any, 16),
		}

		logf(cfg, "SERVE: Client %s connected from %s", client.id, realIP(r))

		hub.register(client)

		go client.writePump()
		client.readPump(r.Context(), cfg, hub)
	}
}

func (c *Client) readPump(ctx context.Context, cfg *Config, h *Hub) {
	defer func() {
		remaining := h.unregister(c)
		_ = c.conn.Close()

		logf(cfg, "SERVE: Client %s disconnected", c.id)

		// Last tab gone: nobody is left to watch the wheel.
		if remaining == 0 && h.session.Snapshot().Phase == roulette.PhaseSelecting {
			_, _ = h.session.Dispatch(context.Background(), roulette.Reset{})
		}
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		action, ok := toAction(msg)
		if !ok {
			continue
		}

		_, err := h.session.Dispatch(ctx, action)
		if err == nil {
			logf(cfg, "ACTION: %s from client %s", action.Name(), c.id)
			continue
		}

		logf(cfg, "ACTION: %s from client %s refused: %v", action.Name(), c.id, err)

		if notice, ok := noticeFor(msg, err); ok {
			h.sendTo(c, notice)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the page URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../qr; strip trailing "qr" to get the page URL.
		path := strings.TrimSuffix(r.URL.Path, "qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

// registerWheel sets up routes so that:
//   - $prefix/           → HTML client
//   - $prefix/assets/*   → page script and styles
//   - $prefix/ws         → WebSocket bound to the session
//   - $prefix/qr         → PNG QR code for the page URL
func registerWheel(cfg *Config, mux *httprouter.Router, session *roulette.Session, errs chan<- error) {
	hub := newHub(session)
	go hub.run(cfg)

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub))

	mux.GET(cfg.prefix+"/qr", qrHandler(cfg))
}
