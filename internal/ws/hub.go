// Package ws tracks live chat connections per session and evicts the ones
// that have gone idle.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Conn wraps a websocket connection with a write mutex so the handler and
// the hub can both write without interleaving frames.
type Conn struct {
	sessionID string
	ws        *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed || c.ws == nil {
		return nil
	}
	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

type entry struct {
	conn       *Conn
	lastActive time.Time
}

// Hub is the per-session connection registry. The transport handler adds and
// touches connections; a background loop reaps the idle ones.
type Hub struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	idleTimeout time.Duration
	log         *zerolog.Logger
}

func NewHub(idleTimeout time.Duration, log *zerolog.Logger) *Hub {
	if idleTimeout <= 0 {
		idleTimeout = 5 * time.Minute
	}
	return &Hub{
		sessions:    make(map[string]*entry),
		idleTimeout: idleTimeout,
		log:         log,
	}
}

// Add registers a connection for the session, closing any previous one.
func (h *Hub) Add(sessionID string, ws *websocket.Conn) *Conn {
	conn := &Conn{sessionID: sessionID, ws: ws}

	h.mu.Lock()
	prev, ok := h.sessions[sessionID]
	h.sessions[sessionID] = &entry{conn: conn, lastActive: time.Now()}
	h.mu.Unlock()

	if ok {
		_ = prev.conn.Close()
	}
	h.log.Info().Str("session_id", sessionID).Msg("websocket connected")
	return conn
}

func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	e, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if ok {
		_ = e.conn.Close()
		h.log.Info().Str("session_id", sessionID).Msg("websocket disconnected")
	}
}

// Touch marks the session active; called on every inbound frame.
func (h *Hub) Touch(sessionID string) {
	h.mu.Lock()
	if e, ok := h.sessions[sessionID]; ok {
		e.lastActive = time.Now()
	}
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Reap closes and drops every session idle longer than the timeout, and
// returns how many it evicted.
func (h *Hub) Reap(now time.Time) int {
	h.mu.Lock()
	var stale []*entry
	for id, e := range h.sessions {
		if now.Sub(e.lastActive) > h.idleTimeout {
			stale = append(stale, e)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, e := range stale {
		_ = e.conn.Close()
		h.log.Info().Str("session_id", e.conn.sessionID).Msg("evicted idle websocket")
	}
	return len(stale)
}

// Run reaps idle connections once a minute until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Reap(time.Now())
		}
	}
}
