package ws

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestHub(idle time.Duration) *Hub {
	log := zerolog.Nop()
	return NewHub(idle, &log)
}

func TestAddReplacesExistingConnection(t *testing.T) {
	h := newTestHub(time.Minute)

	first := h.Add("s1", nil)
	assert.Equal(t, 1, h.Count())

	second := h.Add("s1", nil)
	assert.Equal(t, 1, h.Count())
	assert.True(t, first.closed)
	assert.False(t, second.closed)
}

func TestRemoveClosesConnection(t *testing.T) {
	h := newTestHub(time.Minute)

	c := h.Add("s1", nil)
	h.Remove("s1")
	assert.Zero(t, h.Count())
	assert.True(t, c.closed)

	// Removing an unknown session is a no-op.
	h.Remove("nope")
}

func TestReapEvictsOnlyIdleSessions(t *testing.T) {
	h := newTestHub(time.Minute)

	h.Add("idle", nil)
	h.Add("active", nil)

	// Only "active" gets touched before the deadline passes.
	later := time.Now().Add(2 * time.Minute)
	h.mu.Lock()
	h.sessions["active"].lastActive = later
	h.mu.Unlock()

	evicted := h.Reap(later)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, h.Count())

	h.mu.Lock()
	_, ok := h.sessions["active"]
	h.mu.Unlock()
	assert.True(t, ok)
}

func TestWriteAfterCloseIsSilent(t *testing.T) {
	h := newTestHub(time.Minute)
	c := h.Add("s1", nil)
	_ = c.Close()
	assert.NoError(t, c.WriteJSON(map[string]string{"type": "response"}))
}
