package agent

import (
	"sync"
	"time"
)

// Turn is one message in a conversation, either side.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"timestamp"`
}

// Sessions keeps per-conversation history as a bounded ordered sequence:
// when a session exceeds the window the oldest turns are evicted.
type Sessions struct {
	mu     sync.Mutex
	byID   map[string][]Turn
	window int
}

func NewSessions(window int) *Sessions {
	if window <= 0 {
		window = 20
	}
	return &Sessions{
		byID:   make(map[string][]Turn),
		window: window,
	}
}

func (s *Sessions) Append(id, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.byID[id], Turn{Role: role, Content: content, At: time.Now()})
	if over := len(turns) - s.window; over > 0 {
		turns = turns[over:]
	}
	s.byID[id] = turns
}

// History returns a copy so callers can't race the store.
func (s *Sessions) History(id string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.byID[id]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (s *Sessions) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}
