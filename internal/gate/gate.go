// Package gate decides whether a concrete event accepts a registration or a
// feedback submission, composing the timing verdict with live capacity, and
// resolves free-text event names against the stored events.
package gate

import (
	"errors"
	"sort"
	"strings"
	"time"

	"nemochat/internal/model"
	"nemochat/internal/timing"
)

var (
	ErrNoMatch   = errors.New("no matching event")
	ErrAmbiguous = errors.New("ambiguous event match")
)

// Candidate pairs an event with its timing verdict at resolution time.
type Candidate struct {
	Event  model.Event
	Timing timing.EventTiming
}

// CanRegister requires the timing window to be open and a free slot.
func CanRegister(e *model.Event, t timing.EventTiming) bool {
	return t.CanRegister && e.AvailableSlots > 0
}

// CanGiveFeedback has no capacity dependency.
func CanGiveFeedback(t timing.EventTiming) bool {
	return t.CanGiveFeedback
}

// ResolveForRegistration finds the events whose name contains name
// (case-insensitive) and which currently accept registrations. Exactly one
// match is returned as the selection; more than one is surfaced as
// ErrAmbiguous together with the candidate set, never silently picked from —
// registering for the wrong event is worse than asking the user to clarify.
// Events with unparseable dates are skipped: timing unknown means deny.
func ResolveForRegistration(events []model.Event, name string, now time.Time) (*Candidate, []Candidate, error) {
	return resolve(events, name, now, func(c Candidate) bool {
		return CanRegister(&c.Event, c.Timing)
	})
}

// ResolveForFeedback is the feedback-window counterpart. Ambiguous candidate
// sets are ordered most recent first so the disambiguation list leads with
// the likeliest event.
func ResolveForFeedback(events []model.Event, name string, now time.Time) (*Candidate, []Candidate, error) {
	selected, candidates, err := resolve(events, name, now, func(c Candidate) bool {
		return CanGiveFeedback(c.Timing)
	})
	if errors.Is(err, ErrAmbiguous) {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Event.Date.After(candidates[j].Event.Date)
		})
	}
	return selected, candidates, err
}

func resolve(events []model.Event, name string, now time.Time, eligible func(Candidate) bool) (*Candidate, []Candidate, error) {
	term := strings.ToLower(strings.TrimSpace(name))
	if term == "" {
		return nil, nil, ErrNoMatch
	}

	var candidates []Candidate
	for _, e := range events {
		if !strings.Contains(strings.ToLower(e.Name), term) {
			continue
		}
		c := Candidate{Event: e, Timing: timing.Classify(e.Date, now)}
		if eligible(c) {
			candidates = append(candidates, c)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, nil, ErrNoMatch
	case 1:
		return &candidates[0], candidates, nil
	default:
		return nil, candidates, ErrAmbiguous
	}
}
