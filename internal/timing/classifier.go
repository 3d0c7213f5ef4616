// Package timing buckets an event against a reference clock and derives
// which actions (registration, feedback) are still open for it.
package timing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// FeedbackWindowDays is how long after day-level completion feedback stays
// open. The boundary is inclusive: exactly 7 days ago still qualifies.
const FeedbackWindowDays = 7

var ErrInvalidTimestamp = errors.New("invalid event timestamp")

// EventTiming is recomputed on every query and never cached: "now" moves
// continuously and different requests may use different reference instants.
type EventTiming struct {
	Status          Status `json:"status"`
	IsToday         bool   `json:"is_today"`
	DaysDifference  int    `json:"days_difference"`
	TimeDescription string `json:"time_description"`
	CanRegister     bool   `json:"can_register"`
	CanGiveFeedback bool   `json:"can_give_feedback"`
}

// Classify buckets eventAt relative to now. Both instants must already be in
// a single consistent location; Classify does not reconcile mixed zones.
//
// Day-level difference decides the coarse status. A same-day event is further
// split by exact time: if its precise timestamp already elapsed it counts as
// completed for registration, yet remains inside the feedback window since
// days_difference is 0.
func Classify(eventAt, now time.Time) EventTiming {
	days := daysBetween(now, eventAt)

	t := EventTiming{
		IsToday:        days == 0,
		DaysDifference: days,
	}

	switch {
	case days < 0:
		t.Status = StatusCompleted
		t.TimeDescription = fmt.Sprintf("%d day(s) ago", -days)
	case days == 0:
		if eventAt.Before(now) {
			t.Status = StatusCompleted
			t.TimeDescription = "earlier today"
		} else {
			t.Status = StatusOngoing
			t.TimeDescription = "today"
		}
	default:
		t.Status = StatusUpcoming
		t.TimeDescription = fmt.Sprintf("in %d day(s)", days)
	}

	t.CanRegister = t.Status == StatusUpcoming || t.Status == StatusOngoing
	t.CanGiveFeedback = t.Status == StatusOngoing ||
		(t.Status == StatusCompleted && days >= -FeedbackWindowDays)

	return t
}

// ClassifyDate parses raw as an ISO-8601 timestamp and classifies it.
// A timestamp that cannot be parsed returns ErrInvalidTimestamp; callers
// must treat that as "timing unknown" and deny both actions, never allow.
func ClassifyDate(raw string, now time.Time) (EventTiming, error) {
	eventAt, err := ParseTimestamp(raw)
	if err != nil {
		return EventTiming{}, err
	}
	return Classify(eventAt.In(now.Location()), now), nil
}

// ParseTimestamp accepts the timestamp shapes the event store produces:
// full RFC 3339, zoneless date-time with optional fractional seconds, and a
// bare date.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// daysBetween counts whole calendar days from the day of a to the day of b,
// positive when b is later. Rounding absorbs the 23h/25h days a DST shift
// produces after midnight truncation.
func daysBetween(a, b time.Time) int {
	ad := startOfDay(a)
	bd := startOfDay(b)
	return int(math.Round(bd.Sub(ad).Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
