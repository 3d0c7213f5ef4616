package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemochat/internal/model"
	"nemochat/internal/timing"
)

var now = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

func event(name string, daysFromNow, slots int) model.Event {
	return model.Event{
		ID:             name + "-id",
		Name:           name,
		Date:           now.AddDate(0, 0, daysFromNow),
		TotalSlots:     30,
		AvailableSlots: slots,
		IsActive:       true,
	}
}

func TestCanRegister(t *testing.T) {
	e := event("Robo Soccer", 3, 5)
	tm := timing.Classify(e.Date, now)
	assert.True(t, CanRegister(&e, tm))

	full := event("Robo Soccer", 3, 0)
	assert.False(t, CanRegister(&full, tm))

	past := event("Robo Soccer", -1, 5)
	assert.False(t, CanRegister(&past, timing.Classify(past.Date, now)))
}

func TestCanGiveFeedback(t *testing.T) {
	assert.True(t, CanGiveFeedback(timing.Classify(now.AddDate(0, 0, -7), now)))
	assert.False(t, CanGiveFeedback(timing.Classify(now.AddDate(0, 0, -8), now)))
	assert.False(t, CanGiveFeedback(timing.Classify(now.AddDate(0, 0, 2), now)))
}

func TestResolveForRegistration(t *testing.T) {
	events := []model.Event{
		event("Robotics Workshop", 3, 10),
		event("Robotics Hackathon", 5, 10),
		event("Line Follower", -2, 10),
		event("Drone Demo", 4, 0),
	}

	t.Run("single match", func(t *testing.T) {
		got, _, err := ResolveForRegistration(events, "workshop", now)
		require.NoError(t, err)
		assert.Equal(t, "Robotics Workshop", got.Event.Name)
		assert.Equal(t, timing.StatusUpcoming, got.Timing.Status)
	})

	t.Run("match is case insensitive substring", func(t *testing.T) {
		got, _, err := ResolveForRegistration(events, "HACKATHON", now)
		require.NoError(t, err)
		assert.Equal(t, "Robotics Hackathon", got.Event.Name)
	})

	t.Run("ambiguous surfaces candidates instead of guessing", func(t *testing.T) {
		got, candidates, err := ResolveForRegistration(events, "robotics", now)
		assert.ErrorIs(t, err, ErrAmbiguous)
		assert.Nil(t, got)
		assert.Len(t, candidates, 2)
	})

	t.Run("completed event is not a candidate", func(t *testing.T) {
		_, _, err := ResolveForRegistration(events, "line follower", now)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("full event is not a candidate", func(t *testing.T) {
		_, _, err := ResolveForRegistration(events, "drone", now)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("blank name", func(t *testing.T) {
		_, _, err := ResolveForRegistration(events, "  ", now)
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestResolveForFeedback(t *testing.T) {
	events := []model.Event{
		event("Robo Soccer Finals", -2, 0),
		event("Robo Soccer Qualifiers", -6, 0),
		event("Robo Soccer 2019", -300, 0),
		event("PCB Design 101", 10, 5),
	}

	t.Run("upcoming event rejects feedback", func(t *testing.T) {
		_, _, err := ResolveForFeedback(events, "pcb", now)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("outside grace window rejects feedback", func(t *testing.T) {
		_, _, err := ResolveForFeedback(events, "2019", now)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("ambiguous candidates ordered most recent first", func(t *testing.T) {
		got, candidates, err := ResolveForFeedback(events, "robo soccer", now)
		assert.ErrorIs(t, err, ErrAmbiguous)
		assert.Nil(t, got)
		require.Len(t, candidates, 2)
		assert.Equal(t, "Robo Soccer Finals", candidates[0].Event.Name)
		assert.Equal(t, "Robo Soccer Qualifiers", candidates[1].Event.Name)
	})
}
