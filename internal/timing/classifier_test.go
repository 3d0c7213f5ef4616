package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

func TestClassifyBuckets(t *testing.T) {
	tests := []struct {
		name            string
		eventAt         time.Time
		wantStatus      Status
		wantDays        int
		wantDesc        string
		wantRegister    bool
		wantFeedback    bool
	}{
		{
			name:         "future event",
			eventAt:      now.AddDate(0, 0, 3),
			wantStatus:   StatusUpcoming,
			wantDays:     3,
			wantDesc:     "in 3 day(s)",
			wantRegister: true,
			wantFeedback: false,
		},
		{
			name:         "tomorrow",
			eventAt:      now.AddDate(0, 0, 1),
			wantStatus:   StatusUpcoming,
			wantDays:     1,
			wantDesc:     "in 1 day(s)",
			wantRegister: true,
			wantFeedback: false,
		},
		{
			name:         "yesterday",
			eventAt:      now.AddDate(0, 0, -1),
			wantStatus:   StatusCompleted,
			wantDays:     -1,
			wantDesc:     "1 day(s) ago",
			wantRegister: false,
			wantFeedback: true,
		},
		{
			name:         "feedback window boundary inclusive",
			eventAt:      now.AddDate(0, 0, -7),
			wantStatus:   StatusCompleted,
			wantDays:     -7,
			wantDesc:     "7 day(s) ago",
			wantRegister: false,
			wantFeedback: true,
		},
		{
			name:         "one past the feedback window",
			eventAt:      now.AddDate(0, 0, -8),
			wantStatus:   StatusCompleted,
			wantDays:     -8,
			wantDesc:     "8 day(s) ago",
			wantRegister: false,
			wantFeedback: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.eventAt, now)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantDays, got.DaysDifference)
			assert.Equal(t, tt.wantDesc, got.TimeDescription)
			assert.Equal(t, tt.wantRegister, got.CanRegister)
			assert.Equal(t, tt.wantFeedback, got.CanGiveFeedback)
			assert.Equal(t, tt.wantDays == 0, got.IsToday)
		})
	}
}

func TestClassifySameDay(t *testing.T) {
	// Same calendar day, exact time already elapsed: completed for
	// registration but still inside the feedback window.
	morning := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)
	got := Classify(morning, now)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "earlier today", got.TimeDescription)
	assert.True(t, got.IsToday)
	assert.False(t, got.CanRegister)
	assert.True(t, got.CanGiveFeedback)

	// Same day, exact time still ahead: ongoing, both actions open.
	evening := time.Date(2025, time.October, 15, 18, 0, 0, 0, time.UTC)
	got = Classify(evening, now)
	assert.Equal(t, StatusOngoing, got.Status)
	assert.Equal(t, "today", got.TimeDescription)
	assert.True(t, got.IsToday)
	assert.True(t, got.CanRegister)
	assert.True(t, got.CanGiveFeedback)
}

func TestClassifyEqualInstants(t *testing.T) {
	got := Classify(now, now)
	assert.Equal(t, StatusOngoing, got.Status)
	assert.True(t, got.CanRegister)
}

func TestClassifyDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		status  Status
	}{
		{name: "rfc3339", raw: "2025-10-18T14:00:00Z", status: StatusUpcoming},
		{name: "zoneless", raw: "2025-10-10T14:00:00", status: StatusCompleted},
		{name: "fractional seconds", raw: "2025-10-10T14:00:00.123456", status: StatusCompleted},
		{name: "bare date", raw: "2025-10-20", status: StatusUpcoming},
		{name: "garbage", raw: "next tuesday", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyDate(tt.raw, now)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTimestamp))
				// Deny by default: the zero value grants nothing.
				assert.False(t, got.CanRegister)
				assert.False(t, got.CanGiveFeedback)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestDaysBetweenDSTBoundary(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// CEST -> CET transition on 2025-10-26 makes that day 25 hours long.
	before := time.Date(2025, time.October, 25, 22, 0, 0, 0, loc)
	after := time.Date(2025, time.October, 27, 8, 0, 0, 0, loc)
	assert.Equal(t, 2, daysBetween(before, after))
	assert.Equal(t, -2, daysBetween(after, before))
}
