package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemochat/internal/model"
	"nemochat/internal/repo"
)

var testNow = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	events        []model.Event
	registrations []model.Registration
	feedback      []model.Feedback
	registerErr   error
	listErr       error
}

func (f *fakeRepo) CreateEvent(ctx context.Context, e *model.Event) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeRepo) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, repo.ErrEventNotFound
}

func (f *fakeRepo) GetAllEvents(ctx context.Context, onlyActive bool) ([]model.Event, error) {
	return f.events, f.listErr
}

func (f *fakeRepo) RegisterTx(ctx context.Context, reg *model.Registration) (string, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	reg.Status = "confirmed"
	f.registrations = append(f.registrations, *reg)
	return "reg-1", nil
}

func (f *fakeRepo) GetRegistration(ctx context.Context, eventID, email string) (*model.Registration, error) {
	for i := range f.registrations {
		if f.registrations[i].EventID == eventID && f.registrations[i].UserEmail == email {
			return &f.registrations[i], nil
		}
	}
	return nil, errors.New("registration not found")
}

func (f *fakeRepo) CreateFeedback(ctx context.Context, fb *model.Feedback) (string, error) {
	f.feedback = append(f.feedback, *fb)
	return "fb-1", nil
}

func (f *fakeRepo) MigrateUp(dir string) error   { return nil }
func (f *fakeRepo) MigrateDown(dir string) error { return nil }

type fakePublisher struct {
	published [][]byte
}

func (p *fakePublisher) Publish(msg []byte) error {
	p.published = append(p.published, msg)
	return nil
}

func newTestAgent(f *fakeRepo, pub Publisher) *Agent {
	log := zerolog.Nop()
	tools := NewTools(f, pub, &log)
	tools.now = func() time.Time { return testNow }
	return New(tools, nil, NewSessions(6), &log)
}

func testEvents() []model.Event {
	return []model.Event{
		{
			ID: "e1", Name: "Robotics Workshop", Location: "Lab A",
			Date:       testNow.AddDate(0, 0, 3),
			TotalSlots: 30, AvailableSlots: 5, IsActive: true,
		},
		{
			ID: "e2", Name: "Line Follower", Location: "Arena",
			Date:       testNow.AddDate(0, 0, -2),
			TotalSlots: 20, AvailableSlots: 0, IsActive: true,
		},
	}
}

func TestProcessRegistrationComposite(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	pub := &fakePublisher{}
	a := newTestAgent(f, pub)

	reply := a.Process(context.Background(),
		"s1", "Register for workshop - John Doe, john@nit.ac.in, 9876543210, IoT A 2024")

	assert.Contains(t, reply.Response, "Successfully registered John Doe for Robotics Workshop")
	assert.Contains(t, reply.Response, "4 slot(s) remaining")

	require.Len(t, f.registrations, 1)
	reg := f.registrations[0]
	assert.Equal(t, "e1", reg.EventID)
	assert.Equal(t, "john@nit.ac.in", reg.UserEmail)
	assert.Equal(t, "IoT", reg.UserClass)
	assert.Equal(t, "A", reg.UserSection)
	assert.Equal(t, "2024", reg.UserYear)

	require.Len(t, pub.published, 1)
	assert.Contains(t, string(pub.published[0]), "registration")
}

func TestProcessRegistrationMissingFields(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(), "s1", "register me please")
	assert.Contains(t, reply.Response, "I still need")
	assert.Empty(t, f.registrations)
}

func TestProcessRegistrationCompletedEvent(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(),
		"s1", "Register for line follower - John Doe, john@nit.ac.in")
	assert.Contains(t, reply.Response, "No open event matches")
	assert.Empty(t, f.registrations)
}

func TestProcessRegistrationAmbiguous(t *testing.T) {
	events := testEvents()
	events = append(events, model.Event{
		ID: "e3", Name: "Robotics Hackathon",
		Date:       testNow.AddDate(0, 0, 5),
		TotalSlots: 30, AvailableSlots: 10, IsActive: true,
	})
	f := &fakeRepo{events: events}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(),
		"s1", "Register for robotics - John Doe, john@nit.ac.in")
	assert.Contains(t, reply.Response, "Several events match")
	assert.Contains(t, reply.Response, "Robotics Workshop")
	assert.Contains(t, reply.Response, "Robotics Hackathon")
	assert.Empty(t, f.registrations)
}

func TestProcessFeedback(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	pub := &fakePublisher{}
	a := newTestAgent(f, pub)

	reply := a.Process(context.Background(),
		"s1", "Feedback for line follower - john@nit.ac.in, rating 5, loved it")
	assert.Contains(t, reply.Response, "Thank you for your feedback on Line Follower")

	require.Len(t, f.feedback, 1)
	assert.Equal(t, "e2", f.feedback[0].EventID)
	assert.Equal(t, 5, f.feedback[0].Rating)
	require.Len(t, pub.published, 1)
}

func TestProcessFeedbackUpcomingRejected(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(),
		"s1", "Feedback for workshop - john@nit.ac.in, rating 4")
	assert.Contains(t, reply.Response, "can take feedback")
	assert.Empty(t, f.feedback)
}

func TestProcessListAndStatus(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(), "s1", "show upcoming events")
	assert.Contains(t, reply.Response, "Robotics Workshop")
	assert.NotContains(t, reply.Response, "Line Follower")

	reply = a.Process(context.Background(), "s1", "show past events")
	assert.Contains(t, reply.Response, "Line Follower")

	f.registrations = append(f.registrations, model.Registration{
		EventID: "e1", UserName: "John Doe", UserEmail: "john@nit.ac.in", Status: "confirmed",
	})
	reply = a.Process(context.Background(), "s1", "Am I registered for workshop? john@nit.ac.in")
	assert.Contains(t, reply.Response, "John Doe is registered for Robotics Workshop")

	reply = a.Process(context.Background(), "s1", "Am I registered for workshop? other@nit.ac.in")
	assert.Contains(t, reply.Response, "not registered")
}

func TestProcessStoreDown(t *testing.T) {
	f := &fakeRepo{listErr: errors.New("connection refused")}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(), "s1", "show upcoming events")
	assert.Contains(t, reply.Response, "can't reach the event store")
}

func TestSuggestionsCap(t *testing.T) {
	f := &fakeRepo{events: testEvents()}
	a := newTestAgent(f, nil)

	reply := a.Process(context.Background(), "s1", "show upcoming events")
	assert.NotEmpty(t, reply.Suggestions)
	assert.LessOrEqual(t, len(reply.Suggestions), 3)
}

func TestSessionWindowEviction(t *testing.T) {
	s := NewSessions(4)
	for i := 0; i < 10; i++ {
		s.Append("s1", "user", strings.Repeat("x", i+1))
	}
	h := s.History("s1")
	require.Len(t, h, 4)
	// Oldest turns evicted, newest kept.
	assert.Equal(t, 7, len(h[0].Content))
	assert.Equal(t, 10, len(h[3].Content))

	s.Clear("s1")
	assert.Empty(t, s.History("s1"))
}

func TestWelcome(t *testing.T) {
	a := newTestAgent(&fakeRepo{}, nil)
	w := a.Welcome()
	assert.NotEmpty(t, w.Response)
	assert.Len(t, w.Suggestions, 3)
}
