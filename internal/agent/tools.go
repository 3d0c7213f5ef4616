package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nemochat/internal/dto"
	"nemochat/internal/extract"
	"nemochat/internal/gate"
	"nemochat/internal/model"
	"nemochat/internal/repo"
	"nemochat/internal/timing"
)

type ListKind string

const (
	ListUpcoming  ListKind = "upcoming"
	ListToday     ListKind = "today"
	ListCompleted ListKind = "completed"
	ListAll       ListKind = "all"
)

const listLimit = 20

// Tools are the operations the agent can run against the event store. Each
// returns user-facing reply text; storage errors become apologies, not
// panics, because the chat must keep flowing.
type Tools struct {
	repo      repo.Repository
	publisher Publisher
	log       *zerolog.Logger
	now       func() time.Time
}

func NewTools(r repo.Repository, pub Publisher, log *zerolog.Logger) *Tools {
	return &Tools{
		repo:      r,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
}

const storeUnavailable = "Sorry, I can't reach the event store right now. Please try again in a moment."

func (t *Tools) ListEvents(ctx context.Context, kind ListKind) string {
	events, err := t.repo.GetAllEvents(ctx, true)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to list events")
		return storeUnavailable
	}

	now := t.now()
	var picked []gate.Candidate
	for _, e := range events {
		tm := timing.Classify(e.Date, now)
		switch kind {
		case ListUpcoming:
			if tm.Status != timing.StatusUpcoming && tm.Status != timing.StatusOngoing {
				continue
			}
		case ListToday:
			if !tm.IsToday {
				continue
			}
		case ListCompleted:
			if tm.Status != timing.StatusCompleted {
				continue
			}
		}
		picked = append(picked, gate.Candidate{Event: e, Timing: tm})
	}

	if len(picked) == 0 {
		switch kind {
		case ListToday:
			return "No events are happening today."
		case ListCompleted:
			return "No completed events found."
		default:
			return "No upcoming events at the moment. Check back soon!"
		}
	}

	sort.Slice(picked, func(i, j int) bool {
		if kind == ListCompleted {
			return picked[i].Event.Date.After(picked[j].Event.Date)
		}
		return picked[i].Event.Date.Before(picked[j].Event.Date)
	})
	if len(picked) > listLimit {
		picked = picked[:listLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s event(s):\n", len(picked), kind)
	for _, c := range picked {
		b.WriteString(formatEventLine(c))
	}
	return b.String()
}

func (t *Tools) SearchEvents(ctx context.Context, term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "Tell me a name or keyword to search for, e.g. \"search robotics\"."
	}

	events, err := t.repo.GetAllEvents(ctx, true)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to search events")
		return storeUnavailable
	}

	now := t.now()
	words := strings.Fields(term)
	var matched []gate.Candidate
	for _, e := range events {
		if !matchesSearch(&e, term, words) {
			continue
		}
		matched = append(matched, gate.Candidate{Event: e, Timing: timing.Classify(e.Date, now)})
	}

	if len(matched) == 0 {
		return fmt.Sprintf("No events found matching %q. Try different keywords or ask for all events.", term)
	}

	// Ongoing first, then upcoming, then completed; date order within each.
	rank := map[timing.Status]int{
		timing.StatusOngoing:   0,
		timing.StatusUpcoming:  1,
		timing.StatusCompleted: 2,
	}
	sort.Slice(matched, func(i, j int) bool {
		ri, rj := rank[matched[i].Timing.Status], rank[matched[j].Timing.Status]
		if ri != rj {
			return ri < rj
		}
		return matched[i].Event.Date.Before(matched[j].Event.Date)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s) matching %q:\n", len(matched), term)
	for _, c := range matched {
		b.WriteString(formatEventLine(c))
	}
	return b.String()
}

func matchesSearch(e *model.Event, term string, words []string) bool {
	name := strings.ToLower(e.Name)
	desc := strings.ToLower(e.Description)
	category := strings.ToLower(e.Category)

	if strings.Contains(name, term) || strings.Contains(term, name) && name != "" {
		return true
	}
	if strings.Contains(desc, term) || strings.Contains(category, term) {
		return true
	}
	for _, w := range words {
		if !strings.Contains(name, w) && !strings.Contains(desc, w) && !strings.Contains(category, w) {
			return false
		}
	}
	return len(words) > 0
}

func formatEventLine(c gate.Candidate) string {
	e := c.Event
	line := fmt.Sprintf("• %s — %s", e.Name, c.Timing.TimeDescription)
	if e.Location != "" {
		line += ", " + e.Location
	}
	switch {
	case c.Timing.Status == timing.StatusCompleted:
		// No slot info for past events.
	case e.IsFull():
		line += " (full)"
	default:
		line += fmt.Sprintf(" (%d slot(s) left)", e.AvailableSlots)
	}
	return line + "\n"
}

// RegisterFromMessage is the registration tool binding: extract fields from
// the message, widen over the remaining text for still-missing cohort
// fields, then gate and persist.
func (t *Tools) RegisterFromMessage(ctx context.Context, message string) string {
	r := extract.Registration(message)
	r.WidenCohort(message)

	if missing := missingRegistrationFields(&r); len(missing) > 0 {
		return fmt.Sprintf(
			"I still need your %s. Send it like:\n\"Register for <event> - <name>, <email>, <phone>, <class section year>\"",
			strings.Join(missing, ", "),
		)
	}

	events, err := t.repo.GetAllEvents(ctx, true)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to fetch events for registration")
		return storeUnavailable
	}

	selected, candidates, err := gate.ResolveForRegistration(events, r.EventName, t.now())
	switch {
	case errors.Is(err, gate.ErrNoMatch):
		return fmt.Sprintf(
			"No open event matches %q. It might be completed, full, or spelled differently — try searching first.",
			r.EventName,
		)
	case errors.Is(err, gate.ErrAmbiguous):
		return ambiguityReply("register for", candidates)
	case err != nil:
		return storeUnavailable
	}

	reg := &model.Registration{
		EventID:     selected.Event.ID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		UserPhone:   r.UserPhone,
		UserClass:   r.UserClass,
		UserSection: r.UserSection,
		UserYear:    r.UserYear,
	}
	if _, err := t.repo.RegisterTx(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repo.ErrEventFull):
			return fmt.Sprintf("Sorry, %s is full — no slots remaining.", selected.Event.Name)
		case errors.Is(err, repo.ErrDuplicateRegistration):
			return fmt.Sprintf("You are already registered for %s.", selected.Event.Name)
		default:
			t.log.Error().Err(err).Msg("failed to create registration")
			return storeUnavailable
		}
	}

	t.notify(dto.NotificationMessage{
		Kind:      dto.NotifyRegistration,
		EventName: selected.Event.Name,
		Recipient: r.UserEmail,
		UserName:  r.UserName,
	})

	return fmt.Sprintf(
		"✅ Successfully registered %s for %s (%s). %d slot(s) remaining.",
		r.UserName, selected.Event.Name, selected.Timing.TimeDescription,
		selected.Event.AvailableSlots-1,
	)
}

func missingRegistrationFields(r *extract.Registrant) []string {
	var missing []string
	if r.EventName == "" {
		missing = append(missing, "event name")
	}
	if r.UserName == "" {
		missing = append(missing, "name")
	}
	if r.UserEmail == "" {
		missing = append(missing, "email")
	}
	return missing
}

var (
	ratingRe        = regexp.MustCompile(`(?i)(?:rating|rated|rate)\s*:?\s*([1-5])\b`)
	bareRatingRe    = regexp.MustCompile(`\b([1-5])\s*(?:/\s*5|stars?)\b`)
	feedbackEventRe = regexp.MustCompile(`(?i)feedback\s+(?:for|on)\s+(.+?)(?:\s+-|,|$)`)
)

func (t *Tools) FeedbackFromMessage(ctx context.Context, message string) string {
	email := extract.Email(message)
	rating := parseRating(message)
	eventName := ""
	if m := feedbackEventRe.FindStringSubmatch(message); m != nil {
		eventName = strings.TrimSpace(m[1])
	}

	var missing []string
	if eventName == "" {
		missing = append(missing, "event name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if rating == 0 {
		missing = append(missing, "rating (1-5)")
	}
	if len(missing) > 0 {
		return fmt.Sprintf(
			"I still need the %s. Send it like:\n\"Feedback for <event> - <email>, rating 5, great session!\"",
			strings.Join(missing, ", "),
		)
	}

	events, err := t.repo.GetAllEvents(ctx, true)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to fetch events for feedback")
		return storeUnavailable
	}

	selected, candidates, err := gate.ResolveForFeedback(events, eventName, t.now())
	switch {
	case errors.Is(err, gate.ErrNoMatch):
		return fmt.Sprintf(
			"No event matching %q can take feedback. Feedback is open for events happening today or completed within the last %d days.",
			eventName, timing.FeedbackWindowDays,
		)
	case errors.Is(err, gate.ErrAmbiguous):
		return ambiguityReply("give feedback for", candidates)
	case err != nil:
		return storeUnavailable
	}

	fb := &model.Feedback{
		EventID:   selected.Event.ID,
		UserEmail: email,
		Rating:    rating,
		Comments:  strings.TrimSpace(message),
	}
	if _, err := t.repo.CreateFeedback(ctx, fb); err != nil {
		t.log.Error().Err(err).Msg("failed to create feedback")
		return storeUnavailable
	}

	t.notify(dto.NotificationMessage{
		Kind:      dto.NotifyFeedback,
		EventName: selected.Event.Name,
		Recipient: email,
		Rating:    rating,
	})

	return fmt.Sprintf("✅ Thank you for your feedback on %s! You rated it %s.",
		selected.Event.Name, strings.Repeat("⭐", rating))
}

func parseRating(message string) int {
	for _, re := range []*regexp.Regexp{ratingRe, bareRatingRe} {
		if m := re.FindStringSubmatch(message); m != nil {
			return int(m[1][0] - '0')
		}
	}
	return 0
}

var statusEventRe = regexp.MustCompile(`(?i)registered\s+for\s+(.+?)(?:\?|,|$)`)

func (t *Tools) RegistrationStatus(ctx context.Context, message string) string {
	email := extract.Email(message)
	eventName := ""
	if m := statusEventRe.FindStringSubmatch(message); m != nil {
		eventName = strings.TrimSpace(m[1])
	}
	if eventName == "" || email == "" {
		return "Tell me the event and your email, e.g. \"Am I registered for robotics workshop? john@nit.ac.in\""
	}

	events, err := t.repo.GetAllEvents(ctx, true)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to fetch events for status check")
		return storeUnavailable
	}

	term := strings.ToLower(eventName)
	var matches []model.Event
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Name), term) {
			matches = append(matches, e)
		}
	}
	switch {
	case len(matches) == 0:
		return fmt.Sprintf("I couldn't find an event matching %q.", eventName)
	case len(matches) > 1:
		names := make([]string, len(matches))
		for i, e := range matches {
			names[i] = e.Name
		}
		return "Several events match — which one did you mean?\n• " + strings.Join(names, "\n• ")
	}

	reg, err := t.repo.GetRegistration(ctx, matches[0].ID, email)
	if err != nil {
		return fmt.Sprintf("You are not registered for %s.", matches[0].Name)
	}
	return fmt.Sprintf("Yes — %s is registered for %s (status: %s).",
		reg.UserName, matches[0].Name, reg.Status)
}

func ambiguityReply(action string, candidates []gate.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Several events match — which one do you want to %s?\n", action)
	for _, c := range candidates {
		fmt.Fprintf(&b, "• %s (%s)\n", c.Event.Name, c.Timing.TimeDescription)
	}
	b.WriteString("Please reply with the exact name.")
	return b.String()
}

// notify is fire and forget: a lost e-mail never fails a registration.
func (t *Tools) notify(msg dto.NotificationMessage) {
	if t.publisher == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	if err := t.publisher.Publish(payload); err != nil {
		t.log.Warn().Err(err).Msg("failed to publish notification")
	}
}
