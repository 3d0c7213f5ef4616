// Package agent turns chat messages into tool calls against the event store
// and composes the reply plus quick-reply suggestions for each turn.
package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"nemochat/internal/llm"
)

// Completer is the LLM boundary. Only free-form turns no rule matches reach
// it; every tool path below works with the completer disabled.
type Completer interface {
	Enabled() bool
	Complete(ctx context.Context, system string, history []llm.Message, user string) (string, error)
}

// Publisher hands notification messages to the messaging pipeline.
type Publisher interface {
	Publish(message []byte) error
}

type Reply struct {
	Response    string
	Suggestions []string
}

type Agent struct {
	tools     *Tools
	completer Completer
	sessions  *Sessions
	log       *zerolog.Logger
}

func New(tools *Tools, completer Completer, sessions *Sessions, log *zerolog.Logger) *Agent {
	return &Agent{
		tools:     tools,
		completer: completer,
		sessions:  sessions,
		log:       log,
	}
}

const systemPrompt = `You are Nemo, the assistant for Potential Club at SNUC.
You help students with robotics events, workshops and competitions.
Events are classified against the current date as upcoming, ongoing (today) or completed.
Keep answers short and factual. If the user wants to list, search, register or give
feedback, tell them the exact phrasing to use instead of inventing data.`

const helpText = `I can help you with club events. Try:
• "Show upcoming events"
• "Search robotics"
• "Register for <event> - <name>, <email>, <phone>, <class section year>"
• "Feedback for <event> - <email>, rating 1-5"
• "Am I registered for <event>? <email>"`

type intent int

const (
	intentUnknown intent = iota
	intentHelp
	intentListUpcoming
	intentListToday
	intentListCompleted
	intentListAll
	intentSearch
	intentRegister
	intentFeedback
	intentStatus
)

// detectIntent is a rule cascade checked in priority order; registration and
// feedback shapes win over listing keywords because their messages usually
// contain both ("register for the upcoming workshop").
func detectIntent(message string) intent {
	m := strings.ToLower(message)

	switch {
	// "am I registered" would otherwise trip the register rule below.
	case containsAny(m, "am i registered", "registration status", "my registration"):
		return intentStatus
	case containsAny(m, "register", "signup", "sign up", "sign me up"):
		return intentRegister
	case containsAny(m, "feedback", "rate ", "rating"):
		return intentFeedback
	case containsAny(m, "help", "what can you do"):
		return intentHelp
	case strings.Contains(m, "today"):
		return intentListToday
	case containsAny(m, "past events", "completed events", "previous events"):
		return intentListCompleted
	case strings.Contains(m, "all events"):
		return intentListAll
	case containsAny(m, "upcoming", "events", "schedule", "happening"):
		return intentListUpcoming
	case containsAny(m, "search", "find", "looking for", "tell me about", "details", "more about"):
		return intentSearch
	}

	switch strings.Trim(m, " !.") {
	case "hi", "hello", "hey":
		return intentHelp
	}
	return intentUnknown
}

// Process handles one conversation turn. It never returns an error to the
// transport for a tool failure; failures become apologetic reply text so the
// conversation survives.
func (a *Agent) Process(ctx context.Context, sessionID, message string) Reply {
	message = strings.TrimSpace(message)
	if message == "" {
		return a.Welcome()
	}

	a.sessions.Append(sessionID, "user", message)

	var response string
	switch detectIntent(message) {
	case intentRegister:
		response = a.tools.RegisterFromMessage(ctx, message)
	case intentFeedback:
		response = a.tools.FeedbackFromMessage(ctx, message)
	case intentStatus:
		response = a.tools.RegistrationStatus(ctx, message)
	case intentListUpcoming:
		response = a.tools.ListEvents(ctx, ListUpcoming)
	case intentListToday:
		response = a.tools.ListEvents(ctx, ListToday)
	case intentListCompleted:
		response = a.tools.ListEvents(ctx, ListCompleted)
	case intentListAll:
		response = a.tools.ListEvents(ctx, ListAll)
	case intentSearch:
		response = a.tools.SearchEvents(ctx, searchTerm(message))
	case intentHelp:
		response = helpText
	default:
		response = a.freeform(ctx, sessionID, message)
	}

	a.sessions.Append(sessionID, "assistant", response)

	return Reply{
		Response:    response,
		Suggestions: suggestions(message, response),
	}
}

func (a *Agent) freeform(ctx context.Context, sessionID, message string) string {
	if a.completer == nil || !a.completer.Enabled() {
		return helpText
	}

	history := a.sessions.History(sessionID)
	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history[:len(history)-1] { // current message is passed separately
		msgs = append(msgs, llm.Message{Role: roleFor(t.Role), Content: t.Content})
	}

	out, err := a.completer.Complete(ctx, systemPrompt, msgs, message)
	if err != nil {
		a.log.Warn().Err(err).Str("session_id", sessionID).Msg("llm completion failed, using fallback")
		return helpText
	}
	return out
}

func roleFor(r string) string {
	if r == "assistant" {
		return "assistant"
	}
	return "user"
}

func (a *Agent) Welcome() Reply {
	return Reply{
		Response: "Hi, I'm Nemo! I can show you the club's events, register you for one, or take your feedback.",
		Suggestions: []string{
			"Show upcoming events",
			"Register for an event",
			"Submit feedback",
		},
	}
}

func (a *Agent) History(sessionID string) []Turn {
	return a.sessions.History(sessionID)
}

func (a *Agent) ClearSession(sessionID string) {
	a.sessions.Clear(sessionID)
}

// suggestions proposes up to three next actions based on the turn that just
// happened.
func suggestions(message, response string) []string {
	m := strings.ToLower(message)
	r := strings.ToLower(response)

	var out []string
	switch {
	case containsAny(m, "register", "signup", "sign up"):
		if strings.Contains(r, "successfully registered") {
			out = append(out, "Show upcoming events", "Submit feedback")
		} else {
			out = append(out, "Show upcoming events", "Check registration status")
		}
	case strings.Contains(m, "feedback"):
		if strings.Contains(r, "thank") {
			out = append(out, "Show upcoming events", "Register for event")
		} else {
			out = append(out, "Submit feedback")
		}
	case strings.Contains(r, "event"):
		out = append(out, "Show more details", "Register for event")
	}

	if len(out) == 0 {
		out = []string{"Show upcoming events", "Search events", "Help"}
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func searchTerm(message string) string {
	m := strings.TrimSpace(message)
	lower := strings.ToLower(m)
	for _, prefix := range []string{"search for ", "search ", "find ", "looking for ", "tell me about ", "details about ", "details on ", "more about "} {
		if i := strings.Index(lower, prefix); i >= 0 {
			return strings.TrimSpace(m[i+len(prefix):])
		}
	}
	return m
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
