package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"nemochat/internal/agent"
	"nemochat/internal/dto"
	"nemochat/internal/extract"
	"nemochat/internal/gate"
	"nemochat/internal/model"
	"nemochat/internal/repo"
	"nemochat/internal/timing"
	"nemochat/internal/ws"
	"nemochat/pkg/validator"
)

type Service interface {
	Chat(ctx *ginext.Context)
	WSChat(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	SearchEvents(ctx *ginext.Context)
	GetInfo(ctx *ginext.Context)
	RegisterByName(ctx *ginext.Context)
	RegisterByID(ctx *ginext.Context)
	Feedback(ctx *ginext.Context)
	RegistrationStatus(ctx *ginext.Context)
	SessionHistory(ctx *ginext.Context)
	ClearSession(ctx *ginext.Context)
}

type Publisher interface {
	Publish(message []byte) error
}

type service struct {
	repo     repo.Repository
	agent    *agent.Agent
	hub      *ws.Hub
	rbt      Publisher
	log      *zerolog.Logger
	upgrader websocket.Upgrader
}

func NewService(repo repo.Repository, ag *agent.Agent, hub *ws.Hub, rbt Publisher, logger *zerolog.Logger) Service {
	return &service{
		repo:  repo,
		agent: ag,
		hub:   hub,
		rbt:   rbt,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *service) Chat(ctx *ginext.Context) {
	var req dto.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse chat request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply := s.agent.Process(ctx.Request.Context(), sessionID, req.Message)

	dto.SuccessResponse(ctx, dto.ChatResponse{
		Response:    reply.Response,
		SessionID:   sessionID,
		Suggestions: reply.Suggestions,
		Timestamp:   time.Now(),
	})
}

// WSChat upgrades the connection and serves the persistent chat channel.
// Envelope: {"type", "content", "suggestions", "timestamp"}; inbound types
// are "message" and "ping".
func (s *service) WSChat(ctx *ginext.Context) {
	sessionID := ctx.Param("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	raw, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := s.hub.Add(sessionID, raw)
	defer s.hub.Remove(sessionID)

	welcome := s.agent.Welcome()
	_ = conn.WriteJSON(dto.WSMessage{
		Type:        dto.WSTypeResponse,
		Content:     welcome.Response,
		Suggestions: welcome.Suggestions,
		Timestamp:   time.Now().Format(time.RFC3339),
	})

	for {
		_, payload, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read error")
			}
			return
		}
		s.hub.Touch(sessionID)

		var msg dto.WSMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = conn.WriteJSON(dto.WSMessage{
				Type:      dto.WSTypeError,
				Content:   "Invalid message format",
				Timestamp: time.Now().Format(time.RFC3339),
			})
			continue
		}

		switch msg.Type {
		case dto.WSTypePing:
			_ = conn.WriteJSON(dto.WSMessage{
				Type:      dto.WSTypePong,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		case dto.WSTypeMessage:
			if msg.Content == "" {
				continue
			}
			_ = conn.WriteJSON(dto.WSMessage{
				Type:      dto.WSTypeTyping,
				Timestamp: time.Now().Format(time.RFC3339),
			})

			reply := s.agent.Process(ctx.Request.Context(), sessionID, msg.Content)
			_ = conn.WriteJSON(dto.WSMessage{
				Type:        dto.WSTypeResponse,
				Content:     reply.Response,
				Suggestions: reply.Suggestions,
				Timestamp:   time.Now().Format(time.RFC3339),
			})
		}
	}
}

type createEventRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	TotalSlots  int       `json:"total_slots" validate:"gt=0"`
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req createEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Category:    req.Category,
		TotalSlots:  req.TotalSlots,
		IsActive:    true,
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id
	event.AvailableSlots = event.TotalSlots

	s.log.Info().Str("event_id", id).Msg("event created successfully")
	dto.SuccessCreatedResponse(ctx, eventResponse(event, timing.Classify(event.Date, time.Now())))
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	kind := ctx.Query("type")
	if kind == "" {
		kind = "upcoming"
	}
	category := strings.ToLower(ctx.Query("category"))

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.repo.GetAllEvents(ctx.Request.Context(), true)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get events")
		dto.InternalServerError(ctx)
		return
	}

	now := time.Now()
	resp := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		tm := timing.Classify(e.Date, now)
		switch kind {
		case "upcoming":
			if tm.Status != timing.StatusUpcoming && tm.Status != timing.StatusOngoing {
				continue
			}
		case "today":
			if !tm.IsToday {
				continue
			}
		case "completed":
			if tm.Status != timing.StatusCompleted {
				continue
			}
		case "all":
		default:
			dto.BadResponseError(ctx, dto.FieldIncorrect, "type must be upcoming, today, completed or all")
			return
		}
		if category != "" && strings.ToLower(e.Category) != category {
			continue
		}
		resp = append(resp, eventResponse(&e, tm))
		if limit > 0 && len(resp) >= limit {
			break
		}
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) SearchEvents(ctx *ginext.Context) {
	term := strings.ToLower(strings.TrimSpace(ctx.Query("q")))
	if term == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Query parameter 'q' is required")
		return
	}

	events, err := s.repo.GetAllEvents(ctx.Request.Context(), true)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to search events")
		dto.InternalServerError(ctx)
		return
	}

	now := time.Now()
	resp := make([]dto.EventResponse, 0)
	for _, e := range events {
		haystack := strings.ToLower(e.Name + " " + e.Description + " " + e.Category)
		if !strings.Contains(haystack, term) {
			continue
		}
		resp = append(resp, eventResponse(&e, timing.Classify(e.Date, now)))
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetInfo(ctx *ginext.Context) {
	event, err := s.repo.GetEventByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, eventResponse(event, timing.Classify(event.Date, time.Now())))
}

// RegisterByName is the primary registration path: resolves the event by
// fuzzy name, merges extracted fields under explicit ones, then gates.
func (s *service) RegisterByName(ctx *ginext.Context) {
	var req dto.RegisterByNameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	// Explicit fields always win; the widening pass only fills gaps.
	reg := extract.Registrant{
		EventName:   req.EventName,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		UserPhone:   req.UserPhone,
		UserClass:   req.UserClass,
		UserSection: req.UserSection,
		UserYear:    req.UserYear,
	}
	reg.WidenCohort(req.RawMessage)

	events, err := s.repo.GetAllEvents(ctx.Request.Context(), true)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch events for registration")
		dto.InternalServerError(ctx)
		return
	}

	selected, candidates, err := gate.ResolveForRegistration(events, reg.EventName, time.Now())
	switch {
	case errors.Is(err, gate.ErrNoMatch):
		dto.EventNotFoundError(ctx)
		return
	case errors.Is(err, gate.ErrAmbiguous):
		dto.EventAmbiguousError(ctx, eventMatches(candidates))
		return
	case err != nil:
		dto.InternalServerError(ctx)
		return
	}

	s.createRegistration(ctx, &selected.Event, reg)
}

// RegisterByID skips name resolution but still gates on timing and
// capacity. An event date that cannot be classified denies by default.
func (s *service) RegisterByID(ctx *ginext.Context) {
	var req dto.RegisterByIDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if event.Date.IsZero() {
		dto.TimingUnknownError(ctx)
		return
	}

	tm := timing.Classify(event.Date, time.Now())
	if !tm.CanRegister {
		dto.RegistrationClosedError(ctx, tm.TimeDescription)
		return
	}
	if event.IsFull() {
		dto.EventFullError(ctx)
		return
	}

	s.createRegistration(ctx, event, extract.Registrant{
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		UserPhone: req.UserPhone,
	})
}

func (s *service) createRegistration(ctx *ginext.Context, event *model.Event, r extract.Registrant) {
	reg := &model.Registration{
		EventID:     event.ID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		UserPhone:   r.UserPhone,
		UserClass:   r.UserClass,
		UserSection: r.UserSection,
		UserYear:    r.UserYear,
	}

	id, err := s.repo.RegisterTx(ctx.Request.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrEventFull):
			dto.EventFullError(ctx)
		case errors.Is(err, repo.ErrDuplicateRegistration):
			dto.RegistrationDuplicateError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to create registration")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().Str("registration_id", id).Str("event_id", event.ID).Msg("registration created successfully")
	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyRegistration,
		EventName: event.Name,
		Recipient: r.UserEmail,
		UserName:  r.UserName,
	})

	dto.SuccessCreatedResponse(ctx, dto.RegistrationResponse{
		ID:          id,
		EventID:     event.ID,
		EventName:   event.Name,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		UserClass:   r.UserClass,
		UserSection: r.UserSection,
		UserYear:    r.UserYear,
		Status:      "confirmed",
		CreatedAt:   time.Now(),
	})
}

func (s *service) Feedback(ctx *ginext.Context) {
	var req dto.FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	events, err := s.repo.GetAllEvents(ctx.Request.Context(), true)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch events for feedback")
		dto.InternalServerError(ctx)
		return
	}

	selected, candidates, err := gate.ResolveForFeedback(events, req.EventName, time.Now())
	switch {
	case errors.Is(err, gate.ErrNoMatch):
		dto.FeedbackClosedError(ctx,
			fmt.Sprintf("No event matching '%s' can take feedback: the window is today plus %d days after completion",
				req.EventName, timing.FeedbackWindowDays))
		return
	case errors.Is(err, gate.ErrAmbiguous):
		dto.EventAmbiguousError(ctx, eventMatches(candidates))
		return
	case err != nil:
		dto.InternalServerError(ctx)
		return
	}

	fb := &model.Feedback{
		EventID:   selected.Event.ID,
		UserEmail: req.UserEmail,
		Rating:    req.Rating,
		Comments:  req.Comments,
	}
	id, err := s.repo.CreateFeedback(ctx.Request.Context(), fb)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create feedback")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("feedback_id", id).Str("event_id", selected.Event.ID).Msg("feedback submitted")
	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyFeedback,
		EventName: selected.Event.Name,
		Recipient: req.UserEmail,
		Rating:    req.Rating,
	})

	dto.SuccessCreatedResponse(ctx, dto.FeedbackResponse{
		ID:          id,
		EventName:   selected.Event.Name,
		Rating:      req.Rating,
		Comments:    req.Comments,
		SubmittedAt: time.Now(),
	})
}

func (s *service) RegistrationStatus(ctx *ginext.Context) {
	eventID := ctx.Query("event_id")
	email := ctx.Query("email")
	if eventID == "" || email == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Query parameters 'event_id' and 'email' are required")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	reg, err := s.repo.GetRegistration(ctx.Request.Context(), eventID, email)
	if err != nil {
		dto.SuccessResponse(ctx, map[string]any{"is_registered": false})
		return
	}

	dto.SuccessResponse(ctx, map[string]any{
		"is_registered": true,
		"registration": dto.RegistrationResponse{
			ID:          reg.ID,
			EventID:     reg.EventID,
			EventName:   event.Name,
			UserName:    reg.UserName,
			UserEmail:   reg.UserEmail,
			UserClass:   reg.UserClass,
			UserSection: reg.UserSection,
			UserYear:    reg.UserYear,
			Status:      reg.Status,
			CreatedAt:   reg.CreatedAt,
		},
	})
}

func (s *service) SessionHistory(ctx *ginext.Context) {
	sessionID := ctx.Param("id")
	history := s.agent.History(sessionID)
	dto.SuccessResponse(ctx, map[string]any{
		"session_id":    sessionID,
		"message_count": len(history),
		"messages":      history,
	})
}

func (s *service) ClearSession(ctx *ginext.Context) {
	sessionID := ctx.Param("id")
	s.agent.ClearSession(sessionID)
	dto.SuccessResponse(ctx, map[string]any{"session_id": sessionID, "cleared": true})
}

func (s *service) notify(msg dto.NotificationMessage) {
	if s.rbt == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish notification")
	}
}

func eventResponse(e *model.Event, tm timing.EventTiming) dto.EventResponse {
	return dto.EventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Date:            e.Date,
		Location:        e.Location,
		Category:        e.Category,
		TotalSlots:      e.TotalSlots,
		AvailableSlots:  e.AvailableSlots,
		IsFull:          e.IsFull(),
		EventStatus:     string(tm.Status),
		IsToday:         tm.IsToday,
		TimeDescription: tm.TimeDescription,
		CanRegister:     tm.CanRegister && e.AvailableSlots > 0,
		CanGiveFeedback: tm.CanGiveFeedback,
	}
}

func eventMatches(candidates []gate.Candidate) []dto.EventMatch {
	matches := make([]dto.EventMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = dto.EventMatch{
			Name:   c.Event.Name,
			Date:   c.Event.Date,
			Status: string(c.Timing.Status),
		}
	}
	return matches
}
