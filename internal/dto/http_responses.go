package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound         = "EVENT_NOT_FOUND"
	EventAmbiguous        = "EVENT_AMBIGUOUS"
	EventFull             = "EVENT_FULL"
	RegistrationClosed    = "REGISTRATION_CLOSED"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	FeedbackClosed        = "FEEDBACK_CLOSED"
	TimingUnknown         = "TIMING_UNKNOWN"
)

type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=1000"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response    string    `json:"response"`
	SessionID   string    `json:"session_id"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Websocket envelope, both directions. Inbound types are "message" and
// "ping"; outbound are "response", "typing", "pong" and "error".
type WSMessage struct {
	Type        string   `json:"type"`
	Content     string   `json:"content,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

const (
	WSTypeMessage  = "message"
	WSTypePing     = "ping"
	WSTypePong     = "pong"
	WSTypeTyping   = "typing"
	WSTypeResponse = "response"
	WSTypeError    = "error"
)

type RegisterByNameRequest struct {
	EventName   string `json:"event_name" validate:"required"`
	UserName    string `json:"user_name" validate:"required,min=2,max=100"`
	UserEmail   string `json:"user_email" validate:"required,email"`
	UserPhone   string `json:"user_phone,omitempty"`
	UserClass   string `json:"user_class,omitempty" validate:"omitempty,cohort_class"`
	UserSection string `json:"user_section,omitempty" validate:"omitempty,cohort_section"`
	UserYear    string `json:"user_year,omitempty" validate:"omitempty,cohort_year"`
	RawMessage  string `json:"raw_message,omitempty"`
}

type RegisterByIDRequest struct {
	UserName  string `json:"user_name" validate:"required,min=2,max=100"`
	UserEmail string `json:"user_email" validate:"required,email"`
	UserPhone string `json:"user_phone,omitempty"`
}

type FeedbackRequest struct {
	EventName string `json:"event_name" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,email"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comments  string `json:"comments,omitempty" validate:"max=1000"`
}

// EventResponse carries the stored event plus its timing classification,
// computed fresh against the request clock.
type EventResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location,omitempty"`
	Category       string    `json:"category,omitempty"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	IsFull         bool      `json:"is_full"`

	EventStatus     string `json:"event_status"`
	IsToday         bool   `json:"is_today"`
	TimeDescription string `json:"time_description"`
	CanRegister     bool   `json:"can_register"`
	CanGiveFeedback bool   `json:"can_give_feedback"`
}

type RegistrationResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	EventName   string    `json:"event_name"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	UserClass   string    `json:"user_class,omitempty"`
	UserSection string    `json:"user_section,omitempty"`
	UserYear    string    `json:"user_year,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type FeedbackResponse struct {
	ID          string    `json:"id"`
	EventName   string    `json:"event_name"`
	Rating      int       `json:"rating"`
	Comments    string    `json:"comments,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// EventMatch is one entry of a disambiguation list.
type EventMatch struct {
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// NotificationMessage travels over RabbitMQ from the HTTP path to the mail
// worker.
type NotificationMessage struct {
	Kind      string `json:"kind"` // "registration" or "feedback"
	EventName string `json:"event_name"`
	Recipient string `json:"recipient"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating,omitempty"`
}

const (
	NotifyRegistration = "registration"
	NotifyFeedback     = "feedback"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Matches any    `json:"matches,omitempty"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	BadResponseError(c, EventNotFound, "Event not found")
}

// EventAmbiguousError returns the candidate set so the client can ask the
// user to pick, distinct from both success and a hard failure.
func EventAmbiguousError(c *ginext.Context, matches []EventMatch) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code:    EventAmbiguous,
			Desc:    "Multiple events match, please specify the exact name",
			Matches: matches,
		},
	})
}

func EventFullError(c *ginext.Context) {
	BadResponseError(c, EventFull, "Event is full, no slots remaining")
}

func RegistrationClosedError(c *ginext.Context, timeDescription string) {
	BadResponseError(c, RegistrationClosed, "Cannot register: this event took place "+timeDescription)
}

func RegistrationDuplicateError(c *ginext.Context) {
	BadResponseError(c, RegistrationDuplicate, "You have already registered for this event")
}

func FeedbackClosedError(c *ginext.Context, desc string) {
	BadResponseError(c, FeedbackClosed, desc)
}

func TimingUnknownError(c *ginext.Context) {
	BadResponseError(c, TimingUnknown, "Unable to verify event timing, action denied")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
