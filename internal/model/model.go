package model

import "time"

type Event struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description,omitempty" json:"description,omitempty"`
	Date           time.Time `db:"date" json:"date"`
	Location       string    `db:"location,omitempty" json:"location,omitempty"`
	Category       string    `db:"category,omitempty" json:"category,omitempty"`
	TotalSlots     int       `db:"total_slots" json:"total_slots"`
	AvailableSlots int       `db:"available_slots" json:"available_slots"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (e *Event) IsFull() bool {
	return e.AvailableSlots <= 0
}

type Registration struct {
	ID          string    `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	UserName    string    `db:"user_name" json:"user_name"`
	UserEmail   string    `db:"user_email" json:"user_email"`
	UserPhone   string    `db:"user_phone,omitempty" json:"user_phone,omitempty"`
	UserClass   string    `db:"user_class,omitempty" json:"user_class,omitempty"`
	UserSection string    `db:"user_section,omitempty" json:"user_section,omitempty"`
	UserYear    string    `db:"user_year,omitempty" json:"user_year,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Feedback struct {
	ID          string    `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	UserEmail   string    `db:"user_email" json:"user_email"`
	Rating      int       `db:"rating" json:"rating"`
	Comments    string    `db:"comments,omitempty" json:"comments,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}
