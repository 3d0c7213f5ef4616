package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"nemochat/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventFull             = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrEventInactive         = errors.New("event is not active")
)

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) (string, error)
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	GetAllEvents(ctx context.Context, onlyActive bool) ([]model.Event, error)
	RegisterTx(ctx context.Context, reg *model.Registration) (string, error)
	GetRegistration(ctx context.Context, eventID, email string) (*model.Registration, error)
	CreateFeedback(ctx context.Context, fb *model.Feedback) (string, error)
	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.up.sql")
}

func (r *repository) MigrateDown(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.down.sql")
}

func (r *repository) applyMigrations(migrationsDir, pattern string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations (%s) applied from %s", pattern, migrationsDir)
	return nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (string, error) {
	query := `
		INSERT INTO events (id, name, description, date, location, category, total_slots, available_slots, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), e.Name, e.Description, e.Date, e.Location, e.Category, e.TotalSlots, e.IsActive,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	query := `
		SELECT id, name, description, date, location, category,
		       total_slots, available_slots, is_active, created_at, updated_at
		FROM events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.Category,
		&e.TotalSlots, &e.AvailableSlots, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

func (r *repository) GetAllEvents(ctx context.Context, onlyActive bool) ([]model.Event, error) {
	query := `
		SELECT id, name, description, date, location, category,
		       total_slots, available_slots, is_active, created_at, updated_at
		FROM events
	`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.Category,
			&e.TotalSlots, &e.AvailableSlots, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// RegisterTx inserts a registration and takes one slot in a single
// transaction. The event row is locked FOR UPDATE so concurrent requests
// cannot oversubscribe the last slot.
func (r *repository) RegisterTx(ctx context.Context, reg *model.Registration) (string, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var available int
	var active bool
	err = tx.QueryRowContext(ctx, `
		SELECT available_slots, is_active
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, reg.EventID).Scan(&available, &active)
	if err != nil {
		_ = tx.Rollback()
		return "", ErrEventNotFound
	}
	if !active {
		_ = tx.Rollback()
		return "", ErrEventInactive
	}
	if available <= 0 {
		_ = tx.Rollback()
		return "", ErrEventFull
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND user_email = $2 AND status != 'cancelled'
	`, reg.EventID, reg.UserEmail).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if existing > 0 {
		_ = tx.Rollback()
		return "", ErrDuplicateRegistration
	}

	reg.Status = "confirmed"
	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (id, event_id, user_name, user_email, user_phone, user_class, user_section, user_year, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, uuid.NewString(), reg.EventID, reg.UserName, reg.UserEmail, reg.UserPhone,
		reg.UserClass, reg.UserSection, reg.UserYear, reg.Status).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to create registration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET available_slots = available_slots - 1, updated_at = NOW()
		WHERE id = $1
	`, reg.EventID); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to decrement available slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (r *repository) GetRegistration(ctx context.Context, eventID, email string) (*model.Registration, error) {
	query := `
		SELECT id, event_id, user_name, user_email, user_phone,
		       user_class, user_section, user_year, status, created_at
		FROM registrations
		WHERE event_id = $1 AND user_email = $2 AND status != 'cancelled'
	`
	row := r.db.QueryRowContext(ctx, query, eventID, email)

	var reg model.Registration
	if err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserName,
		&reg.UserEmail,
		&reg.UserPhone,
		&reg.UserClass,
		&reg.UserSection,
		&reg.UserYear,
		&reg.Status,
		&reg.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("registration not found: %w", err)
	}

	return &reg, nil
}

func (r *repository) CreateFeedback(ctx context.Context, fb *model.Feedback) (string, error) {
	query := `
		INSERT INTO feedback (id, event_id, user_email, rating, comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), fb.EventID, fb.UserEmail, fb.Rating, fb.Comments,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert feedback: %w", err)
	}
	return id, nil
}
