package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rleal/face-attendance/internal/gallery"
)

// EventRepository provides PostgreSQL-backed event storage.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*gallery.Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, speaker, event_date, created_at
		FROM events WHERE id = $1
	`, id)

	var e gallery.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Speaker, &e.Date, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gallery.ErrNotFound
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &e, nil
}

// ListEvents returns all events, newest first.
func (r *EventRepository) ListEvents(ctx context.Context) ([]gallery.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, speaker, event_date, created_at
		FROM events
		ORDER BY event_date DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []gallery.Event
	for rows.Next() {
		var e gallery.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Speaker, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CreateEvent stores a new event, generating an ID when missing.
func (r *EventRepository) CreateEvent(ctx context.Context, e gallery.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, name, description, speaker, event_date)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Name, e.Description, e.Speaker, e.Date)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}
