package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/availability-coordinator/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, title, description, candidate_dates, host_id, host_name, default_in_person, created_at, updated_at`

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	dates, err := persistence.EncodeStringList(event.CandidateDates)
	if err != nil {
		return fmt.Errorf("sqlite: encode candidate dates: %w", err)
	}

	_, err = r.pool.exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.Title,
		event.Description,
		string(dates),
		event.HostID,
		event.HostName,
		boolToInt(event.DefaultInPersonAvailable),
		formatTime(event.CreatedAt),
		formatOptionalTime(event.UpdatedAt),
	)
	return err
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.Event{}, r.pool.mapper.MapError(err)
	}
	return event, nil
}

// UpdateEvent overwrites the mutable fields of an event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	dates, err := persistence.EncodeStringList(event.CandidateDates)
	if err != nil {
		return fmt.Errorf("sqlite: encode candidate dates: %w", err)
	}

	result, err := r.pool.exec(ctx, `
		UPDATE events
		SET title = ?, description = ?, candidate_dates = ?, host_name = ?, default_in_person = ?, updated_at = ?
		WHERE id = ?
	`,
		event.Title,
		event.Description,
		string(dates),
		event.HostName,
		boolToInt(event.DefaultInPersonAvailable),
		formatOptionalTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteEvent removes an event. Responses and slot documents cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.pool.exec(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListEventsByHost returns the host's events, newest first.
func (r *EventRepository) ListEventsByHost(ctx context.Context, hostID string) ([]persistence.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE host_id = ?
		ORDER BY created_at DESC, id DESC
	`, hostID)
	if err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	defer rows.Close()

	events := make([]persistence.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (persistence.Event, error) {
	var (
		event     persistence.Event
		dates     string
		inPerson  int
		createdAt string
		updatedAt sql.NullString
	)
	if err := s.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&dates,
		&event.HostID,
		&event.HostName,
		&inPerson,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Event{}, err
	}

	list, err := persistence.DecodeStringList([]byte(dates))
	if err != nil {
		return persistence.Event{}, err
	}
	event.CandidateDates = list
	event.DefaultInPersonAvailable = inPerson != 0

	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseOptionalTime(updatedAt); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
