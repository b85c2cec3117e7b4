package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/availability-coordinator/internal/persistence"
)

const eventColumns = `id, title, description, candidate_dates, host_id, host_name, default_in_person, created_at, updated_at`

func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	dates := event.CandidateDates
	if dates == nil {
		dates = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.ID, event.Title, event.Description, dates, event.HostID, event.HostName,
		event.DefaultInPersonAvailable, event.CreatedAt.UTC(), event.UpdatedAt)
	return mapError(err)
}

func (s *Store) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	return event, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events
		SET title = $1, description = $2, candidate_dates = $3, host_name = $4, default_in_person = $5, updated_at = $6
		WHERE id = $7
	`, event.Title, event.Description, event.CandidateDates, event.HostName,
		event.DefaultInPersonAvailable, event.UpdatedAt, event.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) ListEventsByHost(ctx context.Context, hostID string) ([]persistence.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE host_id = $1
		ORDER BY created_at DESC, id DESC
	`, hostID)
	if err != nil {
		return nil, mapError(err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.Event, error) {
		return scanEvent(row)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (persistence.Event, error) {
	var (
		event     persistence.Event
		updatedAt *time.Time
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.CandidateDates,
		&event.HostID,
		&event.HostName,
		&event.DefaultInPersonAvailable,
		&event.CreatedAt,
		&updatedAt,
	); err != nil {
		return persistence.Event{}, err
	}
	event.CreatedAt = event.CreatedAt.UTC()
	if updatedAt != nil {
		utc := updatedAt.UTC()
		event.UpdatedAt = &utc
	}
	return event, nil
}
