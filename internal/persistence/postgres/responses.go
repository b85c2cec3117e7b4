package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/availability-coordinator/internal/persistence"
)

const responseColumns = `id, event_id, name, identity, memo, save_to_history, slot_set_id, submitted_at, updated_at`

func (s *Store) CreateResponse(ctx context.Context, response persistence.Response) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO responses (`+responseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, response.ID, response.EventID, response.Name, nullableString(response.Identity), response.Memo,
		response.SaveToHistory, response.SlotSetID, response.SubmittedAt.UTC(), response.UpdatedAt)
	return mapError(err)
}

func (s *Store) UpdateResponse(ctx context.Context, response persistence.Response) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE responses
		SET name = $1, memo = $2, save_to_history = $3, slot_set_id = $4, updated_at = $5
		WHERE id = $6 AND event_id = $7
	`, response.Name, response.Memo, response.SaveToHistory, response.SlotSetID, response.UpdatedAt,
		response.ID, response.EventID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) GetResponse(ctx context.Context, eventID, responseID string) (persistence.Response, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+responseColumns+` FROM responses WHERE event_id = $1 AND id = $2`, eventID, responseID)
	response, err := scanResponse(row)
	if err != nil {
		return persistence.Response{}, mapError(err)
	}
	return response, nil
}

func (s *Store) FindResponseByIdentity(ctx context.Context, eventID, identity string) (persistence.Response, error) {
	if identity == "" {
		return persistence.Response{}, persistence.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+responseColumns+` FROM responses WHERE event_id = $1 AND identity = $2`, eventID, identity)
	response, err := scanResponse(row)
	if err != nil {
		return persistence.Response{}, mapError(err)
	}
	return response, nil
}

func (s *Store) ListResponses(ctx context.Context, eventID string) ([]persistence.Response, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+responseColumns+`
		FROM responses
		WHERE event_id = $1
		ORDER BY submitted_at DESC, id DESC
	`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	responses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.Response, error) {
		return scanResponse(row)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return responses, nil
}

func (s *Store) CountResponses(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM responses WHERE event_id = $1`, eventID).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteResponse removes a response and its slot documents in one transaction.
func (s *Store) DeleteResponse(ctx context.Context, eventID, responseID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM responses WHERE event_id = $1 AND id = $2`, eventID, responseID)
		if err != nil {
			return mapError(err)
		}
		if err := requireAffected(tag); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM time_slots WHERE event_id = $1 AND response_id = $2`, eventID, responseID); err != nil {
			return mapError(err)
		}
		return nil
	})
}

func scanResponse(row pgx.Row) (persistence.Response, error) {
	var (
		response  persistence.Response
		identity  *string
		updatedAt *time.Time
	)
	if err := row.Scan(
		&response.ID,
		&response.EventID,
		&response.Name,
		&identity,
		&response.Memo,
		&response.SaveToHistory,
		&response.SlotSetID,
		&response.SubmittedAt,
		&updatedAt,
	); err != nil {
		return persistence.Response{}, err
	}
	response.Identity = identity
	response.SubmittedAt = response.SubmittedAt.UTC()
	if updatedAt != nil {
		utc := updatedAt.UTC()
		response.UpdatedAt = &utc
	}
	return response, nil
}
