package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/availability-coordinator/internal/persistence"
)

// ResponseRepository implements persistence.ResponseRepository using SQLite.
type ResponseRepository struct {
	pool *ConnectionPool
}

// NewResponseRepository creates a new SQLite response repository.
func NewResponseRepository(pool *ConnectionPool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

const responseColumns = `id, event_id, name, identity, memo, save_to_history, slot_set_id, submitted_at, updated_at`

// CreateResponse inserts a response. A second response for the same event and
// identity fails with persistence.ErrDuplicate.
func (r *ResponseRepository) CreateResponse(ctx context.Context, response persistence.Response) error {
	_, err := r.pool.exec(ctx, `
		INSERT INTO responses (`+responseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		response.ID,
		response.EventID,
		response.Name,
		nullableString(response.Identity),
		response.Memo,
		boolToInt(response.SaveToHistory),
		response.SlotSetID,
		formatTime(response.SubmittedAt),
		formatOptionalTime(response.UpdatedAt),
	)
	return err
}

// UpdateResponse overwrites a response in a single row write.
func (r *ResponseRepository) UpdateResponse(ctx context.Context, response persistence.Response) error {
	result, err := r.pool.exec(ctx, `
		UPDATE responses
		SET name = ?, memo = ?, save_to_history = ?, slot_set_id = ?, updated_at = ?
		WHERE id = ? AND event_id = ?
	`,
		response.Name,
		response.Memo,
		boolToInt(response.SaveToHistory),
		response.SlotSetID,
		formatOptionalTime(response.UpdatedAt),
		response.ID,
		response.EventID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// GetResponse retrieves a response of an event by ID.
func (r *ResponseRepository) GetResponse(ctx context.Context, eventID, responseID string) (persistence.Response, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+responseColumns+` FROM responses WHERE event_id = ? AND id = ?
	`, eventID, responseID)
	response, err := scanResponse(row)
	if err != nil {
		return persistence.Response{}, r.pool.mapper.MapError(err)
	}
	return response, nil
}

// FindResponseByIdentity returns the event's response for identity.
func (r *ResponseRepository) FindResponseByIdentity(ctx context.Context, eventID, identity string) (persistence.Response, error) {
	if identity == "" {
		return persistence.Response{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+responseColumns+` FROM responses WHERE event_id = ? AND identity = ?
	`, eventID, identity)
	response, err := scanResponse(row)
	if err != nil {
		return persistence.Response{}, r.pool.mapper.MapError(err)
	}
	return response, nil
}

// ListResponses returns the event's responses, newest first.
func (r *ResponseRepository) ListResponses(ctx context.Context, eventID string) ([]persistence.Response, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+responseColumns+`
		FROM responses
		WHERE event_id = ?
		ORDER BY submitted_at DESC, id DESC
	`, eventID)
	if err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	defer rows.Close()

	responses := make([]persistence.Response, 0)
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	if err := rows.Err(); err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	return responses, nil
}

// CountResponses returns the number of responses of an event.
func (r *ResponseRepository) CountResponses(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE event_id = ?`, eventID).Scan(&count); err != nil {
		return 0, r.pool.mapper.MapError(err)
	}
	return count, nil
}

// DeleteResponse removes a response together with all of its slot documents.
func (r *ResponseRepository) DeleteResponse(ctx context.Context, eventID, responseID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE event_id = ? AND id = ?`, eventID, responseID)
		if err != nil {
			return r.pool.mapper.MapError(err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE event_id = ? AND response_id = ?`, eventID, responseID); err != nil {
			return r.pool.mapper.MapError(err)
		}
		return nil
	})
}

func scanResponse(s scanner) (persistence.Response, error) {
	var (
		response    persistence.Response
		identity    sql.NullString
		saveHistory int
		submittedAt string
		updatedAt   sql.NullString
	)
	if err := s.Scan(
		&response.ID,
		&response.EventID,
		&response.Name,
		&identity,
		&response.Memo,
		&saveHistory,
		&response.SlotSetID,
		&submittedAt,
		&updatedAt,
	); err != nil {
		return persistence.Response{}, err
	}

	if identity.Valid {
		value := identity.String
		response.Identity = &value
	}
	response.SaveToHistory = saveHistory != 0

	var err error
	if response.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return persistence.Response{}, err
	}
	if response.UpdatedAt, err = parseOptionalTime(updatedAt); err != nil {
		return persistence.Response{}, err
	}
	return response, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil || *value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
