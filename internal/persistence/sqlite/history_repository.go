package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/availability-coordinator/internal/persistence"
)

// HistoryRepository implements persistence.HistoryRepository using SQLite.
type HistoryRepository struct {
	pool *ConnectionPool
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(pool *ConnectionPool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

const historyColumns = `id, identity, event_id, event_title, event_description, participant_name, memo, slots, submitted_at, updated_at`

// FindHistoryEntry returns the entry for an identity and event.
func (r *HistoryRepository) FindHistoryEntry(ctx context.Context, identity, eventID string) (persistence.HistoryEntry, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM response_history WHERE identity = ? AND event_id = ?
	`, identity, eventID)
	entry, err := scanHistoryEntry(row)
	if err != nil {
		return persistence.HistoryEntry{}, r.pool.mapper.MapError(err)
	}
	return entry, nil
}

// CreateHistoryEntry inserts an entry. One entry exists per identity and event.
func (r *HistoryRepository) CreateHistoryEntry(ctx context.Context, entry persistence.HistoryEntry) error {
	slots, err := persistence.EncodeHistorySlots(entry.Slots)
	if err != nil {
		return fmt.Errorf("sqlite: encode history slots: %w", err)
	}
	_, err = r.pool.exec(ctx, `
		INSERT INTO response_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Identity,
		entry.EventID,
		entry.EventTitle,
		entry.EventDescription,
		entry.ParticipantName,
		entry.Memo,
		string(slots),
		formatTime(entry.SubmittedAt),
		formatOptionalTime(entry.UpdatedAt),
	)
	return err
}

// UpdateHistoryEntry overwrites the snapshot held by an entry.
func (r *HistoryRepository) UpdateHistoryEntry(ctx context.Context, entry persistence.HistoryEntry) error {
	slots, err := persistence.EncodeHistorySlots(entry.Slots)
	if err != nil {
		return fmt.Errorf("sqlite: encode history slots: %w", err)
	}
	result, err := r.pool.exec(ctx, `
		UPDATE response_history
		SET event_title = ?, event_description = ?, participant_name = ?, memo = ?, slots = ?, updated_at = ?
		WHERE id = ?
	`,
		entry.EventTitle,
		entry.EventDescription,
		entry.ParticipantName,
		entry.Memo,
		string(slots),
		formatOptionalTime(entry.UpdatedAt),
		entry.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListHistoryEntries returns the identity's entries, most recently touched first.
func (r *HistoryRepository) ListHistoryEntries(ctx context.Context, identity string) ([]persistence.HistoryEntry, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM response_history
		WHERE identity = ?
		ORDER BY COALESCE(updated_at, submitted_at) DESC, id DESC
	`, identity)
	if err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	return entries, nil
}

func scanHistoryEntry(s scanner) (persistence.HistoryEntry, error) {
	var (
		entry       persistence.HistoryEntry
		slots       string
		submittedAt string
		updatedAt   sql.NullString
	)
	if err := s.Scan(
		&entry.ID,
		&entry.Identity,
		&entry.EventID,
		&entry.EventTitle,
		&entry.EventDescription,
		&entry.ParticipantName,
		&entry.Memo,
		&slots,
		&submittedAt,
		&updatedAt,
	); err != nil {
		return persistence.HistoryEntry{}, err
	}

	var err error
	if entry.Slots, err = persistence.DecodeHistorySlots([]byte(slots)); err != nil {
		return persistence.HistoryEntry{}, err
	}
	if entry.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return persistence.HistoryEntry{}, err
	}
	if entry.UpdatedAt, err = parseOptionalTime(updatedAt); err != nil {
		return persistence.HistoryEntry{}, err
	}
	return entry, nil
}
