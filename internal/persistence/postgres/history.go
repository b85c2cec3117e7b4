package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/availability-coordinator/internal/persistence"
)

const historyColumns = `id, identity, event_id, event_title, event_description, participant_name, memo, slots, submitted_at, updated_at`

func (s *Store) FindHistoryEntry(ctx context.Context, identity, eventID string) (persistence.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+historyColumns+` FROM response_history WHERE identity = $1 AND event_id = $2`, identity, eventID)
	entry, err := scanHistoryEntry(row)
	if err != nil {
		return persistence.HistoryEntry{}, mapError(err)
	}
	return entry, nil
}

func (s *Store) CreateHistoryEntry(ctx context.Context, entry persistence.HistoryEntry) error {
	slots, err := persistence.EncodeHistorySlots(entry.Slots)
	if err != nil {
		return fmt.Errorf("postgres: encode history slots: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO response_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10)
	`, entry.ID, entry.Identity, entry.EventID, entry.EventTitle, entry.EventDescription,
		entry.ParticipantName, entry.Memo, string(slots), entry.SubmittedAt.UTC(), entry.UpdatedAt)
	return mapError(err)
}

func (s *Store) UpdateHistoryEntry(ctx context.Context, entry persistence.HistoryEntry) error {
	slots, err := persistence.EncodeHistorySlots(entry.Slots)
	if err != nil {
		return fmt.Errorf("postgres: encode history slots: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE response_history
		SET event_title = $1, event_description = $2, participant_name = $3, memo = $4, slots = $5::jsonb, updated_at = $6
		WHERE id = $7
	`, entry.EventTitle, entry.EventDescription, entry.ParticipantName, entry.Memo, string(slots), entry.UpdatedAt, entry.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) ListHistoryEntries(ctx context.Context, identity string) ([]persistence.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+historyColumns+`
		FROM response_history
		WHERE identity = $1
		ORDER BY COALESCE(updated_at, submitted_at) DESC, id DESC
	`, identity)
	if err != nil {
		return nil, mapError(err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.HistoryEntry, error) {
		return scanHistoryEntry(row)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

func scanHistoryEntry(row pgx.Row) (persistence.HistoryEntry, error) {
	var (
		entry     persistence.HistoryEntry
		slots     string
		updatedAt *time.Time
	)
	if err := row.Scan(
		&entry.ID,
		&entry.Identity,
		&entry.EventID,
		&entry.EventTitle,
		&entry.EventDescription,
		&entry.ParticipantName,
		&entry.Memo,
		&slots,
		&entry.SubmittedAt,
		&updatedAt,
	); err != nil {
		return persistence.HistoryEntry{}, err
	}

	decoded, err := persistence.DecodeHistorySlots([]byte(slots))
	if err != nil {
		return persistence.HistoryEntry{}, err
	}
	entry.Slots = decoded
	entry.SubmittedAt = entry.SubmittedAt.UTC()
	if updatedAt != nil {
		utc := updatedAt.UTC()
		entry.UpdatedAt = &utc
	}
	return entry, nil
}
