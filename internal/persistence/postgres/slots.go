package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/availability-coordinator/internal/persistence"
)

func (s *Store) AddSlotRecord(ctx context.Context, record persistence.SlotRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO time_slots (id, event_id, response_id, slot_set_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, record.ID, record.EventID, record.ResponseID, record.SlotSetID, string(record.Payload), record.CreatedAt.UTC())
	return mapError(err)
}

func (s *Store) ListSlotRecords(ctx context.Context, eventID, responseID, slotSetID string) ([]persistence.SlotRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, response_id, slot_set_id, payload, created_at
		FROM time_slots
		WHERE event_id = $1 AND response_id = $2 AND slot_set_id = $3
		ORDER BY created_at, id
	`, eventID, responseID, slotSetID)
	if err != nil {
		return nil, mapError(err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.SlotRecord, error) {
		var (
			record  persistence.SlotRecord
			payload string
		)
		if err := row.Scan(&record.ID, &record.EventID, &record.ResponseID, &record.SlotSetID, &payload, &record.CreatedAt); err != nil {
			return persistence.SlotRecord{}, err
		}
		record.Payload = []byte(payload)
		record.CreatedAt = record.CreatedAt.UTC()
		return record, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

func (s *Store) DeleteStaleSlotRecords(ctx context.Context, eventID, responseID, keepSetID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM time_slots
		WHERE event_id = $1 AND response_id = $2 AND slot_set_id <> $3
	`, eventID, responseID, keepSetID)
	return mapError(err)
}

func (s *Store) DeleteOrphanSlotRecords(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM time_slots t
		WHERE t.created_at < $1
		  AND NOT EXISTS (
		      SELECT 1 FROM responses r
		      WHERE r.id = t.response_id AND r.slot_set_id = t.slot_set_id
		  )
	`, olderThan.UTC())
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}
