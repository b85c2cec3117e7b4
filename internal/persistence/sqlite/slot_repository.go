package sqlite

import (
	"context"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

// SlotRepository implements persistence.SlotRepository using SQLite.
type SlotRepository struct {
	pool *ConnectionPool
}

// NewSlotRepository creates a new SQLite slot repository.
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// AddSlotRecord stores one slot document. The payload is stored as given.
func (r *SlotRepository) AddSlotRecord(ctx context.Context, record persistence.SlotRecord) error {
	_, err := r.pool.exec(ctx, `
		INSERT INTO time_slots (id, event_id, response_id, slot_set_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.EventID,
		record.ResponseID,
		record.SlotSetID,
		string(record.Payload),
		formatTime(record.CreatedAt),
	)
	return err
}

// ListSlotRecords returns the documents of one slot set in insertion order.
func (r *SlotRepository) ListSlotRecords(ctx context.Context, eventID, responseID, slotSetID string) ([]persistence.SlotRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, response_id, slot_set_id, payload, created_at
		FROM time_slots
		WHERE event_id = ? AND response_id = ? AND slot_set_id = ?
		ORDER BY created_at, id
	`, eventID, responseID, slotSetID)
	if err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	defer rows.Close()

	records := make([]persistence.SlotRecord, 0)
	for rows.Next() {
		var (
			record    persistence.SlotRecord
			payload   string
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.EventID, &record.ResponseID, &record.SlotSetID, &payload, &createdAt); err != nil {
			return nil, r.pool.mapper.MapError(err)
		}
		record.Payload = []byte(payload)
		if record.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.pool.mapper.MapError(err)
	}
	return records, nil
}

// DeleteStaleSlotRecords removes the response's documents outside keepSetID.
func (r *SlotRepository) DeleteStaleSlotRecords(ctx context.Context, eventID, responseID, keepSetID string) error {
	_, err := r.pool.exec(ctx, `
		DELETE FROM time_slots
		WHERE event_id = ? AND response_id = ? AND slot_set_id <> ?
	`, eventID, responseID, keepSetID)
	return err
}

// DeleteOrphanSlotRecords removes documents older than olderThan that no
// response references through its current slot set.
func (r *SlotRepository) DeleteOrphanSlotRecords(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.pool.exec(ctx, `
		DELETE FROM time_slots
		WHERE created_at < ?
		  AND NOT EXISTS (
		      SELECT 1 FROM responses
		      WHERE responses.id = time_slots.response_id
		        AND responses.slot_set_id = time_slots.slot_set_id
		  )
	`, formatTime(olderThan))
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
