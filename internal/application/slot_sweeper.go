package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

// DefaultSweepGrace keeps slot sets that may still belong to an in-flight
// submission.
const DefaultSweepGrace = 10 * time.Minute

// SlotSweeper removes slot documents that no response references, such as the
// sets left behind by failed or superseded submissions.
type SlotSweeper struct {
	slots  persistence.SlotRepository
	grace  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSlotSweeper constructs a sweeper. A non-positive grace uses DefaultSweepGrace.
func NewSlotSweeper(slots persistence.SlotRepository, grace time.Duration, now func() time.Time, logger *slog.Logger) *SlotSweeper {
	if grace <= 0 {
		grace = DefaultSweepGrace
	}
	if now == nil {
		now = time.Now
	}
	return &SlotSweeper{slots: slots, grace: grace, now: now, logger: defaultLogger(logger)}
}

// Sweep deletes unreferenced slot documents older than the grace period and
// returns how many were removed.
func (s *SlotSweeper) Sweep(ctx context.Context) (removed int, err error) {
	if s == nil || s.slots == nil {
		return 0, fmt.Errorf("slot repository not configured")
	}

	cutoff := s.now().Add(-s.grace)
	logger := serviceLogger(ctx, s.logger, "SlotSweeper", "Sweep", "cutoff", cutoff)

	removed, err = s.slots.DeleteOrphanSlotRecords(ctx, cutoff)
	if err != nil {
		err = persistenceError("sweep slots", err)
		logger.ErrorContext(ctx, "slot sweep failed", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if removed > 0 {
		logger.InfoContext(ctx, "orphaned slot documents removed", "removed", removed)
	}
	return removed, nil
}
