package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

var baseTime = time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequence(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func seedEvent(store *memoryStore, id, host string, dates ...string) persistence.Event {
	if len(dates) == 0 {
		dates = []string{"2024-06-01", "2024-06-02"}
	}
	event := persistence.Event{
		ID:             id,
		Title:          "Dinner " + id,
		Description:    "team dinner",
		CandidateDates: dates,
		HostID:         host,
		HostName:       "Host",
		CreatedAt:      baseTime,
	}
	store.events[id] = event
	return event
}

// currentSlots reads the slot set a response currently references.
func currentSlots(t *testing.T, store *memoryStore, eventID, responseID string) SlotsByDate {
	t.Helper()
	response, err := store.GetResponse(context.Background(), eventID, responseID)
	if err != nil {
		t.Fatalf("response %s not found: %v", responseID, err)
	}
	slots, _, err := readSlotSet(context.Background(), store, discardLogger(), response)
	if err != nil {
		t.Fatalf("read slots: %v", err)
	}
	return slots
}

func slot(timeRange string) TimeSlot {
	return TimeSlot{TimeRange: timeRange}
}
