package persistence

import (
	"context"
	"time"
)

// EventRepository stores events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventsByHost(ctx context.Context, hostID string) ([]Event, error)
}

// ResponseRepository stores the responses nested under an event.
//
// CreateResponse returns ErrDuplicate when the event already holds a response
// for the same non-empty identity.
type ResponseRepository interface {
	CreateResponse(ctx context.Context, response Response) error
	UpdateResponse(ctx context.Context, response Response) error
	GetResponse(ctx context.Context, eventID, responseID string) (Response, error)
	FindResponseByIdentity(ctx context.Context, eventID, identity string) (Response, error)
	ListResponses(ctx context.Context, eventID string) ([]Response, error)
	CountResponses(ctx context.Context, eventID string) (int, error)
	DeleteResponse(ctx context.Context, eventID, responseID string) error
}

// SlotRepository stores slot documents nested under a response.
type SlotRepository interface {
	AddSlotRecord(ctx context.Context, record SlotRecord) error
	ListSlotRecords(ctx context.Context, eventID, responseID, slotSetID string) ([]SlotRecord, error)
	// DeleteStaleSlotRecords removes the documents of a response that do not
	// belong to keepSetID.
	DeleteStaleSlotRecords(ctx context.Context, eventID, responseID, keepSetID string) error
	// DeleteOrphanSlotRecords removes documents created before olderThan that
	// are not part of their response's current slot set.
	DeleteOrphanSlotRecords(ctx context.Context, olderThan time.Time) (int, error)
}

// HistoryRepository stores the cross-event response history.
type HistoryRepository interface {
	FindHistoryEntry(ctx context.Context, identity, eventID string) (HistoryEntry, error)
	CreateHistoryEntry(ctx context.Context, entry HistoryEntry) error
	UpdateHistoryEntry(ctx context.Context, entry HistoryEntry) error
	ListHistoryEntries(ctx context.Context, identity string) ([]HistoryEntry, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	EventRepository
	ResponseRepository
	SlotRepository
	HistoryRepository
	Close() error
}
