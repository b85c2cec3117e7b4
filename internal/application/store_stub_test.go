package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

var errStoreDown = errors.New("store unavailable")

// memoryStore is an in-memory persistence.Store with failure injection.
type memoryStore struct {
	mu        sync.Mutex
	events    map[string]persistence.Event
	responses map[string]persistence.Response
	slots     []persistence.SlotRecord
	history   map[string]persistence.HistoryEntry

	// errs fails the named operation with the given error.
	errs map[string]error
	// failSlotWriteAt fails the n-th AddSlotRecord call (1-based).
	failSlotWriteAt int
	slotWrites      int
	// beforeCreateResponse runs without the lock held, before the insert.
	beforeCreateResponse func()
}

var _ persistence.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		events:    make(map[string]persistence.Event),
		responses: make(map[string]persistence.Response),
		history:   make(map[string]persistence.HistoryEntry),
		errs:      make(map[string]error),
	}
}

func (m *memoryStore) repos() Repositories {
	return RepositoriesFrom(m)
}

func (m *memoryStore) fail(op string) error {
	return m.errs[op]
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) CreateEvent(_ context.Context, event persistence.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateEvent"); err != nil {
		return err
	}
	if _, ok := m.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.events[event.ID] = event
	return nil
}

func (m *memoryStore) GetEvent(_ context.Context, id string) (persistence.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetEvent"); err != nil {
		return persistence.Event{}, err
	}
	event, ok := m.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

func (m *memoryStore) UpdateEvent(_ context.Context, event persistence.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateEvent"); err != nil {
		return err
	}
	if _, ok := m.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.events[event.ID] = event
	return nil
}

func (m *memoryStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteEvent"); err != nil {
		return err
	}
	if _, ok := m.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.events, id)
	for rid, response := range m.responses {
		if response.EventID == id {
			delete(m.responses, rid)
		}
	}
	kept := m.slots[:0]
	for _, record := range m.slots {
		if record.EventID != id {
			kept = append(kept, record)
		}
	}
	m.slots = kept
	return nil
}

func (m *memoryStore) ListEventsByHost(_ context.Context, hostID string) ([]persistence.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListEventsByHost"); err != nil {
		return nil, err
	}
	events := make([]persistence.Event, 0)
	for _, event := range m.events {
		if event.HostID == hostID {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (m *memoryStore) CreateResponse(_ context.Context, response persistence.Response) error {
	if hook := m.beforeCreateResponse; hook != nil {
		m.beforeCreateResponse = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateResponse"); err != nil {
		return err
	}
	if _, ok := m.responses[response.ID]; ok {
		return persistence.ErrDuplicate
	}
	if response.Identity != nil {
		for _, existing := range m.responses {
			if existing.EventID == response.EventID && existing.Identity != nil && *existing.Identity == *response.Identity {
				return persistence.ErrDuplicate
			}
		}
	}
	m.responses[response.ID] = response
	return nil
}

func (m *memoryStore) UpdateResponse(_ context.Context, response persistence.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateResponse"); err != nil {
		return err
	}
	existing, ok := m.responses[response.ID]
	if !ok || existing.EventID != response.EventID {
		return persistence.ErrNotFound
	}
	m.responses[response.ID] = response
	return nil
}

func (m *memoryStore) GetResponse(_ context.Context, eventID, responseID string) (persistence.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	response, ok := m.responses[responseID]
	if !ok || response.EventID != eventID {
		return persistence.Response{}, persistence.ErrNotFound
	}
	return response, nil
}

func (m *memoryStore) FindResponseByIdentity(_ context.Context, eventID, identity string) (persistence.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindResponseByIdentity"); err != nil {
		return persistence.Response{}, err
	}
	for _, response := range m.responses {
		if response.EventID == eventID && response.Identity != nil && *response.Identity == identity {
			return response, nil
		}
	}
	return persistence.Response{}, persistence.ErrNotFound
}

func (m *memoryStore) ListResponses(_ context.Context, eventID string) ([]persistence.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListResponses"); err != nil {
		return nil, err
	}
	responses := make([]persistence.Response, 0)
	for _, response := range m.responses {
		if response.EventID == eventID {
			responses = append(responses, response)
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		if responses[i].SubmittedAt.Equal(responses[j].SubmittedAt) {
			return responses[i].ID > responses[j].ID
		}
		return responses[i].SubmittedAt.After(responses[j].SubmittedAt)
	})
	return responses, nil
}

func (m *memoryStore) CountResponses(ctx context.Context, eventID string) (int, error) {
	if err := m.fail("CountResponses"); err != nil {
		return 0, err
	}
	responses, err := m.ListResponses(ctx, eventID)
	return len(responses), err
}

func (m *memoryStore) DeleteResponse(_ context.Context, eventID, responseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteResponse"); err != nil {
		return err
	}
	response, ok := m.responses[responseID]
	if !ok || response.EventID != eventID {
		return persistence.ErrNotFound
	}
	delete(m.responses, responseID)
	kept := m.slots[:0]
	for _, record := range m.slots {
		if record.ResponseID != responseID {
			kept = append(kept, record)
		}
	}
	m.slots = kept
	return nil
}

func (m *memoryStore) AddSlotRecord(_ context.Context, record persistence.SlotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slotWrites++
	if m.failSlotWriteAt > 0 && m.slotWrites == m.failSlotWriteAt {
		return errStoreDown
	}
	if err := m.fail("AddSlotRecord"); err != nil {
		return err
	}
	m.slots = append(m.slots, record)
	return nil
}

func (m *memoryStore) ListSlotRecords(_ context.Context, eventID, responseID, slotSetID string) ([]persistence.SlotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListSlotRecords"); err != nil {
		return nil, err
	}
	records := make([]persistence.SlotRecord, 0)
	for _, record := range m.slots {
		if record.EventID == eventID && record.ResponseID == responseID && record.SlotSetID == slotSetID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *memoryStore) DeleteStaleSlotRecords(_ context.Context, eventID, responseID, keepSetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteStaleSlotRecords"); err != nil {
		return err
	}
	kept := m.slots[:0]
	for _, record := range m.slots {
		if record.EventID == eventID && record.ResponseID == responseID && record.SlotSetID != keepSetID {
			continue
		}
		kept = append(kept, record)
	}
	m.slots = kept
	return nil
}

func (m *memoryStore) DeleteOrphanSlotRecords(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteOrphanSlotRecords"); err != nil {
		return 0, err
	}
	removed := 0
	kept := m.slots[:0]
	for _, record := range m.slots {
		response, ok := m.responses[record.ResponseID]
		referenced := ok && response.SlotSetID == record.SlotSetID
		if !referenced && record.CreatedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	m.slots = kept
	return removed, nil
}

func (m *memoryStore) FindHistoryEntry(_ context.Context, identity, eventID string) (persistence.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindHistoryEntry"); err != nil {
		return persistence.HistoryEntry{}, err
	}
	for _, entry := range m.history {
		if entry.Identity == identity && entry.EventID == eventID {
			return entry, nil
		}
	}
	return persistence.HistoryEntry{}, persistence.ErrNotFound
}

func (m *memoryStore) CreateHistoryEntry(_ context.Context, entry persistence.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateHistoryEntry"); err != nil {
		return err
	}
	for _, existing := range m.history {
		if existing.Identity == entry.Identity && existing.EventID == entry.EventID {
			return persistence.ErrDuplicate
		}
	}
	m.history[entry.ID] = entry
	return nil
}

func (m *memoryStore) UpdateHistoryEntry(_ context.Context, entry persistence.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateHistoryEntry"); err != nil {
		return err
	}
	if _, ok := m.history[entry.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.history[entry.ID] = entry
	return nil
}

func (m *memoryStore) ListHistoryEntries(_ context.Context, identity string) ([]persistence.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListHistoryEntries"); err != nil {
		return nil, err
	}
	entries := make([]persistence.HistoryEntry, 0)
	for _, entry := range m.history {
		if entry.Identity == identity {
			entries = append(entries, entry)
		}
	}
	touched := func(e persistence.HistoryEntry) time.Time {
		if e.UpdatedAt != nil {
			return *e.UpdatedAt
		}
		return e.SubmittedAt
	}
	sort.Slice(entries, func(i, j int) bool { return touched(entries[i]).After(touched(entries[j])) })
	return entries, nil
}

// responseCount returns the number of stored responses of an event.
func (m *memoryStore) responseCount(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, response := range m.responses {
		if response.EventID == eventID {
			count++
		}
	}
	return count
}

func (m *memoryStore) slotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *memoryStore) historyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// recordingNotifier captures published notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	types  []string
	events []any
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, eventType string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, eventType)
	n.events = append(n.events, payload)
	return n.err
}
