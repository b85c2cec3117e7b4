package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

// ResponseCoordinator creates or replaces participant responses and keeps the
// participant's history in step with them.
//
// The store offers no cross-call transaction. Replacing a response writes the
// new slot documents under a fresh slot set, repoints the response at that set
// with a single row write, and only then removes older sets. Two concurrent
// updates from one identity still race and the last writer wins; two
// concurrent creates are resolved by the store's uniqueness rule.
type ResponseCoordinator struct {
	events      persistence.EventRepository
	responses   persistence.ResponseRepository
	slots       persistence.SlotRepository
	history     persistence.HistoryRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResponseCoordinator constructs a coordinator with the provided dependencies.
func NewResponseCoordinator(repos Repositories, idGenerator func() string, now func() time.Time) *ResponseCoordinator {
	return NewResponseCoordinatorWithLogger(repos, nil, idGenerator, now, nil)
}

// NewResponseCoordinatorWithLogger constructs a coordinator with a notifier and a specified logger.
func NewResponseCoordinatorWithLogger(repos Repositories, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResponseCoordinator {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCoordinator{
		events:      repos.Events,
		responses:   repos.Responses,
		slots:       repos.Slots,
		history:     repos.History,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (c *ResponseCoordinator) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, c.logger, "ResponseCoordinator", operation, attrs...)
}

func (c *ResponseCoordinator) configured() error {
	if c == nil {
		return fmt.Errorf("ResponseCoordinator is nil")
	}
	if c.events == nil || c.responses == nil || c.slots == nil || c.history == nil {
		return fmt.Errorf("response repositories not configured")
	}
	return nil
}

// Submit records a participant's availability for an event. An authenticated
// participant who already answered has their response replaced; anonymous
// submissions always create a new response.
func (c *ResponseCoordinator) Submit(ctx context.Context, params SubmitParams) (outcome SubmissionOutcome, err error) {
	if err = c.configured(); err != nil {
		return
	}

	identity := strings.TrimSpace(params.Principal.Identity)
	logger := c.loggerWith(ctx, "Submit",
		"event_id", params.EventID,
		"authenticated", identity != "",
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit response", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("response_id", outcome.ResponseID, "kind", string(outcome.Kind)).InfoContext(ctx, "response submitted")
	}()

	name := strings.TrimSpace(params.Name)
	if name == "" {
		err = ErrMissingName
		return
	}

	vErr := validateSlotRanges(params.SlotsByDate)

	var record persistence.Event
	record, err = c.events.GetEvent(ctx, params.EventID)
	if err != nil {
		err = mapRepoError("load event", err)
		return
	}
	event := eventFromPersistence(record)

	vErr.merge(validateSlotDates(params.SlotsByDate, event.CandidateDates))
	if vErr.HasErrors() {
		err = vErr
		return
	}
	slots := canonicalSlots(params.SlotsByDate, event.CandidateDates)
	memo := strings.TrimSpace(params.Memo)
	// Signed-in answers always appear in the participant's history.
	saveToHistory := identity != "" || params.SaveToHistory
	now := c.now()

	var existing *persistence.Response
	if identity != "" {
		existing, err = c.findByIdentity(ctx, event.ID, identity)
		if err != nil {
			return
		}
	}

	responseID := c.idGenerator()
	if existing != nil {
		responseID = existing.ID
	}

	setID := c.idGenerator()
	if err = c.writeSlotSet(ctx, event, responseID, setID, slots, now); err != nil {
		return
	}

	if existing == nil {
		created := persistence.Response{
			ID:            responseID,
			EventID:       event.ID,
			Name:          name,
			Identity:      identityPtr(identity),
			Memo:          memo,
			SaveToHistory: saveToHistory,
			SlotSetID:     setID,
			SubmittedAt:   now,
		}
		createErr := c.responses.CreateResponse(ctx, created)
		switch {
		case createErr == nil:
			outcome = SubmissionOutcome{ResponseID: responseID, Kind: SubmissionCreated}
		case errors.Is(createErr, persistence.ErrDuplicate) && identity != "":
			// Another submission for this identity won the create. Continue as
			// an update of the winner; the set written above is now orphaned.
			logger.WarnContext(ctx, "concurrent create detected, retrying as update", "lost_response_id", responseID)
			c.collectSlots(ctx, logger, event.ID, responseID, "")

			existing, err = c.findByIdentity(ctx, event.ID, identity)
			if err != nil {
				return
			}
			if existing == nil {
				err = persistenceError("create response", createErr)
				return
			}
			responseID = existing.ID
			setID = c.idGenerator()
			if err = c.writeSlotSet(ctx, event, responseID, setID, slots, now); err != nil {
				return
			}
		default:
			err = persistenceError("create response", createErr)
			return
		}
	}

	if existing != nil {
		updated := *existing
		updated.Name = name
		updated.Memo = memo
		updated.SaveToHistory = saveToHistory
		updated.SlotSetID = setID
		updated.UpdatedAt = &now
		if updateErr := c.responses.UpdateResponse(ctx, updated); updateErr != nil {
			err = persistenceError("update response", updateErr)
			return
		}
		outcome = SubmissionOutcome{ResponseID: responseID, Kind: SubmissionUpdated}
		c.collectSlots(ctx, logger, event.ID, responseID, setID)
	}

	if identity != "" {
		outcome.HistoryID, err = c.upsertHistory(ctx, event, identity, name, memo, slots, now)
		if err != nil {
			return
		}
	}

	c.notify(ctx, logger, NotificationResponseSubmitted, ResponseNotification{
		EventID:    event.ID,
		ResponseID: outcome.ResponseID,
		Name:       name,
		Kind:       outcome.Kind,
	})
	return
}

// LoadExisting returns the response an authenticated participant previously
// submitted for the event, or ErrNotFound when there is none.
func (c *ResponseCoordinator) LoadExisting(ctx context.Context, eventID string, principal Principal) (existing ExistingResponse, err error) {
	if err = c.configured(); err != nil {
		return
	}
	if !principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	logger := c.loggerWith(ctx, "LoadExisting", "event_id", eventID)

	var record persistence.Event
	record, err = c.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError("load event", err)
		return
	}

	var found *persistence.Response
	found, err = c.findByIdentity(ctx, eventID, strings.TrimSpace(principal.Identity))
	if err != nil {
		return
	}
	if found == nil {
		err = ErrNotFound
		return
	}

	var slots SlotsByDate
	slots, _, err = readSlotSet(ctx, c.slots, logger, *found)
	if err != nil {
		return
	}
	for _, date := range record.CandidateDates {
		if _, ok := slots[date]; !ok {
			slots[date] = []TimeSlot{}
		}
	}

	existing = ExistingResponse{
		ResponseID:    found.ID,
		Name:          found.Name,
		Memo:          found.Memo,
		SaveToHistory: found.SaveToHistory,
		Slots:         slots,
		SubmittedAt:   found.SubmittedAt,
		UpdatedAt:     copyTimePtr(found.UpdatedAt),
	}
	return
}

// DeleteResponse removes a response from an event. Only the event's host may
// delete responses. The participant's history entry is kept.
func (c *ResponseCoordinator) DeleteResponse(ctx context.Context, principal Principal, eventID, responseID string) (err error) {
	if err = c.configured(); err != nil {
		return
	}
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}

	logger := c.loggerWith(ctx, "DeleteResponse",
		"event_id", eventID,
		"response_id", responseID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete response", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "response deleted")
	}()

	var event persistence.Event
	event, err = c.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError("load event", err)
		return
	}
	if event.HostID != principal.Identity {
		err = ErrUnauthorized
		return
	}

	if err = c.responses.DeleteResponse(ctx, eventID, responseID); err != nil {
		err = mapRepoError("delete response", err)
		return
	}

	c.notify(ctx, logger, NotificationResponseDeleted, ResponseNotification{EventID: eventID, ResponseID: responseID})
	return nil
}

// ListHistory returns the participant's answers across events, most recently
// touched first. Entries whose event is gone keep their cached title and are
// flagged EventDeleted.
func (c *ResponseCoordinator) ListHistory(ctx context.Context, principal Principal) (items []HistoryItem, err error) {
	if err = c.configured(); err != nil {
		return
	}
	if !principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	logger := c.loggerWith(ctx, "ListHistory")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list history", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "history listed", "count", len(items))
	}()

	var entries []persistence.HistoryEntry
	entries, err = c.history.ListHistoryEntries(ctx, strings.TrimSpace(principal.Identity))
	if err != nil {
		err = persistenceError("list history", err)
		return
	}

	items = make([]HistoryItem, 0, len(entries))
	for _, entry := range entries {
		item := HistoryItem{
			ID:               entry.ID,
			EventID:          entry.EventID,
			EventTitle:       entry.EventTitle,
			EventDescription: entry.EventDescription,
			ParticipantName:  entry.ParticipantName,
			Memo:             entry.Memo,
			Slots:            historySlotsFromPersistence(entry.Slots),
			SubmittedAt:      entry.SubmittedAt,
			UpdatedAt:        copyTimePtr(entry.UpdatedAt),
		}

		event, getErr := c.events.GetEvent(ctx, entry.EventID)
		switch {
		case getErr == nil:
			item.EventTitle = event.Title
			item.EventDescription = event.Description
		case errors.Is(getErr, persistence.ErrNotFound):
			item.EventDeleted = true
		default:
			err = persistenceError("load event", getErr)
			return
		}
		items = append(items, item)
	}
	return
}

func (c *ResponseCoordinator) findByIdentity(ctx context.Context, eventID, identity string) (*persistence.Response, error) {
	found, err := c.responses.FindResponseByIdentity(ctx, eventID, identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("find response", err)
	}
	return &found, nil
}

// writeSlotSet stores one document per date under setID. Documents of a set
// that never gets referenced are removed by the sweeper.
func (c *ResponseCoordinator) writeSlotSet(ctx context.Context, event Event, responseID, setID string, slots orderedSlots, now time.Time) error {
	for _, day := range slots {
		payload, err := persistence.EncodeSlotDocument(persistence.SlotDocument{
			Date:      day.date,
			TimeSlots: slotsToPersistence(day.slots),
		})
		if err != nil {
			return persistenceError("encode slots", err)
		}
		record := persistence.SlotRecord{
			ID:         c.idGenerator(),
			EventID:    event.ID,
			ResponseID: responseID,
			SlotSetID:  setID,
			Payload:    payload,
			CreatedAt:  now,
		}
		if err := c.slots.AddSlotRecord(ctx, record); err != nil {
			return persistenceError("write slots", err)
		}
	}
	return nil
}

// collectSlots removes slot sets other than keepSetID. The submission is
// already committed, so a failure is only logged.
func (c *ResponseCoordinator) collectSlots(ctx context.Context, logger *slog.Logger, eventID, responseID, keepSetID string) {
	if err := c.slots.DeleteStaleSlotRecords(ctx, eventID, responseID, keepSetID); err != nil {
		logger.WarnContext(ctx, "slot garbage collection deferred",
			"response_id", responseID,
			"error", err,
		)
	}
}

func (c *ResponseCoordinator) upsertHistory(ctx context.Context, event Event, identity, name, memo string, slots orderedSlots, now time.Time) (string, error) {
	snapshot := slots.persistence()

	entry, err := c.history.FindHistoryEntry(ctx, identity, event.ID)
	if errors.Is(err, persistence.ErrNotFound) {
		entry = persistence.HistoryEntry{
			ID:               c.idGenerator(),
			Identity:         identity,
			EventID:          event.ID,
			EventTitle:       event.Title,
			EventDescription: event.Description,
			ParticipantName:  name,
			Memo:             memo,
			Slots:            snapshot,
			SubmittedAt:      now,
		}
		err = c.history.CreateHistoryEntry(ctx, entry)
		if err == nil {
			return entry.ID, nil
		}
		if !errors.Is(err, persistence.ErrDuplicate) {
			return "", persistenceError("create history", err)
		}
		entry, err = c.history.FindHistoryEntry(ctx, identity, event.ID)
	}
	if err != nil {
		return "", persistenceError("find history", err)
	}

	entry.EventTitle = event.Title
	entry.EventDescription = event.Description
	entry.ParticipantName = name
	entry.Memo = memo
	entry.Slots = snapshot
	entry.UpdatedAt = &now
	if err := c.history.UpdateHistoryEntry(ctx, entry); err != nil {
		return "", persistenceError("update history", err)
	}
	return entry.ID, nil
}

func (c *ResponseCoordinator) notify(ctx context.Context, logger *slog.Logger, eventType string, payload any) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, eventType, payload); err != nil {
		logger.WarnContext(ctx, "notification not delivered", "type", eventType, "error", err)
	}
}
