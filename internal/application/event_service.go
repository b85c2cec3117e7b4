package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/availability-coordinator/internal/persistence"
)

// EventService lets hosts create and manage events.
type EventService struct {
	events      persistence.EventRepository
	responses   persistence.ResponseRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(repos Repositories, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(repos, nil, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a notifier and a specified logger.
func NewEventServiceWithLogger(repos Repositories, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      repos.Events,
		responses:   repos.Responses,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates input and stores a new event hosted by the principal.
func (s *EventService) CreateEvent(ctx context.Context, principal Principal, input EventInput) (event Event, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "host_id", principal.Identity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	normalized, vErr := normalizeEventInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.Event{
		ID:                       s.idGenerator(),
		Title:                    normalized.Title,
		Description:              normalized.Description,
		CandidateDates:           normalized.CandidateDates,
		HostID:                   principal.Identity,
		HostName:                 strings.TrimSpace(principal.DisplayName),
		DefaultInPersonAvailable: normalized.DefaultInPersonAvailable,
		CreatedAt:                s.now(),
	}
	if err = s.events.CreateEvent(ctx, record); err != nil {
		err = persistenceError("create event", err)
		return
	}

	event = eventFromPersistence(record)
	return
}

// GetEvent returns an event by ID. Any caller may read an event.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	record, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError("load event", err)
		if ErrorKind(err) != "not_found" {
			s.loggerWith(ctx, "GetEvent", "event_id", eventID).
				ErrorContext(ctx, "failed to load event", "error", err, "error_kind", ErrorKind(err))
		}
		return Event{}, err
	}
	return eventFromPersistence(record), nil
}

// UpdateEvent replaces the host supplied fields of an event.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, eventID string, input EventInput) (event Event, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "host_id", principal.Identity, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	var existing persistence.Event
	if existing, err = s.loadOwned(ctx, principal, eventID); err != nil {
		return
	}

	normalized, vErr := normalizeEventInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	updated := existing
	updated.Title = normalized.Title
	updated.Description = normalized.Description
	updated.CandidateDates = normalized.CandidateDates
	updated.DefaultInPersonAvailable = normalized.DefaultInPersonAvailable
	if name := strings.TrimSpace(principal.DisplayName); name != "" {
		updated.HostName = name
	}
	updated.UpdatedAt = &now

	if err = s.events.UpdateEvent(ctx, updated); err != nil {
		err = mapRepoError("update event", err)
		return
	}
	event = eventFromPersistence(updated)
	return
}

// DeleteEvent removes an event together with its responses. History entries
// of participants survive.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "host_id", principal.Identity, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	if _, err = s.loadOwned(ctx, principal, eventID); err != nil {
		return
	}
	if err = s.events.DeleteEvent(ctx, eventID); err != nil {
		err = mapRepoError("delete event", err)
		return
	}

	if s.notifier != nil {
		if pubErr := s.notifier.Publish(ctx, NotificationEventDeleted, map[string]string{"eventId": eventID}); pubErr != nil {
			logger.WarnContext(ctx, "notification not delivered", "type", NotificationEventDeleted, "error", pubErr)
		}
	}
	return nil
}

// ListHostEvents returns the principal's events, newest first, with response counts.
func (s *EventService) ListHostEvents(ctx context.Context, principal Principal) (summaries []EventSummary, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}
	if !principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	logger := s.loggerWith(ctx, "ListHostEvents", "host_id", principal.Identity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "events listed", "count", len(summaries))
	}()

	var records []persistence.Event
	records, err = s.events.ListEventsByHost(ctx, principal.Identity)
	if err != nil {
		err = persistenceError("list events", err)
		return
	}

	summaries = make([]EventSummary, 0, len(records))
	for _, record := range records {
		summary := EventSummary{Event: eventFromPersistence(record)}
		if s.responses != nil {
			summary.ResponseCount, err = s.responses.CountResponses(ctx, record.ID)
			if err != nil {
				err = persistenceError("count responses", err)
				return
			}
		}
		summaries = append(summaries, summary)
	}
	return
}

func (s *EventService) loadOwned(ctx context.Context, principal Principal, eventID string) (persistence.Event, error) {
	if !principal.Authenticated() {
		return persistence.Event{}, ErrUnauthenticated
	}
	record, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError("load event", err)
	}
	if record.HostID != principal.Identity {
		return persistence.Event{}, ErrUnauthorized
	}
	return record, nil
}

func normalizeEventInput(input EventInput) (EventInput, *ValidationError) {
	vErr := &ValidationError{}

	normalized := EventInput{
		Title:                    strings.TrimSpace(input.Title),
		Description:              strings.TrimSpace(input.Description),
		DefaultInPersonAvailable: input.DefaultInPersonAvailable,
	}
	if normalized.Title == "" {
		vErr.add("title", "title is required")
	}

	seen := make(map[string]struct{}, len(input.CandidateDates))
	for _, raw := range input.CandidateDates {
		date := strings.TrimSpace(raw)
		if date == "" {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		normalized.CandidateDates = append(normalized.CandidateDates, date)
	}
	if len(normalized.CandidateDates) == 0 {
		vErr.add("candidateDates", "at least one candidate date is required")
	}

	return normalized, vErr
}
