package application

import (
	"context"
	"strings"
	"time"

	"github.com/example/availability-coordinator/internal/overlap"
	"github.com/example/availability-coordinator/internal/persistence"
)

// Principal identifies the caller. An empty Identity means an anonymous
// participant.
type Principal struct {
	Identity    string
	DisplayName string
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.Identity) != ""
}

// Repositories groups the store ports used by the services.
type Repositories struct {
	Events    persistence.EventRepository
	Responses persistence.ResponseRepository
	Slots     persistence.SlotRepository
	History   persistence.HistoryRepository
}

// RepositoriesFrom exposes every port of a single store.
func RepositoriesFrom(store persistence.Store) Repositories {
	return Repositories{Events: store, Responses: store, Slots: store, History: store}
}

// Notifier publishes domain notifications. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Notification types published by the services.
const (
	NotificationResponseSubmitted = "response.submitted"
	NotificationResponseDeleted   = "response.deleted"
	NotificationEventDeleted      = "event.deleted"
)

// ResponseNotification is the payload of the response notifications.
type ResponseNotification struct {
	EventID    string         `json:"eventId"`
	ResponseID string         `json:"responseId"`
	Name       string         `json:"name,omitempty"`
	Kind       SubmissionKind `json:"kind,omitempty"`
}

// TimeSlot is one canonical "HHMM-HHMM" range with its in-person flag.
type TimeSlot struct {
	TimeRange         string
	InPersonAvailable bool
}

// SlotsByDate maps a candidate date to the ranges given for it.
type SlotsByDate map[string][]TimeSlot

// Event is a host's scheduling request.
type Event struct {
	ID                       string
	Title                    string
	Description              string
	CandidateDates           []string
	HostID                   string
	HostName                 string
	DefaultInPersonAvailable bool
	CreatedAt                time.Time
	UpdatedAt                *time.Time
}

// EventInput captures the host supplied event fields.
type EventInput struct {
	Title                    string
	Description              string
	CandidateDates           []string
	DefaultInPersonAvailable bool
}

// EventSummary is an event listed for its host together with its response count.
type EventSummary struct {
	Event         Event
	ResponseCount int
}

// Response is a participant submission with its decoded slots.
type Response struct {
	ID            string
	EventID       string
	Name          string
	Identity      string
	Memo          string
	SaveToHistory bool
	Slots         SlotsByDate
	SubmittedAt   time.Time
	UpdatedAt     *time.Time
}

// SubmissionKind tells callers whether a submission created or replaced a response.
type SubmissionKind string

const (
	SubmissionCreated SubmissionKind = "created"
	SubmissionUpdated SubmissionKind = "updated"
)

// SubmitParams wraps the data required to submit availability.
type SubmitParams struct {
	EventID       string
	Principal     Principal
	Name          string
	Memo          string
	SlotsByDate   SlotsByDate
	SaveToHistory bool
}

// SubmissionOutcome reports the result of a submission. HistoryID is empty for
// anonymous submissions.
type SubmissionOutcome struct {
	ResponseID string
	Kind       SubmissionKind
	HistoryID  string
}

// ExistingResponse is the prefill data for a returning participant. Slots has
// an entry for every candidate date.
type ExistingResponse struct {
	ResponseID    string
	Name          string
	Memo          string
	SaveToHistory bool
	Slots         SlotsByDate
	SubmittedAt   time.Time
	UpdatedAt     *time.Time
}

// HistoryItem is one entry of a participant's answer history.
type HistoryItem struct {
	ID               string
	EventID          string
	EventTitle       string
	EventDescription string
	EventDeleted     bool
	ParticipantName  string
	Memo             string
	Slots            SlotsByDate
	SubmittedAt      time.Time
	UpdatedAt        *time.Time
}

// Results is the aggregated view of an event.
type Results struct {
	Event            Event
	Responses        []Response
	Windows          []overlap.Window
	Best             []overlap.Window
	SkippedDocuments int
}

func eventFromPersistence(e persistence.Event) Event {
	return Event{
		ID:                       e.ID,
		Title:                    e.Title,
		Description:              e.Description,
		CandidateDates:           append([]string(nil), e.CandidateDates...),
		HostID:                   e.HostID,
		HostName:                 e.HostName,
		DefaultInPersonAvailable: e.DefaultInPersonAvailable,
		CreatedAt:                e.CreatedAt,
		UpdatedAt:                copyTimePtr(e.UpdatedAt),
	}
}

func slotsToPersistence(slots []TimeSlot) []persistence.TimeSlot {
	out := make([]persistence.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, persistence.TimeSlot{TimeRange: slot.TimeRange, InPersonAvailable: slot.InPersonAvailable})
	}
	return out
}

func slotsFromPersistence(slots []persistence.TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, TimeSlot{TimeRange: slot.TimeRange, InPersonAvailable: slot.InPersonAvailable})
	}
	return out
}

func historySlotsFromPersistence(slots map[string][]persistence.TimeSlot) SlotsByDate {
	out := make(SlotsByDate, len(slots))
	for date, list := range slots {
		out[date] = slotsFromPersistence(list)
	}
	return out
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	value := *t
	return &value
}

func identityPtr(identity string) *string {
	if identity == "" {
		return nil
	}
	value := identity
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
