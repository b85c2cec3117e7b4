package testfixtures

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/persistence"
)

var (
	eventCounter      uint64
	submissionCounter uint64
)

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a deterministic event that can be written through a
// repository or passed to the event service.
type EventFixture struct {
	ID                       string
	Title                    string
	Description              string
	CandidateDates           []string
	HostID                   string
	HostName                 string
	DefaultInPersonAvailable bool
	CreatedAt                time.Time
}

// EventOption configures an event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns an event on 2024-06-01 and 2024-06-02 hosted by
// "host-1" unless overridden.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:             fmt.Sprintf("event-%03d", idx),
		Title:          fmt.Sprintf("Team dinner %03d", idx),
		CandidateDates: []string{"2024-06-01", "2024-06-02"},
		HostID:         "host-1",
		HostName:       "Host",
		CreatedAt:      ReferenceTime().Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) { f.Title = title }
}

func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) { f.Description = description }
}

func WithCandidateDates(dates ...string) EventOption {
	return func(f *EventFixture) { f.CandidateDates = append([]string(nil), dates...) }
}

// WithHost sets the owning identity and its display name.
func WithHost(identity, name string) EventOption {
	return func(f *EventFixture) {
		f.HostID = identity
		f.HostName = name
	}
}

func WithDefaultInPerson(available bool) EventOption {
	return func(f *EventFixture) { f.DefaultInPersonAvailable = available }
}

// Host returns the principal that owns the event.
func (f EventFixture) Host() application.Principal {
	return application.Principal{Identity: f.HostID, DisplayName: f.HostName}
}

// Input returns the fields a host submits to create the event.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Title:                    f.Title,
		Description:              f.Description,
		CandidateDates:           append([]string(nil), f.CandidateDates...),
		DefaultInPersonAvailable: f.DefaultInPersonAvailable,
	}
}

// Persistence returns the stored form of the event.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:                       f.ID,
		Title:                    f.Title,
		Description:              f.Description,
		CandidateDates:           append([]string(nil), f.CandidateDates...),
		HostID:                   f.HostID,
		HostName:                 f.HostName,
		DefaultInPersonAvailable: f.DefaultInPersonAvailable,
		CreatedAt:                f.CreatedAt,
	}
}

// -------------------------- Submission fixtures ---------------------------

// SubmissionFixture is a participant's answer to an event.
type SubmissionFixture struct {
	Principal     application.Principal
	Name          string
	Memo          string
	SaveToHistory bool
	Slots         application.SlotsByDate
}

// SubmissionOption configures a submission fixture.
type SubmissionOption func(*SubmissionFixture)

// NewSubmissionFixture returns an anonymous submission with no slots.
func NewSubmissionFixture(opts ...SubmissionOption) SubmissionFixture {
	idx := atomic.AddUint64(&submissionCounter, 1)
	fixture := SubmissionFixture{
		Name:  fmt.Sprintf("Participant %03d", idx),
		Slots: application.SlotsByDate{},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithParticipantName(name string) SubmissionOption {
	return func(f *SubmissionFixture) { f.Name = name }
}

// WithIdentity makes the submission authenticated. The display name is
// copied from the participant name when empty.
func WithIdentity(identity string) SubmissionOption {
	return func(f *SubmissionFixture) {
		f.Principal = application.Principal{Identity: identity, DisplayName: f.Name}
		f.SaveToHistory = true
	}
}

func WithMemo(memo string) SubmissionOption {
	return func(f *SubmissionFixture) { f.Memo = memo }
}

func WithSaveToHistory(save bool) SubmissionOption {
	return func(f *SubmissionFixture) { f.SaveToHistory = save }
}

// WithSlot appends one canonical range for date.
func WithSlot(date, timeRange string, inPerson bool) SubmissionOption {
	return func(f *SubmissionFixture) {
		if f.Slots == nil {
			f.Slots = application.SlotsByDate{}
		}
		f.Slots[date] = append(f.Slots[date], application.TimeSlot{TimeRange: timeRange, InPersonAvailable: inPerson})
	}
}

// Params returns the submit parameters for eventID.
func (f SubmissionFixture) Params(eventID string) application.SubmitParams {
	slots := make(application.SlotsByDate, len(f.Slots))
	for date, list := range f.Slots {
		slots[date] = append([]application.TimeSlot(nil), list...)
	}
	return application.SubmitParams{
		EventID:       eventID,
		Principal:     f.Principal,
		Name:          f.Name,
		Memo:          f.Memo,
		SlotsByDate:   slots,
		SaveToHistory: f.SaveToHistory,
	}
}

// Dates returns the dates the submission covers in ascending order.
func (f SubmissionFixture) Dates() []string {
	dates := make([]string, 0, len(f.Slots))
	for date := range f.Slots {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
