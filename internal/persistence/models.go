package persistence

import "time"

// Event is a host's scheduling request with its candidate dates.
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

// Response is one participant's submission to an event. SlotSetID names the
// slot documents that currently belong to the response.
type Response struct {
	ID            string
	EventID       string
	Name          string
	Identity      *string
	Memo          string
	SaveToHistory bool
	SlotSetID     string
	SubmittedAt   time.Time
	UpdatedAt     *time.Time
}

// SlotRecord is a stored slot document for one date of a response. Payload is
// the raw document; use DecodeSlotDocument to read it.
type SlotRecord struct {
	ID         string
	EventID    string
	ResponseID string
	SlotSetID  string
	Payload    []byte
	CreatedAt  time.Time
}

// HistoryEntry mirrors a response of an authenticated participant so the
// participant can list their answers across events.
type HistoryEntry struct {
	ID               string
	Identity         string
	EventID          string
	EventTitle       string
	EventDescription string
	ParticipantName  string
	Memo             string
	Slots            map[string][]TimeSlot
	SubmittedAt      time.Time
	UpdatedAt        *time.Time
}
