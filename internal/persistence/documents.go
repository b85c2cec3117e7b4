package persistence

import (
	"bytes"
	"encoding/json"
	"strings"
)

// TimeSlot is the stored form of one availability range.
type TimeSlot struct {
	TimeRange         string `json:"timeRange"`
	InPersonAvailable bool   `json:"inPersonAvailable"`
}

// SlotDocument is the decoded payload of a SlotRecord. Dropped counts the
// entries of the stored list that could not be read.
type SlotDocument struct {
	Date      string     `json:"date"`
	TimeSlots []TimeSlot `json:"timeSlots"`
	Dropped   int        `json:"-"`
}

type rawSlotDocument struct {
	Date      *string         `json:"date"`
	TimeSlots json.RawMessage `json:"timeSlots"`
}

type rawTimeSlot struct {
	TimeRange         *string `json:"timeRange"`
	InPersonAvailable *bool   `json:"inPersonAvailable"`
}

// EncodeSlotDocument serialises a slot document for storage.
func EncodeSlotDocument(doc SlotDocument) ([]byte, error) {
	if doc.TimeSlots == nil {
		doc.TimeSlots = []TimeSlot{}
	}
	return json.Marshal(doc)
}

// DecodeSlotDocument parses a stored slot document. A missing date or a slot
// list that is not an array yields a *DecodeError; callers decide whether to
// skip or abort. Individual entries that are not objects or carry no string
// range are dropped and counted, the rest of the list is kept.
func DecodeSlotDocument(payload []byte) (SlotDocument, error) {
	var raw rawSlotDocument
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SlotDocument{}, &DecodeError{Document: "slot", Reason: "malformed json", Err: err}
	}
	if raw.Date == nil || strings.TrimSpace(*raw.Date) == "" {
		return SlotDocument{}, &DecodeError{Document: "slot", Field: "date", Reason: "missing"}
	}

	list := bytes.TrimSpace(raw.TimeSlots)
	if len(list) == 0 || list[0] != '[' {
		return SlotDocument{}, &DecodeError{Document: "slot", Field: "timeSlots", Reason: "not an array"}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return SlotDocument{}, &DecodeError{Document: "slot", Field: "timeSlots", Reason: "not an array", Err: err}
	}

	doc := SlotDocument{Date: *raw.Date, TimeSlots: make([]TimeSlot, 0, len(entries))}
	for _, rawEntry := range entries {
		var entry rawTimeSlot
		if err := json.Unmarshal(rawEntry, &entry); err != nil || entry.TimeRange == nil || *entry.TimeRange == "" {
			doc.Dropped++
			continue
		}
		slot := TimeSlot{TimeRange: *entry.TimeRange}
		if entry.InPersonAvailable != nil {
			slot.InPersonAvailable = *entry.InPersonAvailable
		}
		doc.TimeSlots = append(doc.TimeSlots, slot)
	}
	return doc, nil
}

// EncodeHistorySlots serialises the per-date slots of a history entry.
func EncodeHistorySlots(slots map[string][]TimeSlot) ([]byte, error) {
	if slots == nil {
		slots = map[string][]TimeSlot{}
	}
	return json.Marshal(slots)
}

// DecodeHistorySlots parses the per-date slots of a history entry.
func DecodeHistorySlots(payload []byte) (map[string][]TimeSlot, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return map[string][]TimeSlot{}, nil
	}
	var slots map[string][]TimeSlot
	if err := json.Unmarshal(payload, &slots); err != nil {
		return nil, &DecodeError{Document: "history", Field: "slots", Reason: "malformed json", Err: err}
	}
	if slots == nil {
		slots = map[string][]TimeSlot{}
	}
	return slots, nil
}

// EncodeStringList and DecodeStringList store ordered string lists such as
// candidate dates.
func EncodeStringList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func DecodeStringList(payload []byte) ([]string, error) {
	var values []string
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, &DecodeError{Document: "event", Field: "candidateDates", Reason: "malformed json", Err: err}
	}
	return values, nil
}
