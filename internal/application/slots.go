package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/availability-coordinator/internal/persistence"
	"github.com/example/availability-coordinator/internal/timeslot"
)

type datedSlots struct {
	date  string
	slots []TimeSlot
}

// orderedSlots holds validated slots in candidate date order.
type orderedSlots []datedSlots

func (o orderedSlots) persistence() map[string][]persistence.TimeSlot {
	out := make(map[string][]persistence.TimeSlot, len(o))
	for _, day := range o {
		out[day.date] = slotsToPersistence(day.slots)
	}
	return out
}

// validateSlotRanges re-checks every submitted range in canonical form.
func validateSlotRanges(slots SlotsByDate) *ValidationError {
	vErr := &ValidationError{}
	for date, list := range slots {
		for i, slot := range list {
			if _, _, err := timeslot.ParseCanonical(slot.TimeRange); err != nil {
				vErr.add(fmt.Sprintf("slots.%s[%d]", date, i), slotErrorMessage(err))
			}
		}
	}
	return vErr
}

// validateSlotDates rejects slots for dates the event does not offer.
func validateSlotDates(slots SlotsByDate, candidates []string) *ValidationError {
	allowed := make(map[string]struct{}, len(candidates))
	for _, date := range candidates {
		allowed[date] = struct{}{}
	}

	vErr := &ValidationError{}
	for date, list := range slots {
		if len(list) == 0 {
			continue
		}
		if _, ok := allowed[date]; !ok {
			vErr.add("slots."+date, "date is not a candidate date of the event")
		}
	}
	return vErr
}

// canonicalSlots orders validated slots by candidate date and re-renders each
// range in canonical form. Dates without slots are dropped.
func canonicalSlots(slots SlotsByDate, candidates []string) orderedSlots {
	ordered := make(orderedSlots, 0, len(slots))
	for _, date := range candidates {
		list := slots[date]
		if len(list) == 0 {
			continue
		}
		day := datedSlots{date: date, slots: make([]TimeSlot, 0, len(list))}
		for _, slot := range list {
			start, end, err := timeslot.ParseCanonical(slot.TimeRange)
			if err != nil {
				continue
			}
			day.slots = append(day.slots, TimeSlot{
				TimeRange:         timeslot.FormatHHMM(start) + "-" + timeslot.FormatHHMM(end),
				InPersonAvailable: slot.InPersonAvailable,
			})
		}
		ordered = append(ordered, day)
	}
	return ordered
}

func slotErrorMessage(err error) string {
	var rangeErr *timeslot.RangeError
	if errors.As(err, &rangeErr) && rangeErr.Err != nil {
		return strings.TrimPrefix(rangeErr.Err.Error(), "timeslot: ")
	}
	return strings.TrimPrefix(err.Error(), "timeslot: ")
}

// readSlotSet loads and decodes the current slot set of a response. Documents
// that fail to decode and unreadable entries inside otherwise valid documents
// are logged and skipped; the number skipped is returned.
func readSlotSet(ctx context.Context, repo persistence.SlotRepository, logger *slog.Logger, response persistence.Response) (SlotsByDate, int, error) {
	records, err := repo.ListSlotRecords(ctx, response.EventID, response.ID, response.SlotSetID)
	if err != nil {
		return nil, 0, persistenceError("list slots", err)
	}

	slots := make(SlotsByDate, len(records))
	skipped := 0
	for _, record := range records {
		doc, err := persistence.DecodeSlotDocument(record.Payload)
		if err != nil {
			skipped++
			logger.WarnContext(ctx, "skipping unreadable slot document",
				"response_id", response.ID,
				"slot_id", record.ID,
				"error", err,
				"error_kind", ErrorKind(err),
			)
			continue
		}
		if doc.Dropped > 0 {
			skipped += doc.Dropped
			logger.WarnContext(ctx, "skipping unreadable slot entries",
				"response_id", response.ID,
				"slot_id", record.ID,
				"dropped", doc.Dropped,
				"error_kind", "decode",
			)
		}
		slots[doc.Date] = append(slots[doc.Date], slotsFromPersistence(doc.TimeSlots)...)
	}
	return slots, skipped, nil
}
