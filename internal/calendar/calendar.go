// Package calendar exports overlap windows as an iCalendar feed so hosts can
// drop the best candidate slots into their own calendar.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/availability-coordinator/internal/overlap"
)

const productID = "-//availability-coordinator//overlap feed//EN"

// Feed describes one event's overlap windows.
type Feed struct {
	EventID     string
	Title       string
	Description string
	Windows     []overlap.Window
	// Location interprets candidate dates and bucket minutes. Nil means UTC.
	Location *time.Location
	// Stamp is written as DTSTAMP on every entry.
	Stamp time.Time
}

// Build returns a calendar with one VEVENT per run of adjacent windows that
// share the same participants. Windows with an unparseable date are skipped.
func Build(feed Feed) *ical.Calendar {
	loc := feed.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if feed.Title != "" {
		cal.SetXWRCalName(feed.Title)
	}

	for _, run := range mergeRuns(feed.Windows) {
		day, err := time.ParseInLocation("2006-01-02", run.date, loc)
		if err != nil {
			continue
		}
		start := day.Add(time.Duration(run.minute) * time.Minute)
		end := start.Add(time.Duration(run.steps*overlap.StepMinutes) * time.Minute)

		entry := cal.AddEvent(fmt.Sprintf("%s-%s-%04d@availability-coordinator", feed.EventID, run.date, run.minute))
		entry.SetDtStampTime(feed.Stamp)
		entry.SetStartAt(start)
		entry.SetEndAt(end)
		entry.SetSummary(fmt.Sprintf("%s (%d)", feed.Title, len(run.participants)))

		description := strings.Join(run.participants, ", ")
		if feed.Description != "" {
			description = feed.Description + "\n" + description
		}
		entry.SetDescription(description)
	}
	return cal
}

// Render serializes the feed as text/calendar.
func Render(feed Feed) string {
	return Build(feed).Serialize()
}

type run struct {
	date         string
	minute       int
	steps        int
	participants []string
}

// mergeRuns joins consecutive buckets of a date whose participant lists match.
// windows must be ordered by date and minute.
func mergeRuns(windows []overlap.Window) []run {
	runs := make([]run, 0, len(windows))
	for _, w := range windows {
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if last.date == w.Date && last.minute+last.steps*overlap.StepMinutes == w.Minute && sameNames(last.participants, w.Participants) {
				last.steps++
				continue
			}
		}
		runs = append(runs, run{
			date:         w.Date,
			minute:       w.Minute,
			steps:        1,
			participants: append([]string(nil), w.Participants...),
		})
	}
	return runs
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
