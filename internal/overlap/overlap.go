package overlap

import (
	"sort"

	"github.com/example/availability-coordinator/internal/timeslot"
)

// StepMinutes is the bucket granularity. A slot shorter than one step
// contributes no bucket.
const StepMinutes = 30

// MinParticipants is the smallest bucket size reported as an overlap.
const MinParticipants = 2

// DateRanges lists the canonical "HHMM-HHMM" ranges one participant gave for a date.
type DateRanges struct {
	Date   string
	Ranges []string
}

// Submission is one participant's availability as read from the store.
type Submission struct {
	Name  string
	Dates []DateRanges
}

// Window is a 30 minute bucket on a date where two or more participants are available.
type Window struct {
	Date         string
	Label        string
	Minute       int
	Participants []string
	Count        int
}

type bucketKey struct {
	date   string
	minute int
}

// ComputeOverlaps buckets every submitted range into 30 minute steps and
// returns the buckets shared by at least two participants, ordered by date and
// then time of day.
//
// Names are not deduplicated: the same name submitted twice counts twice.
// Items with an empty date or an unparseable range are skipped individually.
func ComputeOverlaps(submissions []Submission) []Window {
	buckets := make(map[bucketKey][]string)

	for _, submission := range submissions {
		for _, day := range submission.Dates {
			if day.Date == "" {
				continue
			}
			for _, text := range day.Ranges {
				start, end, err := timeslot.ParseCanonical(text)
				if err != nil || end-start < StepMinutes {
					continue
				}
				for minute := start; minute < end; minute += StepMinutes {
					key := bucketKey{date: day.Date, minute: minute}
					buckets[key] = append(buckets[key], submission.Name)
				}
			}
		}
	}

	windows := make([]Window, 0, len(buckets))
	for key, names := range buckets {
		if len(names) < MinParticipants {
			continue
		}
		windows = append(windows, Window{
			Date:         key.date,
			Label:        timeslot.Label(key.minute),
			Minute:       key.minute,
			Participants: names,
			Count:        len(names),
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Date != windows[j].Date {
			return windows[i].Date < windows[j].Date
		}
		return windows[i].Minute < windows[j].Minute
	})

	return windows
}

// Best returns the windows with the highest count, keeping the date/time order.
func Best(windows []Window) []Window {
	top := 0
	for _, w := range windows {
		if w.Count > top {
			top = w.Count
		}
	}
	if top == 0 {
		return nil
	}
	best := make([]Window, 0)
	for _, w := range windows {
		if w.Count == top {
			best = append(best, w)
		}
	}
	return best
}
