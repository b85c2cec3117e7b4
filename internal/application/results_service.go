package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/availability-coordinator/internal/overlap"
	"github.com/example/availability-coordinator/internal/persistence"
)

// ResultsService reads every response of an event and computes the overlap view.
type ResultsService struct {
	events    persistence.EventRepository
	responses persistence.ResponseRepository
	slots     persistence.SlotRepository
	logger    *slog.Logger
}

// NewResultsService constructs a results service.
func NewResultsService(repos Repositories) *ResultsService {
	return NewResultsServiceWithLogger(repos, nil)
}

// NewResultsServiceWithLogger constructs a results service with a specified logger.
func NewResultsServiceWithLogger(repos Repositories, logger *slog.Logger) *ResultsService {
	return &ResultsService{
		events:    repos.Events,
		responses: repos.Responses,
		slots:     repos.Slots,
		logger:    defaultLogger(logger),
	}
}

// Results returns the event, its responses newest first and the overlap
// windows. Slot documents that cannot be decoded are skipped and counted in
// SkippedDocuments. A store failure aborts with a PersistenceError.
func (s *ResultsService) Results(ctx context.Context, eventID string) (results Results, err error) {
	if s == nil || s.events == nil || s.responses == nil || s.slots == nil {
		err = fmt.Errorf("results repositories not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "ResultsService", "Results", "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute results", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "results computed",
			"responses", len(results.Responses),
			"windows", len(results.Windows),
			"skipped_documents", results.SkippedDocuments,
		)
	}()

	var record persistence.Event
	record, err = s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError("load event", err)
		return
	}
	results.Event = eventFromPersistence(record)

	var responses []persistence.Response
	responses, err = s.responses.ListResponses(ctx, eventID)
	if err != nil {
		err = persistenceError("list responses", err)
		return
	}

	results.Responses = make([]Response, 0, len(responses))
	submissions := make([]overlap.Submission, 0, len(responses))
	for _, response := range responses {
		slots, skipped, readErr := readSlotSet(ctx, s.slots, logger, response)
		if readErr != nil {
			err = readErr
			return
		}
		results.SkippedDocuments += skipped

		results.Responses = append(results.Responses, Response{
			ID:            response.ID,
			EventID:       response.EventID,
			Name:          response.Name,
			Identity:      derefString(response.Identity),
			Memo:          response.Memo,
			SaveToHistory: response.SaveToHistory,
			Slots:         slots,
			SubmittedAt:   response.SubmittedAt,
			UpdatedAt:     copyTimePtr(response.UpdatedAt),
		})
		submissions = append(submissions, toSubmission(response.Name, slots))
	}

	results.Windows = overlap.ComputeOverlaps(submissions)
	results.Best = overlap.Best(results.Windows)
	return
}

func toSubmission(name string, slots SlotsByDate) overlap.Submission {
	dates := make([]string, 0, len(slots))
	for date := range slots {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	submission := overlap.Submission{Name: name, Dates: make([]overlap.DateRanges, 0, len(dates))}
	for _, date := range dates {
		ranges := make([]string, 0, len(slots[date]))
		for _, slot := range slots[date] {
			ranges = append(ranges, slot.TimeRange)
		}
		submission.Dates = append(submission.Dates, overlap.DateRanges{Date: date, Ranges: ranges})
	}
	return submission
}
