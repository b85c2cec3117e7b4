package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/calendar"
	"github.com/example/availability-coordinator/internal/overlap"
)

type resultsService interface {
	Results(ctx context.Context, eventID string) (application.Results, error)
}

// ResultsHandler serves the overlap view of an event.
type ResultsHandler struct {
	service   resultsService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewResultsHandler constructs a handler. location interprets candidate dates
// in the calendar feed; nil means UTC.
func NewResultsHandler(service resultsService, location *time.Location, now func() time.Time, logger *slog.Logger) *ResultsHandler {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ResultsHandler{service: service, location: location, now: now, responder: newResponder(logger), logger: loggerOrDefault(logger)}
}

func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, ok := h.load(w, r)
	if !ok {
		return
	}

	payload := resultsResponse{
		Event:            toEventDTO(results.Event),
		Responses:        make([]responseDTO, 0, len(results.Responses)),
		Windows:          toWindowDTOs(results.Windows),
		Best:             toWindowDTOs(results.Best),
		SkippedDocuments: results.SkippedDocuments,
	}
	for _, response := range results.Responses {
		payload.Responses = append(payload.Responses, responseDTO{
			ID:            response.ID,
			Name:          response.Name,
			Memo:          response.Memo,
			Authenticated: response.Identity != "",
			Slots:         toSlotDTOs(response.Slots),
			SubmittedAt:   formatTime(response.SubmittedAt),
			UpdatedAt:     formatTimePtr(response.UpdatedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Calendar renders the overlap windows as text/calendar.
func (h *ResultsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	results, ok := h.load(w, r)
	if !ok {
		return
	}

	body := calendar.Render(calendar.Feed{
		EventID:     results.Event.ID,
		Title:       results.Event.Title,
		Description: results.Event.Description,
		Windows:     results.Windows,
		Location:    h.location,
		Stamp:       h.now(),
	})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+results.Event.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		requestLogger(r.Context(), h.logger, "ResultsHandler", "Calendar").
			ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *ResultsHandler) load(w http.ResponseWriter, r *http.Request) (application.Results, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Results{}, false
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return application.Results{}, false
	}

	results, err := h.service.Results(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Results{}, false
	}
	return results, true
}

type responseDTO struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Memo          string               `json:"memo,omitempty"`
	Authenticated bool                 `json:"authenticated"`
	Slots         map[string][]slotDTO `json:"slots"`
	SubmittedAt   string               `json:"submittedAt"`
	UpdatedAt     string               `json:"updatedAt,omitempty"`
}

type windowDTO struct {
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Participants []string `json:"participants"`
	Count        int      `json:"count"`
}

type resultsResponse struct {
	Event            eventDTO      `json:"event"`
	Responses        []responseDTO `json:"responses"`
	Windows          []windowDTO   `json:"windows"`
	Best             []windowDTO   `json:"best"`
	SkippedDocuments int           `json:"skippedDocuments,omitempty"`
}

func toWindowDTOs(windows []overlap.Window) []windowDTO {
	out := make([]windowDTO, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowDTO{
			Date:         w.Date,
			Time:         w.Label,
			Participants: append([]string(nil), w.Participants...),
			Count:        w.Count,
		})
	}
	return out
}
