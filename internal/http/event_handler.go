package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/sharelink"
)

type eventService interface {
	CreateEvent(ctx context.Context, principal application.Principal, input application.EventInput) (application.Event, error)
	GetEvent(ctx context.Context, eventID string) (application.Event, error)
	UpdateEvent(ctx context.Context, principal application.Principal, eventID string, input application.EventInput) (application.Event, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	ListHostEvents(ctx context.Context, principal application.Principal) ([]application.EventSummary, error)
}

// EventHandler serves host event management and share links.
type EventHandler struct {
	service   eventService
	baseURL   string
	responder responder
	logger    *slog.Logger
}

// NewEventHandler constructs a handler. baseURL is the public address share
// links point at.
func NewEventHandler(service eventService, baseURL string, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, baseURL: baseURL, responder: newResponder(logger), logger: loggerOrDefault(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.CreateEvent(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	requestLogger(r.Context(), h.logger, "EventHandler", "Create", "event_id", event.ID).
		InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{
		Event:    toEventDTO(event),
		ShareURL: sharelink.ShareURL(h.baseURL, event.ID),
	})
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	summaries, err := h.service.ListHostEvents(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := listEventsResponse{Events: make([]eventSummaryDTO, 0, len(summaries))}
	for _, summary := range summaries {
		payload.Events = append(payload.Events, eventSummaryDTO{
			eventDTO:      toEventDTO(summary.Event),
			ResponseCount: summary.ResponseCount,
			ShareURL:      sharelink.ShareURL(h.baseURL, summary.Event.ID),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.UpdateEvent(r.Context(), principal, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Share returns the participant link of an existing event.
func (h *EventHandler) Share(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	if _, err := h.service.GetEvent(r.Context(), eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shareResponse{
		EventID:  eventID,
		ShareURL: sharelink.ShareURL(h.baseURL, eventID),
	})
}

// Resolve extracts an event identifier from a pasted link or plain text.
func (h *EventHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resolveResponse{EventID: sharelink.ExtractEventID(input)})
}

func eventIDFromRequest(r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["eventID"])
	return id, id != ""
}

type eventRequest struct {
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	CandidateDates           []string `json:"candidateDates"`
	DefaultInPersonAvailable bool     `json:"defaultInPersonAvailable"`
}

func (r eventRequest) toInput() application.EventInput {
	return application.EventInput{
		Title:                    r.Title,
		Description:              r.Description,
		CandidateDates:           append([]string(nil), r.CandidateDates...),
		DefaultInPersonAvailable: r.DefaultInPersonAvailable,
	}
}

type eventDTO struct {
	ID                       string   `json:"id"`
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	CandidateDates           []string `json:"candidateDates"`
	HostID                   string   `json:"hostId"`
	HostName                 string   `json:"hostName,omitempty"`
	DefaultInPersonAvailable bool     `json:"defaultInPersonAvailable"`
	CreatedAt                string   `json:"createdAt"`
	UpdatedAt                string   `json:"updatedAt,omitempty"`
}

type eventSummaryDTO struct {
	eventDTO
	ResponseCount int    `json:"responseCount"`
	ShareURL      string `json:"shareUrl"`
}

type eventResponse struct {
	Event    eventDTO `json:"event"`
	ShareURL string   `json:"shareUrl"`
}

type listEventsResponse struct {
	Events []eventSummaryDTO `json:"events"`
}

type shareResponse struct {
	EventID  string `json:"eventId"`
	ShareURL string `json:"shareUrl"`
}

type resolveResponse struct {
	EventID string `json:"eventId"`
}

func toEventDTO(event application.Event) eventDTO {
	dates := event.CandidateDates
	if dates == nil {
		dates = []string{}
	}
	return eventDTO{
		ID:                       event.ID,
		Title:                    event.Title,
		Description:              event.Description,
		CandidateDates:           dates,
		HostID:                   event.HostID,
		HostName:                 event.HostName,
		DefaultInPersonAvailable: event.DefaultInPersonAvailable,
		CreatedAt:                formatTime(event.CreatedAt),
		UpdatedAt:                formatTimePtr(event.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
