package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/availability-coordinator/internal/application"
)

type responseService interface {
	Submit(ctx context.Context, params application.SubmitParams) (application.SubmissionOutcome, error)
	LoadExisting(ctx context.Context, eventID string, principal application.Principal) (application.ExistingResponse, error)
	DeleteResponse(ctx context.Context, principal application.Principal, eventID, responseID string) error
	ListHistory(ctx context.Context, principal application.Principal) ([]application.HistoryItem, error)
}

// ResponseHandler serves participant submissions and history.
type ResponseHandler struct {
	service   responseService
	responder responder
	logger    *slog.Logger
}

func NewResponseHandler(service responseService, logger *slog.Logger) *ResponseHandler {
	return &ResponseHandler{service: service, responder: newResponder(logger), logger: loggerOrDefault(logger)}
}

func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	outcome, err := h.service.Submit(r.Context(), application.SubmitParams{
		EventID:       eventID,
		Principal:     principal,
		Name:          req.Name,
		Memo:          req.Memo,
		SlotsByDate:   fromSlotDTOs(req.Slots),
		SaveToHistory: req.SaveToHistory,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	requestLogger(r.Context(), h.logger, "ResponseHandler", "Submit",
		"event_id", eventID,
		"response_id", outcome.ResponseID,
	).DebugContext(r.Context(), "submission accepted", "kind", string(outcome.Kind))

	status := http.StatusOK
	if outcome.Kind == application.SubmissionCreated {
		status = http.StatusCreated
	}
	h.responder.writeJSON(r.Context(), w, status, submitResponse{
		ResponseID: outcome.ResponseID,
		Kind:       string(outcome.Kind),
		HistoryID:  outcome.HistoryID,
	})
}

func (h *ResponseHandler) Mine(w http.ResponseWriter, r *http.Request) {
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
	existing, err := h.service.LoadExisting(r.Context(), eventID, principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, existingResponseDTO{
		ResponseID:    existing.ResponseID,
		Name:          existing.Name,
		Memo:          existing.Memo,
		SaveToHistory: existing.SaveToHistory,
		Slots:         toSlotDTOs(existing.Slots),
		SubmittedAt:   formatTime(existing.SubmittedAt),
		UpdatedAt:     formatTimePtr(existing.UpdatedAt),
	})
}

func (h *ResponseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	responseID := strings.TrimSpace(mux.Vars(r)["responseID"])
	if responseID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResponse)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteResponse(r.Context(), principal, eventID, responseID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ResponseHandler) History(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListHistory(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := historyResponse{Items: make([]historyItemDTO, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, historyItemDTO{
			ID:               item.ID,
			EventID:          item.EventID,
			EventTitle:       item.EventTitle,
			EventDescription: item.EventDescription,
			EventDeleted:     item.EventDeleted,
			ParticipantName:  item.ParticipantName,
			Memo:             item.Memo,
			Slots:            toSlotDTOs(item.Slots),
			SubmittedAt:      formatTime(item.SubmittedAt),
			UpdatedAt:        formatTimePtr(item.UpdatedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

type slotDTO struct {
	TimeRange         string `json:"timeRange"`
	InPersonAvailable bool   `json:"inPersonAvailable"`
}

type submitRequest struct {
	Name          string               `json:"name"`
	Memo          string               `json:"memo"`
	SaveToHistory bool                 `json:"saveToHistory"`
	Slots         map[string][]slotDTO `json:"slots"`
}

type submitResponse struct {
	ResponseID string `json:"responseId"`
	Kind       string `json:"kind"`
	HistoryID  string `json:"historyId,omitempty"`
}

type existingResponseDTO struct {
	ResponseID    string               `json:"responseId"`
	Name          string               `json:"name"`
	Memo          string               `json:"memo"`
	SaveToHistory bool                 `json:"saveToHistory"`
	Slots         map[string][]slotDTO `json:"slots"`
	SubmittedAt   string               `json:"submittedAt"`
	UpdatedAt     string               `json:"updatedAt,omitempty"`
}

type historyItemDTO struct {
	ID               string               `json:"id"`
	EventID          string               `json:"eventId"`
	EventTitle       string               `json:"eventTitle"`
	EventDescription string               `json:"eventDescription,omitempty"`
	EventDeleted     bool                 `json:"eventDeleted"`
	ParticipantName  string               `json:"participantName"`
	Memo             string               `json:"memo,omitempty"`
	Slots            map[string][]slotDTO `json:"slots"`
	SubmittedAt      string               `json:"submittedAt"`
	UpdatedAt        string               `json:"updatedAt,omitempty"`
}

type historyResponse struct {
	Items []historyItemDTO `json:"items"`
}

func fromSlotDTOs(slots map[string][]slotDTO) application.SlotsByDate {
	out := make(application.SlotsByDate, len(slots))
	for date, list := range slots {
		converted := make([]application.TimeSlot, 0, len(list))
		for _, slot := range list {
			converted = append(converted, application.TimeSlot{TimeRange: slot.TimeRange, InPersonAvailable: slot.InPersonAvailable})
		}
		out[date] = converted
	}
	return out
}

func toSlotDTOs(slots application.SlotsByDate) map[string][]slotDTO {
	out := make(map[string][]slotDTO, len(slots))
	for date, list := range slots {
		converted := make([]slotDTO, 0, len(list))
		for _, slot := range list {
			converted = append(converted, slotDTO{TimeRange: slot.TimeRange, InPersonAvailable: slot.InPersonAvailable})
		}
		sort.SliceStable(converted, func(i, j int) bool { return converted[i].TimeRange < converted[j].TimeRange })
		out[date] = converted
	}
	return out
}
