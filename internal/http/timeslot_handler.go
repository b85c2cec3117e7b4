package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/availability-coordinator/internal/timeslot"
)

// TimeslotHandler drives the slot entry form. The client owns the form value
// and sends it back with every transition.
type TimeslotHandler struct {
	responder responder
}

func NewTimeslotHandler(logger *slog.Logger) *TimeslotHandler {
	return &TimeslotHandler{responder: newResponder(logger)}
}

// Form actions.
const (
	formActionOpen        = "open"
	formActionTypeStart   = "typeStart"
	formActionTypeEnd     = "typeEnd"
	formActionSetInPerson = "setInPerson"
	formActionCancel      = "cancel"
	formActionConfirm     = "confirm"
)

var errUnknownFormAction = errors.New("不明なフォーム操作です。")

func (h *TimeslotHandler) Form(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	form := req.Form.toForm()
	switch req.Action {
	case formActionOpen:
		form = form.Open(req.Date, req.DefaultInPerson)
	case formActionTypeStart:
		form = form.TypeStart(req.Value)
	case formActionTypeEnd:
		form = form.TypeEnd(req.Value)
	case formActionSetInPerson:
		form = form.SetInPerson(req.InPerson)
	case formActionCancel:
		form = form.Cancel()
	case formActionConfirm:
		next, confirmed, err := form.Confirm()
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, formResponse{
				Form:   toFormDTO(next),
				State:  next.State().String(),
				Errors: confirmErrors(err),
			})
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, formResponse{
			Form:  toFormDTO(next),
			State: next.State().String(),
			Slot: &confirmedSlotDTO{
				Date:              confirmed.Date,
				TimeRange:         confirmed.Slot.Range(),
				InPersonAvailable: confirmed.Slot.InPerson,
				Minutes:           confirmed.Slot.Minutes(),
			},
		})
		return
	default:
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errUnknownFormAction)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, formResponse{
		Form:   toFormDTO(form),
		State:  form.State().String(),
		Errors: partialErrors(form),
	})
}

func partialErrors(form timeslot.Form) map[string]string {
	errs := make(map[string]string)
	if err := timeslot.CheckPartial(form.Start); err != nil {
		errs["start"] = translateValidationMessage(err.Error())
	}
	if err := timeslot.CheckPartial(form.End); err != nil {
		errs["end"] = translateValidationMessage(err.Error())
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func confirmErrors(err error) map[string]string {
	var rangeErr *timeslot.RangeError
	if errors.As(err, &rangeErr) && rangeErr.Err != nil {
		return map[string]string{string(rangeErr.Endpoint): translateValidationMessage(rangeErr.Err.Error())}
	}
	return map[string]string{"form": translateValidationMessage(err.Error())}
}

type formDTO struct {
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
	InPerson bool   `json:"inPerson"`
}

func (f formDTO) toForm() timeslot.Form {
	return timeslot.Form{Date: f.Date, Start: f.Start, End: f.End, InPerson: f.InPerson}
}

func toFormDTO(f timeslot.Form) formDTO {
	return formDTO{Date: f.Date, Start: f.Start, End: f.End, InPerson: f.InPerson}
}

type formRequest struct {
	Form            formDTO `json:"form"`
	Action          string  `json:"action"`
	Date            string  `json:"date"`
	Value           string  `json:"value"`
	InPerson        bool    `json:"inPerson"`
	DefaultInPerson bool    `json:"defaultInPerson"`
}

type confirmedSlotDTO struct {
	Date              string `json:"date"`
	TimeRange         string `json:"timeRange"`
	InPersonAvailable bool   `json:"inPersonAvailable"`
	Minutes           int    `json:"minutes"`
}

type formResponse struct {
	Form   formDTO           `json:"form"`
	State  string            `json:"state"`
	Slot   *confirmedSlotDTO `json:"slot,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}
