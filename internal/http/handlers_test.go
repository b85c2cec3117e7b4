package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/overlap"
)

var host = application.Principal{Identity: "host-1", DisplayName: "Mika"}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestResponderServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
		wantText   string
	}{
		{name: "unauthenticated", err: application.ErrUnauthenticated, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_REQUIRED"},
		{name: "unauthorized", err: application.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "AUTH_FORBIDDEN"},
		{name: "not found", err: application.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "missing name", err: application.ErrMissingName, wantStatus: http.StatusUnprocessableEntity,
			wantField: "name", wantText: "名前を入力してください。"},
		{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"title": "title is required"}},
			wantStatus: http.StatusUnprocessableEntity, wantField: "title", wantText: "タイトルは必須です。"},
		{name: "wrapped slot validation", err: &application.ValidationError{FieldErrors: map[string]string{"slots.2024-06-01[0]": "timeslot: start must be before end"}},
			wantStatus: http.StatusUnprocessableEntity, wantField: "slots.2024-06-01[0]", wantText: "終了時刻は開始時刻より後である必要があります。"},
		{name: "store failure", err: &application.PersistenceError{Op: "load event", Err: errors.New("disk gone")},
			wantStatus: http.StatusServiceUnavailable, wantCode: "STORE_UNAVAILABLE"},
		{name: "anything else", err: errors.New("surprise"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			newResponder(discardLogger()).handleServiceError(context.Background(), rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			body := decode[errorResponse](t, rec)
			if body.ErrorCode != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, body.ErrorCode)
			}
			if body.Message == "" {
				t.Fatalf("expected a localized message")
			}
			if tc.wantField != "" && body.Errors[tc.wantField] != tc.wantText {
				t.Fatalf("expected %s=%q, got %v", tc.wantField, tc.wantText, body.Errors)
			}
		})
	}
}

func TestEventHandlers(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
	event := application.Event{
		ID:             "evt-1",
		Title:          "Team dinner",
		CandidateDates: []string{"2024-06-01"},
		HostID:         host.Identity,
		CreatedAt:      created,
	}

	t.Run("create returns the event and its share link", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{event: event}
		cfg := RouterConfig{Events: NewEventHandler(service, "https://coordinator.example.com/", discardLogger())}
		rec := serve(t, cfg, jsonRequest(http.MethodPost, "/events",
			`{"title":"Team dinner","candidateDates":["2024-06-01"],"defaultInPersonAvailable":true}`), &host)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[eventResponse](t, rec)
		if body.ShareURL != "https://coordinator.example.com/?eventId=evt-1" {
			t.Fatalf("unexpected share url %q", body.ShareURL)
		}
		if body.Event.CreatedAt != "2024-05-20T10:00:00Z" {
			t.Fatalf("unexpected createdAt %q", body.Event.CreatedAt)
		}
		if service.createPrincipal != host || !service.createInput.DefaultInPersonAvailable {
			t.Fatalf("service received %+v / %+v", service.createPrincipal, service.createInput)
		}
	})

	t.Run("malformed body is rejected before the service", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{event: event}
		cfg := RouterConfig{Events: NewEventHandler(service, "https://coordinator.example.com", discardLogger())}
		rec := serve(t, cfg, jsonRequest(http.MethodPost, "/events", `{"title":`), &host)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if service.createInput.Title != "" {
			t.Fatalf("service should not be called")
		}
	})

	t.Run("list includes response counts", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{summaries: []application.EventSummary{{Event: event, ResponseCount: 3}}}
		cfg := RouterConfig{Events: NewEventHandler(service, "https://coordinator.example.com", discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/events", nil), &host)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decode[listEventsResponse](t, rec)
		if len(body.Events) != 1 || body.Events[0].ResponseCount != 3 || body.Events[0].ID != "evt-1" {
			t.Fatalf("unexpected list %+v", body.Events)
		}
	})

	t.Run("share of a missing event is 404", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{err: application.ErrNotFound}
		cfg := RouterConfig{Events: NewEventHandler(service, "https://coordinator.example.com", discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/events/missing/share", nil), nil)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete answers without a body", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{}
		cfg := RouterConfig{Events: NewEventHandler(service, "https://coordinator.example.com", discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodDelete, "/events/evt-1", nil), &host)

		if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
			t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("resolve extracts identifiers from pasted links", func(t *testing.T) {
		t.Parallel()

		cfg := RouterConfig{Events: NewEventHandler(&stubEventService{}, "https://coordinator.example.com", discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/resolve?input=https%3A%2F%2Fx.example%2F%3FeventId%3Dabc123%26ref%3Dmail", nil), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decode[resolveResponse](t, rec); body.EventID != "abc123" {
			t.Fatalf("expected abc123, got %q", body.EventID)
		}

		rec = serve(t, cfg, httptest.NewRequest(http.MethodGet, "/resolve", nil), nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty input, got %d", rec.Code)
		}
	})
}

func TestResponseHandlers(t *testing.T) {
	t.Parallel()

	t.Run("first submission is 201 and carries slots through", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{outcome: application.SubmissionOutcome{ResponseID: "resp-1", Kind: application.SubmissionCreated}}
		cfg := RouterConfig{Responses: NewResponseHandler(service, discardLogger())}
		rec := serve(t, cfg, jsonRequest(http.MethodPost, "/events/evt-1/responses",
			`{"name":"Aiko","memo":"late","slots":{"2024-06-01":[{"timeRange":"0900-1000","inPersonAvailable":true}]}}`), nil)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[submitResponse](t, rec)
		if body.ResponseID != "resp-1" || body.Kind != "created" {
			t.Fatalf("unexpected body %+v", body)
		}
		got := service.params.SlotsByDate["2024-06-01"]
		if service.params.EventID != "evt-1" || len(got) != 1 || got[0].TimeRange != "0900-1000" || !got[0].InPersonAvailable {
			t.Fatalf("service received %+v", service.params)
		}
		if service.params.Principal.Authenticated() {
			t.Fatalf("expected an anonymous principal")
		}
	})

	t.Run("resubmission is 200 with the history entry", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{outcome: application.SubmissionOutcome{ResponseID: "resp-1", Kind: application.SubmissionUpdated, HistoryID: "hist-1"}}
		cfg := RouterConfig{Responses: NewResponseHandler(service, discardLogger())}
		participant := application.Principal{Identity: "aiko@example.com"}
		rec := serve(t, cfg, jsonRequest(http.MethodPost, "/events/evt-1/responses", `{"name":"Aiko","slots":{}}`), &participant)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decode[submitResponse](t, rec); body.HistoryID != "hist-1" || body.Kind != "updated" {
			t.Fatalf("unexpected body %+v", body)
		}
		if service.params.Principal != participant {
			t.Fatalf("expected principal to reach the service, got %+v", service.params.Principal)
		}
	})

	t.Run("missing name maps to 422", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{err: application.ErrMissingName}
		cfg := RouterConfig{Responses: NewResponseHandler(service, discardLogger())}
		rec := serve(t, cfg, jsonRequest(http.MethodPost, "/events/evt-1/responses", `{"name":" "}`), nil)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("delete passes the response id", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{}
		cfg := RouterConfig{Responses: NewResponseHandler(service, discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodDelete, "/events/evt-1/responses/resp-9", nil), &host)

		if rec.Code != http.StatusNoContent || service.deleted != "resp-9" {
			t.Fatalf("expected 204 deleting resp-9, got %d %q", rec.Code, service.deleted)
		}
	})

	t.Run("anonymous history is rejected", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{err: application.ErrUnauthenticated}
		cfg := RouterConfig{Responses: NewResponseHandler(service, discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/history", nil), nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("handler reads route variables directly", func(t *testing.T) {
		t.Parallel()

		service := &stubResponseService{existing: application.ExistingResponse{ResponseID: "resp-1", Name: "Aiko"}}
		handler := NewResponseHandler(service, discardLogger())
		req := withVars(httptest.NewRequest(http.MethodGet, "/ignored", nil), map[string]string{"eventID": "evt-1"})
		rec := httptest.NewRecorder()
		handler.Mine(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decode[existingResponseDTO](t, rec); body.ResponseID != "resp-1" {
			t.Fatalf("unexpected body %+v", body)
		}
	})
}

func TestResultsHandlers(t *testing.T) {
	t.Parallel()

	results := application.Results{
		Event: application.Event{ID: "evt-1", Title: "Team dinner", CandidateDates: []string{"2024-06-01"}},
		Responses: []application.Response{
			{ID: "r1", Name: "Aiko", Identity: "aiko@example.com", Slots: application.SlotsByDate{"2024-06-01": {{TimeRange: "0900-1000"}}}},
			{ID: "r2", Name: "Ben", Slots: application.SlotsByDate{"2024-06-01": {{TimeRange: "0900-0930"}}}},
		},
		Windows: []overlap.Window{{Date: "2024-06-01", Label: "9:00", Minute: 540, Participants: []string{"Aiko", "Ben"}, Count: 2}},
	}
	results.Best = results.Windows
	stamp := time.Date(2024, time.May, 21, 0, 0, 0, 0, time.UTC)

	t.Run("json view", func(t *testing.T) {
		t.Parallel()

		cfg := RouterConfig{Results: NewResultsHandler(&stubResultsService{results: results}, time.UTC, func() time.Time { return stamp }, discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/events/evt-1/results", nil), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decode[resultsResponse](t, rec)
		if len(body.Responses) != 2 || !body.Responses[0].Authenticated || body.Responses[1].Authenticated {
			t.Fatalf("unexpected responses %+v", body.Responses)
		}
		if len(body.Best) != 1 || body.Best[0].Time != "9:00" || body.Best[0].Count != 2 {
			t.Fatalf("unexpected best %+v", body.Best)
		}
	})

	t.Run("calendar feed", func(t *testing.T) {
		t.Parallel()

		cfg := RouterConfig{Results: NewResultsHandler(&stubResultsService{results: results}, time.UTC, func() time.Time { return stamp }, discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/events/evt-1/results.ics", nil), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Fatalf("unexpected content type %q", ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "BEGIN:VEVENT") {
			t.Fatalf("expected a calendar with one event, got %q", body)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		service := &stubResultsService{err: &application.PersistenceError{Op: "list responses", Err: errors.New("down")}}
		cfg := RouterConfig{Results: NewResultsHandler(service, nil, nil, discardLogger())}
		rec := serve(t, cfg, httptest.NewRequest(http.MethodGet, "/events/evt-1/results", nil), nil)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestTimeslotForm(t *testing.T) {
	t.Parallel()

	cfg := RouterConfig{Timeslots: NewTimeslotHandler(discardLogger())}
	post := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		return serve(t, cfg, jsonRequest(http.MethodPost, "/timeslots/form", body), nil)
	}

	t.Run("open starts entry with the default flag", func(t *testing.T) {
		t.Parallel()

		rec := post(t, `{"action":"open","date":"2024-06-01","defaultInPerson":true}`)
		body := decode[formResponse](t, rec)
		if rec.Code != http.StatusOK || body.State != "entering" || !body.Form.InPerson || body.Form.Date != "2024-06-01" {
			t.Fatalf("unexpected response %d %+v", rec.Code, body)
		}
	})

	t.Run("typing clamps and reports partial errors", func(t *testing.T) {
		t.Parallel()

		rec := post(t, `{"form":{"date":"2024-06-01"},"action":"typeStart","value":"０９００"}`)
		body := decode[formResponse](t, rec)
		if body.Form.Start != "0900" || body.Errors != nil {
			t.Fatalf("expected normalized start, got %+v", body)
		}
	})

	t.Run("confirm returns the slot and closes the form", func(t *testing.T) {
		t.Parallel()

		rec := post(t, `{"form":{"date":"2024-06-01","start":"0900","end":"1030","inPerson":true},"action":"confirm"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decode[formResponse](t, rec)
		if body.State != "idle" || body.Slot == nil || body.Slot.TimeRange != "0900-1030" || body.Slot.Minutes != 90 {
			t.Fatalf("unexpected response %+v", body)
		}
	})

	t.Run("confirm with a reversed range keeps the form", func(t *testing.T) {
		t.Parallel()

		rec := post(t, `{"form":{"date":"2024-06-01","start":"1000","end":"0900"},"action":"confirm"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		body := decode[formResponse](t, rec)
		if body.State != "entering" || body.Errors["range"] != "終了時刻は開始時刻より後である必要があります。" {
			t.Fatalf("unexpected response %+v", body)
		}
	})

	t.Run("confirm without an open form", func(t *testing.T) {
		t.Parallel()

		rec := post(t, `{"action":"confirm"}`)
		body := decode[formResponse](t, rec)
		if rec.Code != http.StatusUnprocessableEntity || body.Errors["form"] == "" {
			t.Fatalf("unexpected response %d %+v", rec.Code, body)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		t.Parallel()

		if rec := post(t, `{"action":"teleport"}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("health reports store failures", func(t *testing.T) {
		t.Parallel()

		healthy := serve(t, RouterConfig{Health: func(context.Context) error { return nil }}, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
		if healthy.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", healthy.Code)
		}
		down := serve(t, RouterConfig{Health: func(context.Context) error { return errors.New("down") }}, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
		if down.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", down.Code)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		t.Parallel()

		cfg := RouterConfig{
			Events:      NewEventHandler(&stubEventService{}, "https://coordinator.example.com", discardLogger()),
			CORSOrigins: []string{"https://app.example.com"},
		}
		req := httptest.NewRequest(http.MethodOptions, "/events", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(t, cfg, req, nil)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Fatalf("expected allowed origin, got %q (status %d)", got, rec.Code)
		}
	})

	t.Run("middleware wraps in declaration order", func(t *testing.T) {
		t.Parallel()

		var order []string
		mark := func(name string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		cfg := RouterConfig{Middleware: []func(http.Handler) http.Handler{mark("outer"), nil, mark("inner")}}
		serve(t, cfg, httptest.NewRequest(http.MethodGet, "/health", nil), nil)

		if strings.Join(order, ",") != "outer,inner" {
			t.Fatalf("unexpected order %v", order)
		}
	})
}
