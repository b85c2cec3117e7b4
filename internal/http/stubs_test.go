package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/example/availability-coordinator/internal/application"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEventService struct {
	createPrincipal application.Principal
	createInput     application.EventInput
	event           application.Event
	summaries       []application.EventSummary
	err             error
}

func (s *stubEventService) CreateEvent(_ context.Context, principal application.Principal, input application.EventInput) (application.Event, error) {
	s.createPrincipal = principal
	s.createInput = input
	return s.event, s.err
}

func (s *stubEventService) GetEvent(_ context.Context, eventID string) (application.Event, error) {
	if s.err != nil {
		return application.Event{}, s.err
	}
	event := s.event
	event.ID = eventID
	return event, nil
}

func (s *stubEventService) UpdateEvent(_ context.Context, _ application.Principal, eventID string, input application.EventInput) (application.Event, error) {
	s.createInput = input
	event := s.event
	event.ID = eventID
	return event, s.err
}

func (s *stubEventService) DeleteEvent(context.Context, application.Principal, string) error {
	return s.err
}

func (s *stubEventService) ListHostEvents(context.Context, application.Principal) ([]application.EventSummary, error) {
	return s.summaries, s.err
}

type stubResponseService struct {
	params   application.SubmitParams
	outcome  application.SubmissionOutcome
	existing application.ExistingResponse
	history  []application.HistoryItem
	deleted  string
	err      error
}

func (s *stubResponseService) Submit(_ context.Context, params application.SubmitParams) (application.SubmissionOutcome, error) {
	s.params = params
	return s.outcome, s.err
}

func (s *stubResponseService) LoadExisting(context.Context, string, application.Principal) (application.ExistingResponse, error) {
	return s.existing, s.err
}

func (s *stubResponseService) DeleteResponse(_ context.Context, _ application.Principal, _, responseID string) error {
	s.deleted = responseID
	return s.err
}

func (s *stubResponseService) ListHistory(context.Context, application.Principal) ([]application.HistoryItem, error) {
	return s.history, s.err
}

type stubResultsService struct {
	results application.Results
	err     error
}

func (s *stubResultsService) Results(context.Context, string) (application.Results, error) {
	return s.results, s.err
}

// serve routes req through a router built from cfg. The principal, when
// given, is attached the way ResolveIdentity would.
func serve(t *testing.T, cfg RouterConfig, req *http.Request, principal *application.Principal) *httptest.ResponseRecorder {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if principal != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}
