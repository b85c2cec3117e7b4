package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// HealthCheck reports whether the service can reach its dependencies.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Events     *EventHandler
	Responses  *ResponseHandler
	Results    *ResultsHandler
	Timeslots  *TimeslotHandler
	Health     HealthCheck
	Middleware []func(http.Handler) http.Handler
	// CORSOrigins lists allowed browser origins. Empty disables CORS handling.
	CORSOrigins []string
	Logger      *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	responder := newResponder(cfg.Logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req.Context()); err != nil {
				responder.loggerFor(req.Context()).WarnContext(req.Context(), "health check failed", "error", err)
				responder.writeJSON(req.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(req.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}).Methods(http.MethodGet)

	if cfg.Events != nil {
		r.HandleFunc("/events", cfg.Events.List).Methods(http.MethodGet)
		r.HandleFunc("/events", cfg.Events.Create).Methods(http.MethodPost)
		r.HandleFunc("/events/{eventID}", cfg.Events.Get).Methods(http.MethodGet)
		r.HandleFunc("/events/{eventID}", cfg.Events.Update).Methods(http.MethodPut)
		r.HandleFunc("/events/{eventID}", cfg.Events.Delete).Methods(http.MethodDelete)
		r.HandleFunc("/events/{eventID}/share", cfg.Events.Share).Methods(http.MethodGet)
		r.HandleFunc("/resolve", cfg.Events.Resolve).Methods(http.MethodGet)
	}

	if cfg.Responses != nil {
		r.HandleFunc("/events/{eventID}/responses", cfg.Responses.Submit).Methods(http.MethodPost)
		r.HandleFunc("/events/{eventID}/responses/mine", cfg.Responses.Mine).Methods(http.MethodGet)
		r.HandleFunc("/events/{eventID}/responses/{responseID}", cfg.Responses.Delete).Methods(http.MethodDelete)
		r.HandleFunc("/history", cfg.Responses.History).Methods(http.MethodGet)
	}

	if cfg.Results != nil {
		r.HandleFunc("/events/{eventID}/results", cfg.Results.Results).Methods(http.MethodGet)
		r.HandleFunc("/events/{eventID}/results.ics", cfg.Results.Calendar).Methods(http.MethodGet)
	}

	if cfg.Timeslots != nil {
		r.HandleFunc("/timeslots/form", cfg.Timeslots.Form).Methods(http.MethodPost)
	}

	var handler http.Handler = r
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
		}).Handler(handler)
	}

	return handler
}

type healthResponse struct {
	Status string `json:"status"`
}
