package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/config"
	httptransport "github.com/example/availability-coordinator/internal/http"
	"github.com/example/availability-coordinator/internal/logging"
	"github.com/example/availability-coordinator/internal/notify"
	"github.com/example/availability-coordinator/internal/persistence"
	"github.com/example/availability-coordinator/internal/persistence/postgres"
	"github.com/example/availability-coordinator/internal/persistence/sqlite"
)

// store is what the process needs from either backend.
type store interface {
	persistence.Store
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("coordinator stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	var notifier application.Notifier
	if cfg.RedisURL != "" {
		client, err := notify.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		notifier = notify.NewRedisNotifier(client, cfg.NotifyChannel, time.Now, logger)
		logger.Info("publishing notifications", "channel", cfg.NotifyChannel)
	}

	app := newApp(cfg, storage, notifier, time.Now, logger)

	sweeps := cron.New()
	if _, err := sweeps.AddFunc(cfg.SweepSchedule, func() { app.sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule slot sweeper: %w", err)
	}
	sweeps.Start()
	defer func() { <-sweeps.Stop().Done() }()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("coordinator API listening", "addr", server.Addr, "driver", cfg.Driver())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (store, error) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	default:
		s, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	}
}

type app struct {
	handler http.Handler
	sweeper *application.SlotSweeper
}

func newApp(cfg config.Config, storage store, notifier application.Notifier, now func() time.Time, logger *slog.Logger) *app {
	repos := application.RepositoriesFrom(storage)
	idGenerator := uuid.NewString

	events := application.NewEventServiceWithLogger(repos, notifier, idGenerator, now, logger)
	responses := application.NewResponseCoordinatorWithLogger(repos, notifier, idGenerator, now, logger)
	results := application.NewResultsServiceWithLogger(repos, logger)

	verifier := httptransport.NewJWTVerifier(cfg.IdentitySecret, now)
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:    httptransport.NewEventHandler(events, cfg.PublicBaseURL, logger),
		Responses: httptransport.NewResponseHandler(responses, logger),
		Results:   httptransport.NewResultsHandler(results, time.Local, now, logger),
		Timeslots: httptransport.NewTimeslotHandler(logger),
		Health:    storage.Ping,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
			httptransport.ResolveIdentity(verifier, logger),
		},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	return &app{
		handler: handler,
		sweeper: application.NewSlotSweeper(storage, cfg.SweepGrace, now, logger),
	}
}

// sweep runs one sweeper pass. The sweeper logs its own outcome.
func (a *app) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, _ = a.sweeper.Sweep(ctx)
}
