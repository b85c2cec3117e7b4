package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/availability-coordinator/internal/logging"
	"github.com/example/availability-coordinator/internal/persistence"
	"github.com/example/availability-coordinator/internal/timeslot"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMissingName):
		return "missing_name"
	case errors.Is(err, timeslot.ErrInvalidFormat),
		errors.Is(err, timeslot.ErrInvalidHour),
		errors.Is(err, timeslot.ErrInvalidMinute),
		errors.Is(err, timeslot.ErrRangeOrder):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var decodeErr *persistence.DecodeError
	if errors.As(err, &decodeErr) {
		return "decode"
	}
	if errors.Is(err, ErrPersistence) {
		return "persistence"
	}

	return "unexpected"
}
