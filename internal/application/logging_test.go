package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/availability-coordinator/internal/persistence"
	"github.com/example/availability-coordinator/internal/timeslot"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	_, rangeErr := timeslot.ParseAndValidateRange("1200", "0900", false)

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthenticated, "unauthenticated"},
		{ErrUnauthorized, "unauthorized"},
		{fmt.Errorf("lookup: %w", ErrNotFound), "not_found"},
		{ErrMissingName, "missing_name"},
		{rangeErr, "validation"},
		{&ValidationError{FieldErrors: map[string]string{"a": "b"}}, "validation"},
		{&persistence.DecodeError{Document: "slot"}, "decode"},
		{persistenceError("op", errors.New("boom")), "persistence"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "unexpected"},
	}

	for _, tc := range tests {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
