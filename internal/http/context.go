package http

import (
	"context"
	"log/slog"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the caller's principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the caller's principal. Anonymous callers get
// the zero Principal and false.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// requestLogger picks the request scoped logger over the handler's own and
// tags it with the component, the action and, for signed-in callers, their
// identity.
func requestLogger(ctx context.Context, own *slog.Logger, component, action string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = loggerOrDefault(own)
	}

	tagged := append([]any{"handler", component, "operation", action}, attrs...)
	if principal, ok := PrincipalFromContext(ctx); ok && principal.Authenticated() {
		tagged = append(tagged, "identity", principal.Identity)
	}
	return logger.With(tagged...)
}
