// Package context carries request-scoped values between middleware, handlers
// and the services they call.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderXRequestID is the HTTP header carrying the request ID.
const HeaderXRequestID = "X-Request-Id"

// Keys of values stored on echo.Context.
const (
	echoKeyRequestID = "request_id"
	echoKeyAccountID = "account_id"
)

type ctxKey int

// Keys of values stored on context.Context.
const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyLogger
)

// SetRequestID records the request ID on echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(echoKeyRequestID, requestID)
}

// GetRequestID returns the request ID of c. Before the request ID middleware
// has run it falls back to the response header, then to "".
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(echoKeyRequestID).(string); ok && id != "" {
		return id
	}

	return c.Response().Header().Get(HeaderXRequestID)
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext returns the request ID of ctx, or "".
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)

	return id
}

// WithLogger returns a copy of ctx carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLogger returns the request-scoped logger of ctx, or nil.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, _ := ctx.Value(ctxKeyLogger).(*slog.Logger)

	return logger
}

// GetLoggerOrDefault returns the request-scoped logger of ctx, or fallback.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}

	return fallback
}

// SetAccountID records the authenticated account on echo.Context.
func SetAccountID(c echo.Context, accountID uuid.UUID) {
	c.Set(echoKeyAccountID, accountID)
}

// AccountIDFrom returns the authenticated account, if any.
func AccountIDFrom(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(echoKeyAccountID).(uuid.UUID)

	return id, ok && id != uuid.Nil
}

// GetAccountID returns the authenticated account as a string, or "".
func GetAccountID(c echo.Context) string {
	if id, ok := AccountIDFrom(c); ok {
		return id.String()
	}

	return ""
}
