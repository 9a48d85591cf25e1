package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldSessionID is the field name for session ID.
	LogFieldSessionID = "session_id"
	// LogFieldIntent is the field name for the routed intent.
	LogFieldIntent = "intent"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// TurnContext represents the context for a single conversational turn
// with structured logging.
type TurnContext struct {
	RequestID string
	SessionID string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewTurnContext creates a new turn context with a generated request ID.
func NewTurnContext(logger *slog.Logger, sessionID string) *TurnContext {
	return &TurnContext{
		RequestID: uuid.New().String(),
		SessionID: sessionID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (t *TurnContext) Info(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, t.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (t *TurnContext) Debug(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, t.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (t *TurnContext) Warn(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, t.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (t *TurnContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	t.Logger.LogAttrs(context.Background(), slog.LevelError, msg, t.baseAttrsAppended(allAttrs...)...)
}

// Duration returns the elapsed time since the turn started.
func (t *TurnContext) Duration() time.Duration {
	return time.Since(t.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (t *TurnContext) DurationMs() int64 {
	return t.Duration().Milliseconds()
}

func (t *TurnContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldRequestID, t.RequestID),
		slog.String(LogFieldSessionID, t.SessionID),
	}
}

func (t *TurnContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	return append(t.baseAttrs(), attrs...)
}
