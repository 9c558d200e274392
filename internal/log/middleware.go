package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the request logger, or one backed by slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	base := slog.Default()
	return &Logger{Logger: base.With(FieldComponent, ComponentApp), untagged: base, component: ComponentApp}
}

// Middleware puts a request-scoped logger carrying the request id into the
// request context.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

// StructuredLogger logs the recurring events of the HTTP layer.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	sl.logger.LogFields(ctx, level, "HTTP request completed",
		Fields{}.Response(r.Method, r.URL.Path, statusCode, durationMs, clientIP))
}

func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, userID, id int64, txType, category string, amountCents int64, date string) {
	sl.logger.LogFields(ctx, slog.LevelInfo, "Transaction created",
		Fields{}.User(userID).Transaction(id, txType, category, amountCents, date))
}

// LogError logs err at error level on top of any extra fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType, operation string, extra Fields) {
	sl.logger.LogFields(ctx, slog.LevelError, msg, extra.Err(err, errorType, operation))
}
