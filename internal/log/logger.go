package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that tags every record with its component.
// untagged carries the same attributes minus the component, so retagging
// never stacks two component fields.
type Logger struct {
	*slog.Logger
	untagged  *slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	base := slog.New(handler)
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		untagged:  base,
		component: component,
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		untagged:  l.base().With(args...),
		component: l.component,
	}
}

// WithComponent retags the logger, keeping every other attribute.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.base()
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		untagged:  base,
		component: component,
	}
}

func (l *Logger) base() *slog.Logger {
	if l.untagged != nil {
		return l.untagged
	}
	return l.Logger
}

func (l *Logger) Component() string {
	return l.component
}

// LogFields logs f at level with ctx.
func (l *Logger) LogFields(ctx context.Context, level slog.Level, msg string, f Fields) {
	l.Logger.LogAttrs(ctx, level, msg, f...)
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
