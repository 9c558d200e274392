package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentBudget, Output: &buf})

	l.InfoContext(context.Background(), "budget set", FieldUserID, 7)

	out := buf.String()
	if !strings.Contains(out, "component=budget") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "user_id=7") {
		t.Errorf("missing user_id in %q", out)
	}
}

func TestMiddlewareAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	handler := Middleware(base, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id not logged: %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != ComponentApp {
		t.Fatalf("unexpected default logger: %+v", l)
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))

	sl.LogError(context.Background(), "save failed", errors.New("disk full"), ErrorTypeDatabase, OpCreate, Fields{}.User(3))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=\"disk full\"", "error_type=database_error", "user_id=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFieldsKeepOrderAndPrefix(t *testing.T) {
	base := Fields{}.User(1)
	a := base.Add("a", 1)
	b := base.Add("b", 2)

	if len(base) != 1 || len(a) != 2 || len(b) != 2 {
		t.Fatalf("unexpected lengths %d %d %d", len(base), len(a), len(b))
	}
	if a[1].Key != "a" || b[1].Key != "b" {
		t.Errorf("extending a shared prefix clobbered a sibling: %v %v", a, b)
	}

	var buf bytes.Buffer
	New(Config{Level: slog.LevelInfo, Output: &buf}).LogFields(context.Background(), slog.LevelInfo, "ordered", a)
	out := buf.String()
	if strings.Index(out, "user_id=1") > strings.Index(out, "a=1") {
		t.Errorf("attributes out of order: %q", out)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
			sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodPost, "/transactions", nil), tt.status, 12, "10.0.0.1")

			out := buf.String()
			if !strings.Contains(out, tt.level) || !strings.Contains(out, "path=/transactions") {
				t.Errorf("unexpected line %q", out)
			}
		})
	}
}

func TestWithComponentReplacesTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf}).With(FieldRequestID, "req-9")

	l.WithComponent(ComponentHTTP).WithComponent(ComponentBudget).Info("tagged")

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("component emitted %d times in %q", n, out)
	}
	if !strings.Contains(out, "component=budget") || !strings.Contains(out, "request_id=req-9") {
		t.Errorf("unexpected line %q", out)
	}
}
