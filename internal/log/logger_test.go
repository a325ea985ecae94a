package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogger(component string, buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" Error ", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger("storage", &buf)

	logger.Info("row written", "rows", 1)

	out := buf.String()
	if !strings.Contains(out, "component=storage") {
		t.Errorf("missing component stamp: %s", out)
	}
	if !strings.Contains(out, "rows=1") {
		t.Errorf("missing caller attrs: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger("app", &buf).WithComponent("worker")

	logger.Warn("queue drained")

	if !strings.Contains(buf.String(), "component=worker") {
		t.Errorf("component not replaced: %s", buf.String())
	}
	if logger.Component() != "worker" {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithUser("user-1").
		WithActivity("act-1", "groceries", "EXPENSE", "GROCERIES", 5430).
		WithOperation(OpCreate)

	slice := fields.ToSlice()
	if len(slice) != len(fields)*2 {
		t.Fatalf("ToSlice length = %d, want %d", len(slice), len(fields)*2)
	}
	if fields[FieldUserID] != "user-1" {
		t.Errorf("user field = %v", fields[FieldUserID])
	}
	if fields[FieldValueCents] != int64(5430) {
		t.Errorf("value cents = %v", fields[FieldValueCents])
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Logger == nil {
		t.Fatal("FromContext must never return nil")
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger("http", &buf)

	var seen *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if seen != logger {
		t.Error("context logger is not the injected one")
	}
}

func TestStructuredLoggerHTTPLifecycle(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(captureLogger("http", &buf))
	req := httptest.NewRequest("GET", "/api/activities?kind=EXPENSE", nil)

	sl.LogHTTPStart(context.Background(), req, "203.0.113.7", "req_abc")
	sl.LogHTTPEnd(context.Background(), req, 500, 12, "203.0.113.7", "req_abc")

	out := buf.String()
	if !strings.Contains(out, "request_id=req_abc") {
		t.Errorf("missing request id: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx completion not logged at error: %s", out)
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(captureLogger("worker", &buf))

	sl.LogError(context.Background(), "mirror failed", context.DeadlineExceeded,
		ComponentWorker, OpMirror, NewFields().WithActivity("act-1", "d", "EXPENSE", "FOOD", 100))

	out := buf.String()
	if !strings.Contains(out, "operation=mirror") || !strings.Contains(out, "activity_id=act-1") {
		t.Errorf("missing structured fields: %s", out)
	}
}
