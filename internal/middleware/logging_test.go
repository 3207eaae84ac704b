package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func loggedRequest(t *testing.T, status int) string {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest("GET", "/api/seniors", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != status {
		t.Fatalf("status = %d, want %d", rec.Code, status)
	}
	return buf.String()
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{500, "level=ERROR"},
	}
	for _, tc := range tests {
		line := loggedRequest(t, tc.status)
		if !strings.Contains(line, tc.level) {
			t.Errorf("status %d: log line %q missing %q", tc.status, line, tc.level)
		}
		if !strings.Contains(line, "path=/api/seniors") {
			t.Errorf("status %d: log line %q missing path", tc.status, line)
		}
	}
}

func TestStatusWriterDefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// Handler writes a body without an explicit WriteHeader call.
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("log line %q missing status=200", buf.String())
	}
}
