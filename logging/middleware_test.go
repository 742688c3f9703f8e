package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggingMiddleware(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	tests := []struct {
		name       string
		target     string
		requestID  any
		wantLogged bool
		contains   []string
		absent     []string
	}{
		{"health is not logged", "/health", "req-1", false, nil, nil},
		{"metrics is not logged", "/metrics", "req-2", false, nil, nil},
		{
			"api path is logged", "/v1/medicaments", "req-3", true,
			[]string{"HTTP request", "path=/v1/medicaments", "request_id=req-3", "status_code=200", "bytes_written=2"},
			[]string{"query="},
		},
		{"query is logged when present", "/v1/medicaments?page=2", "req-4", true, []string{`query="page=2"`}, nil},
		{"non string request id", "/v1/medicaments/M1", 12345, true, []string{"request_id=unknown"}, nil},
		{"server errors use error level", "/boom", "req-5", true, []string{"level=ERROR", "status_code=500"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, tt.requestID))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			logs := out.String()
			if !tt.wantLogged {
				if logs != "" {
					t.Errorf("expected no logs, got: %s", logs)
				}
				return
			}
			for _, s := range tt.contains {
				if !strings.Contains(logs, s) {
					t.Errorf("log should contain %q, got: %s", s, logs)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(logs, s) {
					t.Errorf("log should not contain %q, got: %s", s, logs)
				}
			}
		})
	}
}
