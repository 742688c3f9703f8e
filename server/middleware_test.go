package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/pharmacie/config"
	"github.com/giygas/pharmacie/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHostAllowed(t *testing.T) {
	allowed := []string{"pharmacie.example.org", ".cdn.example.org"}

	tests := []struct {
		host string
		want bool
	}{
		{"pharmacie.example.org", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"cdn.example.org", true},
		{"img.cdn.example.org", true},
		{"evilcdn.example.org", false},
		{"example.org", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := hostAllowed(tt.host, allowed); got != tt.want {
			t.Errorf("hostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestAllowedHostsMiddleware(t *testing.T) {
	logging.NewTestLogger(io.Discard)

	t.Run("empty list disables the guard", func(t *testing.T) {
		h := AllowedHostsMiddleware(nil)(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "anything.example.com"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("port and case are ignored", func(t *testing.T) {
		h := AllowedHostsMiddleware([]string{"Pharmacie.Example.org"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "PHARMACIE.example.org:5173"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("ipv6 loopback with port", func(t *testing.T) {
		h := AllowedHostsMiddleware([]string{"pharmacie.example.org"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "[::1]:8000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("unknown host gets a JSON 403", func(t *testing.T) {
		h := AllowedHostsMiddleware([]string{"pharmacie.example.org"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "attacker.example.net"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"code":403`) {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})
}

func TestRequestSizeMiddleware(t *testing.T) {
	logging.NewTestLogger(io.Discard)
	cfg := &config.Config{MaxRequestBody: 100, MaxHeaderSize: 200}
	h := RequestSizeMiddleware(cfg)(okHandler)

	tests := []struct {
		name       string
		body       string
		header     string
		wantStatus int
	}{
		{"small request", "", "", http.StatusOK},
		{"body at limit", strings.Repeat("a", 100), "", http.StatusOK},
		{"body over limit", strings.Repeat("a", 101), "", http.StatusRequestEntityTooLarge},
		{"headers over limit", "", strings.Repeat("h", 250), http.StatusRequestHeaderFieldsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set("X-Padding", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		target string
		want   int64
	}{
		{"/health", 5},
		{"/metrics", 0},
		{"/photos/para.png", 2},
		{"/v1/medicaments/export", 200},
		{"/v1/medicaments", 20},
		{"/v1/medicaments?page=3", 20},
		{"/v1/medicaments?search=doliprane", 50},
		{"/v1/medicaments/M1", 10},
		{"/other", 20},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if got := getTokenCost(req); got != tt.want {
			t.Errorf("getTokenCost(%s) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	logging.NewTestLogger(io.Discard)
	rl := NewRateLimiter()
	h := rl.Middleware(okHandler)

	// the export costs 200 tokens out of 1000
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/medicaments/export", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Limit") != "1000" {
			t.Errorf("missing X-RateLimit-Limit header")
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/medicaments/export", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}

	other := httptest.NewRequest(http.MethodGet, "/v1/medicaments/export", nil)
	other.RemoteAddr = "198.51.100.7:4242"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Errorf("another client should have its own bucket, got %d", rr.Code)
	}

	free := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, free)
	if rr.Code != http.StatusOK {
		t.Errorf("/metrics should bypass the limiter, got %d", rr.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()

	rl.getBucket("192.0.2.10")
	busy := rl.getBucket("192.0.2.11")
	busy.TakeAvailable(500)

	if removed := rl.cleanup(); removed != 1 {
		t.Errorf("cleanup removed %d buckets, want 1", removed)
	}
	if _, ok := rl.clients["192.0.2.11"]; !ok {
		t.Error("bucket with consumed tokens should be kept")
	}
	if got := clientIP(&http.Request{RemoteAddr: "192.0.2.10:555"}); got != "192.0.2.10" {
		t.Errorf("clientIP = %s", got)
	}

	rl.Stop()
}
