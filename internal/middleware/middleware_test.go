package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHostCheck(t *testing.T) {
	h := HostCheck("gather.example.com")(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"gather.example.com", http.StatusOK},
		{"GATHER.example.com:443", http.StatusOK},
		{"evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get(headerXFrameOptions); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get(headerContentSecurityPolicy) == "" {
		t.Fatal("missing Content-Security-Policy")
	}
}

func TestLoginRateLimitOnlyLoginPaths(t *testing.T) {
	h := LoginRateLimit()(okHandler)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manage", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d to /manage limited", i)
		}
	}

	limited := false
	for i := 0; i < loginRateLimitBurst+1; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		limited = rec.Code == http.StatusTooManyRequests
	}
	if !limited {
		t.Fatal("login burst not limited")
	}
}

func TestSubmitRateLimitSkipsGet(t *testing.T) {
	h := SubmitRateLimit(func(*http.Request) bool { return false })(okHandler)
	for i := 0; i < submitAnonBurst+2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gathering/1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d limited", i)
		}
	}

	var last int
	for i := 0; i < submitAnonBurst+1; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gathering/1", nil))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("last POST status = %d, want 429", last)
	}
}

func TestRedisRateLimitBlocks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := NewRedisRateLimit(rdb).Middleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	for i := 0; i < RateLimitMaxRequests; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if !mr.Exists(BlockedIPKeyPrefix + "203.0.113.7") {
		t.Fatal("IP not blocked")
	}
	if ttl := mr.TTL(RateLimitKeyPrefix + "203.0.113.7"); ttl != RateLimitWindow {
		t.Fatalf("window TTL = %v", ttl)
	}
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rec := httptest.NewRecorder()
	NewRedisRateLimit(rdb).Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when Redis is down", rec.Code)
	}
}
