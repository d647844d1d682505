package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateLimitRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Optional auth: the limiter must key anonymous callers by IP.
	r.Use(OptionalAuth(nil))
	r.Use(RateLimit(rps, burst))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func doRated(r http.Handler, userID, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.RemoteAddr = net.JoinHostPort(ip, "12345")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	r := rateLimitRouter(1, 3)
	for i := 0; i < 3; i++ {
		if w := doRated(r, "u1", "203.0.113.9"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	r := rateLimitRouter(0.001, 1)

	if w := doRated(r, "u1", "203.0.113.9"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := doRated(r, "u1", "203.0.113.9")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After missing")
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "rate_limited" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestRateLimit_BucketsAreIndependent(t *testing.T) {
	r := rateLimitRouter(0.001, 1)

	if w := doRated(r, "u1", "203.0.113.9"); w.Code != http.StatusOK {
		t.Fatalf("u1: status = %d", w.Code)
	}
	// u1 is exhausted; a different user and an anonymous IP still pass.
	if w := doRated(r, "u2", "203.0.113.9"); w.Code != http.StatusOK {
		t.Fatalf("u2: status = %d", w.Code)
	}
	if w := doRated(r, "", "198.51.100.7"); w.Code != http.StatusOK {
		t.Fatalf("anonymous: status = %d", w.Code)
	}
	if w := doRated(r, "u1", "203.0.113.9"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("exhausted u1: status = %d", w.Code)
	}
}
