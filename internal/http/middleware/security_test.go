package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" {
		t.Fatalf("Permissions-Policy missing")
	}
	if h.Get("Cache-Control") != "" || h.Get("Pragma") != "" {
		t.Fatalf("unexpected cache headers: %#v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected HSTS on plain HTTP")
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStore: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("Pragma") != "no-cache" {
		t.Fatalf("cache headers missing: %#v", w.Header())
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	t.Run("emitted over TLS", func(t *testing.T) {
		r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.TLS = &tls.ConnectionState{}
		r.ServeHTTP(w, req)

		got := w.Header().Get("Strict-Transport-Security")
		if !strings.HasPrefix(got, "max-age=3600") {
			t.Fatalf("HSTS = %q", got)
		}
	})

	t.Run("emitted behind TLS-terminating proxy", func(t *testing.T) {
		r := securityRouter(SecurityOptions{EnableHSTS: true})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		r.ServeHTTP(w, req)

		if w.Header().Get("Strict-Transport-Security") == "" {
			t.Fatalf("expected HSTS with X-Forwarded-Proto=https")
		}
	})

	t.Run("suppressed on plain HTTP", func(t *testing.T) {
		r := securityRouter(SecurityOptions{EnableHSTS: true})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		if w.Header().Get("Strict-Transport-Security") != "" {
			t.Fatalf("HSTS must not be sent over plain HTTP")
		}
	})
}
