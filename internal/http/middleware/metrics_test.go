package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsAndPathLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/articles/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/articles/:id", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/a1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	// Matched routes are labelled by the route template, not the raw URL.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/articles/:id", "200")); got != baseRoute+1 {
		t.Fatalf("route counter = %v, want %v", got, baseRoute+1)
	}
	// Unmatched routes fall back to the raw path.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != baseMiss+1 {
		t.Fatalf("fallback counter = %v, want %v", got, baseMiss+1)
	}
	// No request is left in flight once handling completes.
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight gauge = %v", got)
	}
}
