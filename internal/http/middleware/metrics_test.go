package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersInflightAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))

	for _, p := range []string{"/ok", "/does-not-exist", "/statusonly"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200")); got != baseOK+1 {
		t.Fatalf("counter /ok 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404")); got != base404+1 {
		t.Fatalf("counter 404 fallback = %v; want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestObserveIdempotency_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/api/coach/applications/:id/approve", func(c *gin.Context) {
		ObserveIdempotency(c, IdemOutcomeReplayed)
		c.Status(http.StatusOK)
	})

	label := "POST /api/coach/applications/:id/approve"
	base := testutil.ToFloat64(idemOutcomes.WithLabelValues(label, IdemOutcomeReplayed))

	for _, id := range []string{"a1", "b2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/coach/applications/"+id+"/approve", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(idemOutcomes.WithLabelValues(label, IdemOutcomeReplayed)); got != base+2 {
		t.Fatalf("replayed = %v; want %v", got, base+2)
	}
}

func TestObserveAccessDecision(t *testing.T) {
	base := testutil.ToFloat64(accessDecisions.WithLabelValues("suspended"))
	ObserveAccessDecision("suspended")
	if got := testutil.ToFloat64(accessDecisions.WithLabelValues("suspended")); got != base+1 {
		t.Fatalf("suspended = %v; want %v", got, base+1)
	}
}
