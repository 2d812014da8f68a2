package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalcare/aftercare/internal/metrics"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := RequestID(Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dialogues", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLogging_PassesThroughStatus(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/v1/dialogues/session/{sessionID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dialogues/session/abc", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORS_WildcardDisablesCredentials(t *testing.T) {
	assert.False(t, CORS([]string{"*"}).AllowCredentials)
	assert.True(t, CORS(nil).AllowCredentials)
	assert.Equal(t, []string{"http://localhost:3000"}, CORS(nil).AllowedOrigins)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/turns/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Get("/metrics", func(http.ResponseWriter, *http.Request) {})

	counter := func(route, status string) float64 {
		return promtest.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, route, status))
	}
	beforeRoute := counter("/turns/{id}", "418")
	beforeUnmatched := counter(unmatchedRoute, "404")
	beforeScrape := counter("/metrics", "200")

	for _, path := range []string{"/turns/1", "/turns/2", "/no/such/page", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeRoute+2, counter("/turns/{id}", "418"))
	assert.Equal(t, beforeUnmatched+1, counter(unmatchedRoute, "404"))
	assert.Equal(t, beforeScrape, counter("/metrics", "200"))
	assert.Equal(t, float64(0), promtest.ToFloat64(metrics.HTTPRequestsInFlight))
}
