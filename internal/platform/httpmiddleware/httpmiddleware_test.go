package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"allat.local/gee"
	"allat.local/internal/platform/metrics"
	"allat.local/internal/platform/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct peer", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"untrusted peer spoofing xff", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "203.0.113.7"},
		{"loopback proxy cf header", "127.0.0.1:1234", map[string]string{"CF-Connecting-IP": "198.51.100.1"}, "198.51.100.1"},
		{"private proxy xff first hop", "10.0.0.2:1234", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.9"}, "198.51.100.2"},
		{"private proxy x-real-ip", "192.168.1.3:1234", map[string]string{"X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
		{"garbage header ignored", "172.16.0.1:1234", map[string]string{"X-Forwarded-For": "nope"}, "172.16.0.1"},
		{"no port", "198.51.100.9", nil, "198.51.100.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func newEngine(mw ...gee.HandlerFunc) *gee.Engine {
	r := gee.New()
	r.Use(mw...)
	r.POST("/api/v1/sessions/:id/submissions", func(ctx *gee.Context) { ctx.String(http.StatusAccepted, "ok") })
	return r
}

func do(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/submissions", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_LocalLimiter(t *testing.T) {
	r := newEngine(RateLimit(ratelimit.NewLocal(), "submit", 2, time.Minute))

	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:1").Code)
	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:2").Code)

	rec := do(r, "203.0.113.10:3")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.11:1").Code, "other clients unaffected")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := newEngine(RateLimit(brokenLimiter{}, "submit", 1, time.Minute))
	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:1").Code)
	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:1").Code)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	r := newEngine(RateLimit(nil, "submit", 1, time.Minute))
	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:1").Code)
	assert.Equal(t, http.StatusAccepted, do(r, "203.0.113.10:1").Code)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	metrics.Init()
	r := newEngine(Metrics())
	do(r, "203.0.113.10:1")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() != "http_request_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/api/v1/sessions/:id/submissions" && labels["status"] == "202" {
				found = true
			}
		}
	}
	assert.True(t, found, "request counted under its route pattern")
}

func TestTraceName_RenamesServerSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	h := otelhttp.NewHandler(newEngine(TraceName()), "http")
	rec := do(h, "203.0.113.10:1")
	require.Equal(t, http.StatusAccepted, rec.Code)

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "POST /api/v1/sessions/:id/submissions", ended[0].Name())
}
