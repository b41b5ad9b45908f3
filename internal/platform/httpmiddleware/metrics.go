package httpmiddleware

import (
	"strconv"
	"time"

	"allat.local/gee"
	"allat.local/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight gauge, labelled by
// route pattern so session ids do not explode cardinality.
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		defer func() {
			route := ctx.RoutePattern
			if route == "" {
				route = "UNMATCHED"
			}
			status := ctx.Writer.Status()
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
		}()
		ctx.Next()
	}
}
