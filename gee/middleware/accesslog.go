package middleware

import (
	"log/slog"
	"time"

	"allat.local/gee"
)

// AccessLog writes one structured line per request.
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		slog.InfoContext(ctx.Context(), "access",
			"request_id", ctx.Req.Header.Get(gee.RequestIDHeader),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", route,
			"status", ctx.Writer.Status(),
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
