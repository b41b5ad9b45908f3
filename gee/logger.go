package gee

import (
	"log/slog"
	"time"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Logger is a minimal debug-level request log for Default engines.
func Logger() HandlerFunc {
	return func(ctx *Context) {
		start := time.Now()
		ctx.Next()
		slog.Debug("request",
			"status", ctx.Writer.Status(),
			"uri", ctx.Req.RequestURI,
			"latency_us", time.Since(start).Microseconds(),
			"bytes", ctx.Writer.Size(),
		)
	}
}
