package gee

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// stack formats the caller frames of a recovered panic.
func stack(message string) string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\nTraceback:")
	for _, pc := range pcs[:n] {
		fn := runtime.FuncForPC(pc)
		file, line := fn.FileLine(pc)
		fmt.Fprintf(&b, "\n\t%s:%d", file, line)
	}
	return b.String()
}

// Recovery turns a handler panic into a 500, unless the response was
// already started, and logs the stack.
func Recovery() HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered",
					"request_id", ctx.Req.Header.Get(RequestIDHeader),
					"method", ctx.Method,
					"path", ctx.Path,
					"panic", err,
					"stack", stack(fmt.Sprintf("%v", err)),
				)
				if ctx.Writer.Written() {
					ctx.Abort()
					return
				}
				ctx.AbortWithError(http.StatusInternalServerError, "internal server error")
			}
		}()
		ctx.Next()
	}
}
