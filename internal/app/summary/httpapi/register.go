// Package httpapi is the HTTP transport for summary sessions. Domain logic
// stays in internal/app/summary; handlers only translate.
package httpapi

import (
	"net/http"
	"time"

	"allat.local/gee"
	"allat.local/internal/app/summary/session"
	"allat.local/internal/platform/httpmiddleware"
	"allat.local/internal/platform/ratelimit"
)

// RegisterAPIRoutes mounts the session API under api (normally /api/v1).
// submitPerMinute caps submissions per client IP; limiter may be nil.
//
// 设计原因：
// - 会话状态留在服务端，页面只轮询 GET /sessions/:id，不需要 SSE/websocket
// - 只有 submissions 会打到上游摘要服务，所以只给它加限流
func RegisterAPIRoutes(api *gee.RouterGroup, store *session.Store, limiter ratelimit.Limiter, submitPerMinute int) {
	api.GET("/validate", NewValidateHandler())

	api.POST("/sessions", NewCreateSessionHandler(store))
	api.GET("/sessions/:id", NewGetSessionHandler(store))
	api.DELETE("/sessions/:id", NewDeleteSessionHandler(store))
	//提交 默认 10次/分钟
	api.POST("/sessions/:id/submissions",
		httpmiddleware.RateLimit(limiter, "submit", submitPerMinute, time.Minute),
		NewSubmitHandler(store),
	)
}

// RegisterHealthRoutes mounts the liveness probe on the public engine.
func RegisterHealthRoutes(r *gee.Engine) {
	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
}
