package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"allat.local/gee"
	"allat.local/internal/platform/ratelimit"
)

// ClientIP returns the caller's address for rate limiting and logs.
//
// Forwarding headers are only trusted when the direct peer is a local or
// private-network proxy; otherwise a client could spoof X-Forwarded-For.
func ClientIP(req *http.Request) string {
	remoteHost, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		remoteHost = req.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)
	if remoteIP == nil || !isTrustedProxy(remoteIP) {
		return remoteHost
	}

	if cf := strings.TrimSpace(req.Header.Get("CF-Connecting-IP")); cf != "" && net.ParseIP(cf) != nil {
		return cf
	}
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// first hop is the original client
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		xff = strings.TrimSpace(xff)
		if net.ParseIP(xff) != nil {
			return xff
		}
	}
	if xrip := strings.TrimSpace(req.Header.Get("X-Real-IP")); xrip != "" && net.ParseIP(xrip) != nil {
		return xrip
	}
	return remoteHost
}

func isTrustedProxy(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate()
}

// RateLimit admits limit requests per window per client IP. A nil limiter
// disables it, and limiter errors fail open.
//
// 约定：key 形如 rl:{prefix}:{ip}，不同路由用不同 prefix 互不影响。
//
// 设计原因：
// - Redis 抖动时宁可放行也不要让整个提交入口 500
// - Retry-After 向上取整到秒，客户端不会提前重试
func RateLimit(limiter ratelimit.Limiter, prefix string, limit int, window time.Duration) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}
		key := "rl:" + prefix + ":" + ClientIP(ctx.Req)

		rlCtx, cancel := context.WithTimeout(ctx.Context(), 50*time.Millisecond)
		allowed, retryAfter, err := limiter.Allow(rlCtx, key, limit, window)
		cancel()
		if err != nil {
			slog.ErrorContext(ctx.Context(), "rate limit check failed", "key", key, "err", err)
			ctx.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				secs := int64((retryAfter + time.Second - 1) / time.Second)
				ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}
