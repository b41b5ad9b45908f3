package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"allat.local/gee"
)

// ReqID keeps an incoming X-Request-ID or assigns a new one, and echoes it
// on the response.
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(gee.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = GenerateReqID()
			if id == "" {
				id = strconv.FormatInt(time.Now().UnixNano(), 10)
			}
			ctx.Req.Header.Set(gee.RequestIDHeader, id)
		}
		ctx.SetHeader(gee.RequestIDHeader, id)

		ctx.Next()
	}
}

// GenerateReqID returns 32 hex characters, or "" if the system RNG fails.
func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return ""
	}
	return hex.EncodeToString(src)
}
