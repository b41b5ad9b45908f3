package httpapi

import (
	"embed"
	"io/fs"
	"net/http"

	"allat.local/gee"
)

//go:embed static/*
var staticFS embed.FS

// RegisterWebRoutes serves the single-page UI embedded from static/.
func RegisterWebRoutes(r *gee.Engine) {
	staticRoot, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to get static subdirectory: " + err.Error())
	}

	r.GET("/", func(ctx *gee.Context) {
		data, err := fs.ReadFile(staticRoot, "index.html")
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "index.html not found")
			return
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		ctx.Data(http.StatusOK, data)
	})

	// Avoid noisy 404s from browsers asking for a favicon.
	r.GET("/favicon.ico", func(ctx *gee.Context) {
		ctx.Status(http.StatusNoContent)
	})
}
