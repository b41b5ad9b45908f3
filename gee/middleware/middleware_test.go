package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"allat.local/gee"
)

func TestReqID_KeepsIncoming(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "%s", ctx.Req.Header.Get(gee.RequestIDHeader))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(gee.RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(gee.RequestIDHeader); got != "abc" {
		t.Fatalf("response header: got %q", got)
	}
	if rec.Body.String() != "abc" {
		t.Fatalf("body: got %q", rec.Body.String())
	}
}

func TestReqID_GeneratesWhenMissing(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) { ctx.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))

	if got := rec.Header().Get(gee.RequestIDHeader); len(got) != 32 {
		t.Fatalf("generated id: got %q", got)
	}
}

func TestAccessLog_Fields(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })

	r := gee.New()
	r.Use(gee.Recovery(), ReqID(), AccessLog())
	r.GET("/sessions/:id", func(ctx *gee.Context) { ctx.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
	req.Header.Set(gee.RequestIDHeader, "abc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	dec := json.NewDecoder(&buf)
	for {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			break
		}
		if m["msg"] != "access" {
			continue
		}
		if m["request_id"] != "abc" || m["path"] != "/sessions/s1" || m["route"] != "/sessions/:id" {
			t.Fatalf("unexpected access entry: %v", m)
		}
		if m["status"] != float64(http.StatusOK) {
			t.Fatalf("status: got %v", m["status"])
		}
		return
	}
	t.Fatalf("no access entry in %q", buf.String())
}
