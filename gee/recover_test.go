package gee

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoveryReturns500(t *testing.T) {
	e := New()
	e.Use(Recovery())
	e.GET("/panic", func(ctx *Context) { panic("boom") })

	w := serve(e, http.MethodGet, "/panic")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Fatalf("body: got %s", w.Body.String())
	}
}

func TestRecoveryStopsChain(t *testing.T) {
	var ran []int
	e := New()
	e.Use(Recovery())
	e.GET("/panic",
		func(ctx *Context) { ran = append(ran, 1); panic("boom") },
		func(ctx *Context) { ran = append(ran, 2) },
	)

	serve(e, http.MethodGet, "/panic")
	if len(ran) != 1 {
		t.Fatalf("ran: got %v, want [1]", ran)
	}
}

func TestDefaultRecoversMiddlewarePanic(t *testing.T) {
	e := Default()
	e.Use(func(ctx *Context) { panic("in middleware") })
	e.GET("/test", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped Recovery: %v", r)
		}
	}()
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code: got %d", w.Code)
	}
}

func TestRecoveryKeepsWrittenResponse(t *testing.T) {
	e := New()
	e.Use(Recovery())
	e.GET("/panic", func(ctx *Context) {
		ctx.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := serve(e, http.MethodGet, "/panic")
	if w.Code != http.StatusOK || w.Body.String() != "partial" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}
