package gee

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func runChain(handlers ...HandlerFunc) (*Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c := newContext(w, httptest.NewRequest(http.MethodGet, "/", nil))
	c.handlers = handlers
	c.Next()
	return c, w
}

func TestAbortStopsChain(t *testing.T) {
	var ran []int
	c, _ := runChain(
		func(c *Context) { ran = append(ran, 1); c.Next() },
		func(c *Context) { ran = append(ran, 2); c.Abort(); c.Next() },
		func(c *Context) { ran = append(ran, 3) },
	)

	if !reflect.DeepEqual(ran, []int{1, 2}) {
		t.Fatalf("ran: got %v, want [1 2]", ran)
	}
	if !c.IsAborted() {
		t.Fatal("context should be aborted")
	}
}

func TestFailWritesStatusAndAborts(t *testing.T) {
	var ran []int
	c, w := runChain(
		func(c *Context) { ran = append(ran, 1); c.Fail(http.StatusBadRequest, "bad request") },
		func(c *Context) { ran = append(ran, 2) },
	)

	if len(ran) != 1 {
		t.Fatalf("ran: got %v, want [1]", ran)
	}
	if !c.IsAborted() || w.Code != http.StatusBadRequest {
		t.Fatalf("aborted=%v code=%d", c.IsAborted(), w.Code)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	wrap := func(name string) HandlerFunc {
		return func(c *Context) {
			order = append(order, name+"-before")
			c.Next()
			order = append(order, name+"-after")
		}
	}
	runChain(wrap("m1"), wrap("m2"), func(c *Context) { order = append(order, "handler") })

	want := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
}

func TestAbortWithErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	c := newContext(w, req)

	c.AbortWithError(http.StatusNotFound, "session not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("code: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type: got %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := ErrorResponse{Code: http.StatusNotFound, Message: "session not found", RequestID: "rid-1"}
	if body != want {
		t.Fatalf("body: got %+v, want %+v", body, want)
	}
}

func TestAbortWithStatusJSONAfterWriteIsNoop(t *testing.T) {
	w := httptest.NewRecorder()
	c := newContext(w, httptest.NewRequest(http.MethodGet, "/", nil))

	c.String(http.StatusAccepted, "started")
	c.AbortWithStatusJSON(http.StatusInternalServerError, H{"error": "late"})

	if w.Code != http.StatusAccepted || w.Body.String() != "started" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
	if !c.IsAborted() {
		t.Fatal("context should be aborted")
	}
}

func TestQuery(t *testing.T) {
	c := newContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v?url=a&url=b", nil))
	if got := c.Query("url"); got != "a" {
		t.Fatalf("Query: got %q, want %q", got, "a")
	}
	if got := c.Query("missing"); got != "" {
		t.Fatalf("Query: got %q, want empty", got)
	}
}
