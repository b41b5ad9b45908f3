package gee

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

type H map[string]any

// abortIndex is past any real handler index but leaves headroom so nested
// Next loops incrementing it after Abort cannot overflow.
const abortIndex = math.MaxInt32

// Context carries one request through the handler chain.
type Context struct {
	Writer *ResponseWriter
	Req    *http.Request

	Path         string
	Method       string
	Params       map[string]string
	RoutePattern string

	handlers []HandlerFunc
	index    int
	engine   *Engine
}

func newContext(w http.ResponseWriter, req *http.Request) *Context {
	return &Context{
		Writer: NewResponseWriter(w),
		Req:    req,
		Path:   req.URL.Path,
		Method: req.Method,
		index:  -1,
	}
}

// Context returns the request context.
func (c *Context) Context() context.Context {
	return c.Req.Context()
}

// Next runs the remaining handlers. Middlewares call it to wrap the rest of
// the chain.
func (c *Context) Next() {
	c.index++
	for ; c.index < len(c.handlers) && !c.IsAborted(); c.index++ {
		c.handlers[c.index](c)
	}
}

func (c *Context) Param(key string) string {
	return c.Params[key]
}

// Query returns the first value of the URL query parameter key.
func (c *Context) Query(key string) string {
	return c.Req.URL.Query().Get(key)
}

func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

func (c *Context) SetHeader(key, value string) {
	c.Writer.SetHeader(key, value)
}

func (c *Context) String(code int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	fmt.Fprintf(c.Writer, format, values...)
}

// JSON streams obj as the response body.
func (c *Context) JSON(code int, obj any) {
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	if err := json.NewEncoder(c.Writer).Encode(obj); err != nil {
		http.Error(c.Writer, err.Error(), http.StatusInternalServerError)
	}
}

func (c *Context) Data(code int, data []byte) {
	c.Status(code)
	c.Writer.Write(data)
}

func (c *Context) Fail(code int, message string) {
	c.String(code, "%s", message)
	c.Abort()
}

func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

func (c *Context) AbortWithStatus(code int) {
	c.Status(code)
	c.Abort()
}

// AbortWithStatusJSON stops the chain and writes obj, unless a response has
// already been started.
func (c *Context) AbortWithStatusJSON(code int, obj any) {
	c.Abort()
	if c.Writer.Written() {
		return
	}

	body, err := json.Marshal(obj)
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"code":500,"message":"internal server error"}`)
	}
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	c.Writer.Write(body)
}

// AbortWithError writes the standard ErrorResponse body.
func (c *Context) AbortWithError(code int, message string) {
	c.AbortWithStatusJSON(code, NewErrorResponse(c, code, message))
}
