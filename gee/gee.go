// Package gee is a small HTTP engine: a trie router with route groups and a
// gin-style middleware chain.
package gee

import (
	"log/slog"
	"net/http"
	"strings"
)

type HandlerFunc func(*Context)

type Engine struct {
	*RouterGroup
	router   *router
	groups   []*RouterGroup
	noRoute  []HandlerFunc
	noMethod []HandlerFunc
}

// RouterGroup shares a path prefix and a middleware list. Middlewares of every
// group whose prefix matches the request path run, outermost group first.
type RouterGroup struct {
	prefix      string
	middlewares []HandlerFunc
	parent      *RouterGroup
	engine      *Engine
}

func New() *Engine {
	e := &Engine{router: newRouter()}
	e.noRoute = []HandlerFunc{func(ctx *Context) {
		ctx.AbortWithError(http.StatusNotFound, "not found")
	}}
	e.noMethod = []HandlerFunc{func(ctx *Context) {
		ctx.AbortWithError(http.StatusMethodNotAllowed, "method not allowed")
	}}
	e.RouterGroup = &RouterGroup{engine: e}
	e.groups = []*RouterGroup{e.RouterGroup}
	return e
}

// Default returns an engine with Recovery and Logger installed.
func Default() *Engine {
	e := New()
	e.Use(Recovery(), Logger())
	return e
}

func (e *Engine) NoRoute(handlers ...HandlerFunc) {
	e.noRoute = handlers
}

func (e *Engine) NoMethod(handlers ...HandlerFunc) {
	e.noMethod = handlers
}

func (g *RouterGroup) Group(prefix string) *RouterGroup {
	ng := &RouterGroup{
		prefix: g.prefix + prefix,
		parent: g,
		engine: g.engine,
	}
	g.engine.groups = append(g.engine.groups, ng)
	return ng
}

func (g *RouterGroup) Use(middlewares ...HandlerFunc) {
	g.middlewares = append(g.middlewares, middlewares...)
}

// Handle registers handlers for method and a pattern relative to the group.
// Patterns support :name segments and a trailing *name catch-all.
func (g *RouterGroup) Handle(method, pattern string, handlers ...HandlerFunc) {
	full := g.prefix + pattern
	slog.Debug("route registered", "method", method, "pattern", full)
	g.engine.router.addRoute(method, full, handlers...)
}

func (g *RouterGroup) GET(pattern string, handlers ...HandlerFunc) {
	g.Handle(http.MethodGet, pattern, handlers...)
}

func (g *RouterGroup) POST(pattern string, handlers ...HandlerFunc) {
	g.Handle(http.MethodPost, pattern, handlers...)
}

func (g *RouterGroup) DELETE(pattern string, handlers ...HandlerFunc) {
	g.Handle(http.MethodDelete, pattern, handlers...)
}

func (e *Engine) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var chain []HandlerFunc
	for _, g := range e.groups {
		if strings.HasPrefix(req.URL.Path, g.prefix) {
			chain = append(chain, g.middlewares...)
		}
	}
	ctx := newContext(w, req)
	ctx.handlers = chain
	ctx.engine = e
	e.router.handle(ctx)
}

func (e *Engine) Run(addr string) error {
	return http.ListenAndServe(addr, e)
}
