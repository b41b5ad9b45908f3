package gee

import (
	"sort"
	"strings"
)

// router keeps one trie per method. Handlers are keyed "METHOD-pattern".
type router struct {
	roots    map[string]*node
	handlers map[string][]HandlerFunc
}

func newRouter() *router {
	return &router{
		roots:    make(map[string]*node),
		handlers: make(map[string][]HandlerFunc),
	}
}

// parsePattern splits a pattern into segments, stopping after a catch-all.
func parsePattern(pattern string) []string {
	var parts []string
	for _, item := range strings.Split(pattern, "/") {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: route " + method + " " + pattern + " has no handler")
	}
	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, parsePattern(pattern), 0)
	r.handlers[method+"-"+pattern] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) getRoute(method, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}
	searchParts := parsePattern(path)
	n := root.search(searchParts, 0)
	if n == nil {
		return nil, nil
	}

	params := make(map[string]string)
	for i, part := range parsePattern(n.pattern) {
		switch {
		case part[0] == ':':
			params[part[1:]] = searchParts[i]
		case part[0] == '*' && len(part) > 1:
			params[part[1:]] = strings.Join(searchParts[i:], "/")
		}
		if part[0] == '*' {
			break
		}
	}
	return n, params
}

// handle 在中间件执行前就写好 RoutePattern。
//
// 设计原因：metrics/trace 中间件要用路由模板做 label，而不是原始 path，
// 否则每个 session id 都会产生一条新的时间序列。
func (r *router) handle(c *Context) {
	if n, params := r.getRoute(c.Method, c.Path); n != nil {
		c.Params = params
		c.RoutePattern = n.pattern
		c.handlers = append(c.handlers, r.handlers[c.Method+"-"+n.pattern]...)
	} else if allow := r.allowedMethods(c.Path); len(allow) > 0 {
		c.SetHeader("Allow", strings.Join(allow, ","))
		c.handlers = append(c.handlers, c.engine.noMethod...)
	} else {
		c.handlers = append(c.handlers, c.engine.noRoute...)
	}
	c.Next()
}

// allowedMethods lists the methods that have a route matching path.
func (r *router) allowedMethods(path string) []string {
	var allow []string
	for method := range r.roots {
		if n, _ := r.getRoute(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	sort.Strings(allow)
	return allow
}
