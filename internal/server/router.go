package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter registers method-qualified routes on an [http.ServeMux].
//
// A method mismatch on a known path gets a 405 from the mux, and path values such as {id} are
// read with [http.Request.PathValue]. Every route is wrapped with the middleware registered
// before it.
type BasicRouter struct {
	mux        *http.ServeMux
	middleware []Middleware
	patterns   []string
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middleware = append(r.middleware, middleware...)
}

// Handle registers handler for "METHOD path"; an empty method matches any method.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(pattern(method, path), handler)
}

func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers h under every pattern it reports.
func (r *BasicRouter) Handler(h Handler) {
	for _, p := range h.Routes() {
		r.register(p, h)
	}
}

// Group returns a view of the router that prefixes every path with prefix.
func (r *BasicRouter) Group(prefix string) *Group {
	return &Group{router: r, prefix: strings.TrimSuffix(prefix, "/")}
}

// Routes lists the registered patterns in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.patterns)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for _, m := range slices.Backward(r.middleware) {
		handler = m(handler)
	}
	return handler
}

func (r *BasicRouter) register(p string, handler http.Handler) {
	r.patterns = append(r.patterns, p)
	r.mux.Handle(p, r.Apply(handler))
}

func pattern(method, path string) string {
	if method == "" {
		return path
	}
	return strings.ToUpper(method) + " " + path
}

// Group registers routes below a shared path prefix.
type Group struct {
	router *BasicRouter
	prefix string
}

func (g *Group) HandleFunc(method, path string, fn http.HandlerFunc) {
	g.router.Handle(method, g.prefix+path, fn)
}
