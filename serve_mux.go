package bapi

import (
	"context"
	"log"
	"net/http"
	"slices"

	"github.com/advdv/bapi/internal/httppattern"
)

// Rule describes a route that was registered on the [ServeMux].
type Rule struct {
	// Name is the name of the route, empty for unnamed routes.
	Name string
	// Path is the path pattern without method, as registered. E.g: "/blog/{id}/{$}".
	Path string
	// Template is the path in "{name}" template form. E.g: "/blog/{id}/".
	Template string
	// Methods the route is registered for, nil if it matches every method.
	Methods []string
	// Params holds the names of the path wildcards in order of appearance.
	Params []string
}

// RouteFailureFunc formulates the response when no route matches a request. Status is the
// code the standard library router decided on: 404 when nothing matched the path or 405
// when the path matched but the method did not.
type RouteFailureFunc func(ctx context.Context, w ResponseWriter, r *http.Request, status int) error

// ServeMux is an HTTP multiplexer with buffered responses, error handling, and named routes.
type ServeMux struct {
	logs        Logger
	bufLimit    int
	reverser    *Reverser
	mux         *http.ServeMux
	rules       []Rule
	failure     RouteFailureFunc
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewServeMux creates a new ServeMux with default settings.
func NewServeMux() *ServeMux {
	return NewServeMuxWith(-1, NewStdLogger(log.Default()), http.NewServeMux(), NewReverser())
}

// NewServeMuxWith creates a ServeMux with custom settings.
func NewServeMuxWith(bufLimit int, logger Logger, baseMux *http.ServeMux, reverser *Reverser) *ServeMux {
	return &ServeMux{
		bufLimit: bufLimit,
		logs:     logger,
		reverser: reverser,
		mux:      baseMux,
	}
}

// Reverse returns the url based on the name and parameter values.
func (m *ServeMux) Reverse(name string, vals ...string) (string, error) {
	return m.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (m *ServeMux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.buffered = append(m.middlewares.buffered, mw...)
}

// HandleRouteFailure replaces the plain text 404 and 405 responses of the standard library
// router. The "Allow" header of a 405 response is kept.
func (m *ServeMux) HandleRouteFailure(fn RouteFailureFunc) {
	m.failure = fn
}

// HandleFunc handles the request given the pattern using a function.
func (m *ServeMux) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	m.Handle(pattern, handler, name...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [ServeMux.Use] is applied. See the package-level section
// "Standard library handlers and error ownership" for details on error handling behavior.
func (m *ServeMux) HandleStd(pattern string, handler http.Handler, name ...string) {
	m.Handle(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}), name...)
}

// Handle handles the request given a handler.
func (m *ServeMux) Handle(pattern string, handler Handler, name ...string) {
	m.handle(nil, pattern, ToStd(
		Wrap(handler, m.middlewares.buffered...),
		m.bufLimit,
		m.logs,
	), name...)
}

// HandleMethods registers the handler for the path pattern once per method. The route is
// named once, so reversing it is independent of the method.
func (m *ServeMux) HandleMethods(methods []string, pattern string, handler Handler, name ...string) {
	if len(methods) < 1 {
		panic("bapi: HandleMethods requires at least one method")
	}

	m.handle(methods, pattern, ToStd(
		Wrap(handler, m.middlewares.buffered...),
		m.bufLimit,
		m.logs,
	), name...)
}

// Rules returns the registered routes in registration order.
func (m *ServeMux) Rules() []Rule {
	return slices.Clone(m.rules)
}

// ServeHTTP makes the server mux implement the http.Handler interface.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.failure == nil {
		m.mux.ServeHTTP(w, r)
		return
	}

	hdlr, pattern := m.mux.Handler(r)
	if pattern != "" {
		m.mux.ServeHTTP(w, r)
		return
	}

	// let the standard router decide on the status and Allow header, then discard its body.
	capture := NewResponseWriter(w, -1)
	hdlr.ServeHTTP(capture, r)
	status, allow := capture.Status(), capture.Header().Values("Allow")
	capture.Free()

	ToStd(Wrap(HandlerFunc(func(ctx context.Context, bw ResponseWriter, r *http.Request) error {
		for _, v := range allow {
			bw.Header().Add("Allow", v)
		}

		return m.failure(ctx, bw, r, status)
	}), m.middlewares.buffered...), m.bufLimit, m.logs).ServeHTTP(w, r)
}

func (m *ServeMux) handle(methods []string, pattern string, handler http.Handler, name ...string) {
	m.middlewares.captured = true

	pat, err := httppattern.ParsePattern(pattern)
	if err != nil {
		panic("bapi: failed to parse pattern: " + err.Error())
	}

	rule := Rule{
		Path:     pat.Path(),
		Template: pat.Template(),
		Params:   pat.Wildcards(),
	}

	switch {
	case methods != nil && pat.Method() != "":
		panic("bapi: pattern " + pattern + " must not include a method when methods are given")
	case methods != nil:
		rule.Methods = slices.Clone(methods)
	case pat.Method() != "":
		rule.Methods = []string{pat.Method()}
	}

	if len(name) > 0 {
		rule.Name = name[0]
		m.reverser.Named(name[0], pattern)
	}

	if methods == nil {
		m.mux.Handle(pattern, handler)
	} else {
		for _, method := range methods {
			m.mux.Handle(method+" "+pattern, handler)
		}
	}

	m.rules = append(m.rules, rule)
}

func (m *ServeMux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("bapi: cannot call Use() after calling Handle")
	}
}
