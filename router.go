package bapi

import (
	"context"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Router declares typed endpoints on a [ServeMux] and describes them as an OpenAPI document.
type Router struct {
	title          string
	version        string
	openapiVersion string
	strictParams   bool
	bufLimit       int

	mux       *ServeMux
	registry  *Registry
	codecs    *Codecs
	validate  *validator.Validate
	logs      Logger
	reporters []Reporter
}

type routerOptions struct {
	middleware     []Middleware
	encoders       []Encoder
	decoders       []Decoder
	logs           Logger
	openapiVersion string
	strictParams   bool
	validate       *validator.Validate
	bufLimit       int
	noDocs         bool
}

// Option configures a [Router].
type Option func(*routerOptions)

// WithMiddleware adds middleware around every route, including the documentation routes.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *routerOptions) { o.middleware = append(o.middleware, mw...) }
}

// WithEncoder adds an encoder, or replaces the encoder for the same content type.
func WithEncoder(enc Encoder) Option {
	return func(o *routerOptions) { o.encoders = append(o.encoders, enc) }
}

// WithDecoder adds a decoder, or replaces the decoder for the same content type.
func WithDecoder(dec Decoder) Option {
	return func(o *routerOptions) { o.decoders = append(o.decoders, dec) }
}

// WithLogger sets the logger, the default logs to [log.Default].
func WithLogger(logs Logger) Option {
	return func(o *routerOptions) { o.logs = logs }
}

// WithOpenAPIVersion sets the "openapi" field of the API description, the default is 3.0.2.
func WithOpenAPIVersion(v string) Option {
	return func(o *routerOptions) { o.openapiVersion = v }
}

// WithStrictParams answers requests that lack a required query parameter with a bad request.
// Without it the parameter is left unbound and reading it in the handler fails.
func WithStrictParams() Option {
	return func(o *routerOptions) { o.strictParams = true }
}

// WithValidator sets the validator that request bodies are checked with.
func WithValidator(v *validator.Validate) Option {
	return func(o *routerOptions) { o.validate = v }
}

// WithBufferLimit limits the size of buffered responses, see [NewResponseWriter].
func WithBufferLimit(n int) Option {
	return func(o *routerOptions) { o.bufLimit = n }
}

// WithoutDocs does not register the documentation routes.
func WithoutDocs() Option {
	return func(o *routerOptions) { o.noDocs = true }
}

// New inits a router for an API with the given title and version. Unless disabled it serves
// the API description at "/openapi.json" and "/openapi.yaml" and documentation pages at
// "/docs/" and "/redoc/".
func New(title, version string, opts ...Option) *Router {
	o := routerOptions{
		logs:           NewStdLogger(log.Default()),
		openapiVersion: "3.0.2",
		bufLimit:       -1,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.validate == nil {
		o.validate = NewValidate()
	}

	rt := &Router{
		title:          title,
		version:        version,
		openapiVersion: o.openapiVersion,
		strictParams:   o.strictParams,
		bufLimit:       o.bufLimit,
		mux:            NewServeMuxWith(o.bufLimit, o.logs, http.NewServeMux(), NewReverser()),
		registry:       NewRegistry(),
		codecs:         NewCodecs(o.encoders, o.decoders),
		validate:       o.validate,
		logs:           o.logs,
	}

	rt.mux.Use(o.middleware...)
	rt.mux.HandleRouteFailure(rt.serveRouteFailure)

	if !o.noDocs {
		rt.handleDocs()
	}

	return rt
}

// RegisterExceptionReporter adds a reporter for internal failures.
func (rt *Router) RegisterExceptionReporter(r Reporter) {
	rt.reporters = append(rt.reporters, r)
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Mux returns the underlying mux, for routes that are not typed endpoints.
func (rt *Router) Mux() *ServeMux { return rt.mux }

// Registry returns the registry of endpoints.
func (rt *Router) Registry() *Registry { return rt.registry }

// Title returns the title of the API.
func (rt *Router) Title() string { return rt.title }

// Reverse builds the url of a named route.
func (rt *Router) Reverse(name string, vals ...string) (string, error) {
	return rt.mux.Reverse(name, vals...)
}

// serveRouteFailure answers requests the mux has no route for in the negotiated format.
func (rt *Router) serveRouteFailure(_ context.Context, w ResponseWriter, r *http.Request, status int) error {
	resp, err := rt.render(r, status, HTTPErrorResponse{Code: status, Name: http.StatusText(status)})
	if err != nil {
		return err
	}

	return resp.write(w)
}
