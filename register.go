package bapi

import (
	"context"
	"net/http"
	"reflect"
	"slices"

	"github.com/advdv/bapi/internal/httppattern"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// EndpointFunc is a typed handler. B is the request body type, use [NoBody] for endpoints
// without a body. R is the result type, use [NoContent] to respond without a body. Returning
// a nil result also responds without a body.
type EndpointFunc[B, R any] func(ctx context.Context, in *Input[B]) (*R, error)

// RouteOption configures an endpoint at registration.
type RouteOption func(*Endpoint)

// WithParams declares the parameters of the endpoint. Parameters named after a wildcard of
// the route are read from the path, all others from the query string.
func WithParams(params ...Param) RouteOption {
	return func(ep *Endpoint) { ep.Params = append(ep.Params, params...) }
}

// WithTags groups the endpoint in the API description.
func WithTags(tags ...string) RouteOption {
	return func(ep *Endpoint) { ep.Tags = append(ep.Tags, tags...) }
}

// WithSummary sets the summary of the endpoint.
func WithSummary(s string) RouteOption {
	return func(ep *Endpoint) { ep.Summary = s }
}

// WithDoc sets the long description of the endpoint.
func WithDoc(s string) RouteOption {
	return func(ep *Endpoint) { ep.Doc = s }
}

// WithStatus overrides the success status.
func WithStatus(code int) RouteOption {
	return func(ep *Endpoint) { ep.Status = code }
}

// WithAuth sets whether the endpoint is documented as requiring authentication, the
// default is true.
func WithAuth(required bool) RouteOption {
	return func(ep *Endpoint) { ep.RequiresAuth = required }
}

// WithPrivate leaves the endpoint out of the API description.
func WithPrivate() RouteOption {
	return func(ep *Endpoint) { ep.Private = true }
}

// Handle registers a typed handler for the rule and methods under a unique name. Any mistake in
// the declaration panics, since it can only happen while the program starts. The returned
// handler serves the endpoint without the router's middleware and route matching.
func Handle[B, R any](
	rt *Router, methods []string, rule, name string, h EndpointFunc[B, R], opts ...RouteOption,
) http.Handler {
	ep := &Endpoint{Name: name, Methods: slices.Clone(methods), RequiresAuth: true}
	for _, opt := range opts {
		opt(ep)
	}

	if t := reflect.TypeFor[B](); t != reflect.TypeFor[NoBody]() {
		ep.Body = t
	}

	if t := reflect.TypeFor[R](); t != reflect.TypeFor[NoContent]() {
		ep.Result = t
	}

	if err := rt.register(ep, rule); err != nil {
		panic("bapi: " + err.Error())
	}

	hdlr := serve(rt, ep, h)
	rt.mux.HandleMethods(ep.Methods, rule, hdlr, name)

	return ToStd(ToBare(hdlr), rt.bufLimit, rt.logs)
}

// Get registers a GET endpoint.
func Get[R any](rt *Router, rule, name string, h EndpointFunc[NoBody, R], opts ...RouteOption) http.Handler {
	return Handle(rt, []string{http.MethodGet}, rule, name, h, opts...)
}

// Delete registers a DELETE endpoint.
func Delete[R any](rt *Router, rule, name string, h EndpointFunc[NoBody, R], opts ...RouteOption) http.Handler {
	return Handle(rt, []string{http.MethodDelete}, rule, name, h, opts...)
}

// Post registers a POST endpoint.
func Post[B, R any](rt *Router, rule, name string, h EndpointFunc[B, R], opts ...RouteOption) http.Handler {
	return Handle(rt, []string{http.MethodPost}, rule, name, h, opts...)
}

// Put registers a PUT endpoint.
func Put[B, R any](rt *Router, rule, name string, h EndpointFunc[B, R], opts ...RouteOption) http.Handler {
	return Handle(rt, []string{http.MethodPut}, rule, name, h, opts...)
}

// Patch registers a PATCH endpoint.
func Patch[B, R any](rt *Router, rule, name string, h EndpointFunc[B, R], opts ...RouteOption) http.Handler {
	return Handle(rt, []string{http.MethodPatch}, rule, name, h, opts...)
}

// register checks the declaration and adds it to the registry.
func (rt *Router) register(ep *Endpoint, rule string) error {
	if ep.Name == "" {
		return errors.New("endpoint without a name")
	}

	if len(ep.Methods) < 1 {
		return errors.Newf("endpoint %q without methods", ep.Name)
	}

	for _, method := range ep.Methods {
		if _, ok := defaultStatus[method]; !ok {
			return errors.Newf("endpoint %q: unsupported method %q, supported: %v",
				ep.Name, method, lo.Keys(defaultStatus))
		}
	}

	if err := checkRecordType("body", ep.Body); err != nil {
		return errors.Wrapf(err, "endpoint %q", ep.Name)
	}

	if err := checkRecordType("result", ep.Result); err != nil {
		return errors.Wrapf(err, "endpoint %q", ep.Name)
	}

	pat, err := httppattern.ParsePattern(rule)
	if err != nil {
		return errors.Wrapf(err, "endpoint %q: invalid rule", ep.Name)
	}

	if pat.Method() != "" {
		return errors.Newf("endpoint %q: rule %q must not include a method", ep.Name, rule)
	}

	wildcards := pat.Wildcards()
	seen := map[string]bool{}
	for i, param := range ep.Params {
		if seen[param.Name] {
			return errors.Newf("endpoint %q: parameter %q declared twice", ep.Name, param.Name)
		}
		seen[param.Name] = true

		if err := param.check(); err != nil {
			return errors.Wrapf(err, "endpoint %q", ep.Name)
		}

		if slices.Contains(wildcards, param.Name) {
			ep.Params[i].Source, ep.Params[i].Presence = SourcePath, Required()
		} else {
			ep.Params[i].Source = SourceQuery
		}
	}

	for _, name := range wildcards {
		if !seen[name] {
			return errors.Newf("endpoint %q: route wildcard %q has no declared parameter", ep.Name, name)
		}
	}

	return rt.registry.Add(ep)
}

// checkRecordType requires bodies and results to be named structs, they are described as
// components of the API description under their type name.
func checkRecordType(role string, t reflect.Type) error {
	if t == nil {
		return nil
	}

	if t.Kind() != reflect.Struct || t.Name() == "" {
		return errors.Newf("%s type %s must be a named struct", role, t)
	}

	return nil
}
