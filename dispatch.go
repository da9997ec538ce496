package bapi

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// NoBody is the body type of endpoints that do not read a request body.
type NoBody struct{}

// NoContent is the result type of endpoints that respond without a body.
type NoContent struct{}

// Reporter is informed about internal failures, for example to send them to an error tracker.
// Reporters are called synchronously in the order they were registered.
type Reporter func(ctx context.Context, rt *Router, err error)

// Response is a fully rendered response.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

func (resp *Response) write(w ResponseWriter) error {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}

	w.WriteHeader(resp.Status)
	if len(resp.Body) < 1 {
		return nil
	}

	if _, err := w.Write(resp.Body); err != nil {
		return errors.Wrap(err, "write response body")
	}

	return nil
}

// serve turns a typed handler into a buffered handler that binds, invokes and renders.
func serve[B, R any](rt *Router, ep *Endpoint, h EndpointFunc[B, R]) HandlerFunc {
	return func(ctx context.Context, w ResponseWriter, r *http.Request) error {
		resp, err := dispatch(ctx, rt, ep, h, r)
		if err != nil {
			return err
		}

		return resp.write(w)
	}
}

func dispatch[B, R any](ctx context.Context, rt *Router, ep *Endpoint, h EndpointFunc[B, R], r *http.Request) (*Response, error) {
	in, err := bind[B](rt, ep, r)
	if err != nil {
		return rt.fail(ctx, ep, r, err)
	}

	res, err := invoke(ctx, h, in)
	if err != nil {
		return rt.fail(ctx, ep, r, err)
	}

	status := ep.SuccessStatus(endpointMethod(ep, r))
	if res == nil || ep.Result == nil {
		return &Response{Status: status}, nil
	}

	resp, err := rt.render(r, status, res)
	if err != nil {
		return rt.fail(ctx, ep, r, err)
	}

	return resp, nil
}

// invoke calls the handler, a panic is returned as an error.
func invoke[B, R any](ctx context.Context, h EndpointFunc[B, R], in *Input[B]) (res *R, err error) {
	defer func() {
		p := recover()
		switch {
		case p == nil:
		case p == http.ErrAbortHandler: //nolint:errorlint,err113
			panic(p)
		default:
			if perr, ok := p.(error); ok {
				err = errors.Wrap(perr, "handler panicked")
			} else {
				err = errors.Newf("handler panicked: %v", p)
			}
		}
	}()

	return h(ctx, in)
}

// fail classifies err and renders it. Internal failures are logged and reported before the
// generic response is rendered.
func (rt *Router) fail(ctx context.Context, ep *Endpoint, r *http.Request, err error) (*Response, error) {
	failure := Classify(err)
	if failure.Kind == InternalFailure {
		rt.logs.LogInternalFailure(ep.Name, failure.Cause)
		for _, report := range rt.reporters {
			report(ctx, rt, failure.Cause)
		}
	}

	return rt.render(r, failure.Status, failure.Body())
}

// render encodes v in the format the client prefers.
func (rt *Router) render(r *http.Request, status int, v any) (*Response, error) {
	data, contentType, err := rt.codecs.Encode(r, v)
	if err != nil {
		return nil, errors.Wrap(err, "render response")
	}

	return &Response{Status: status, Body: data, ContentType: contentType}, nil
}

// endpointMethod returns the method the request was routed by. The standard router also
// routes HEAD requests to GET routes.
func endpointMethod(ep *Endpoint, r *http.Request) string {
	if r.Method == http.MethodHead {
		return http.MethodGet
	}

	for _, m := range ep.Methods {
		if m == r.Method {
			return m
		}
	}

	return ep.Methods[0]
}
