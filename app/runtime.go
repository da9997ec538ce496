package app

import (
	"net/http"

	"github.com/advdv/bapi"
	"github.com/carlmjohnson/requests"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into the routing function, or handler constructors, via fx instead of pulling
// from context.
//
// Example:
//
//	func routing(rt *app.Runtime[Env]) {
//	    bapi.Get(rt.Router(), "/items/{id}", "get_item", func(ctx context.Context, in *bapi.Input[bapi.NoBody]) (*Item, error) {
//	        var item Item
//	        err := rt.NewRequest(rt.Env().UpstreamURL).Path(bapi.MustArg[string](in.Args, "id")).ToJSON(&item).Fetch(ctx)
//	        return &item, err
//	    }, bapi.WithParams(bapi.NewParam("id", bapi.String)))
//	}
type Runtime[E Environment] struct {
	env       E
	router    *bapi.Router
	transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, router *bapi.Router, transport http.RoundTripper) *Runtime[E] {
	return &Runtime[E]{
		env:       env,
		router:    router,
		transport: transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Router returns the router endpoints are registered on.
func (r *Runtime[E]) Router() *bapi.Router {
	return r.router
}

// Reverse returns the URL for a named route with the given parameters.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.router.Reverse(name, params...)
}

// NewRequest starts an outbound request to url. Requests are traced and propagate the trace
// context of the ctx they are fetched with.
func (r *Runtime[E]) NewRequest(url string) *requests.Builder {
	return newRequestBuilder(r.transport, url)
}
