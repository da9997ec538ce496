package bapi

import (
	"net/http"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
)

// ErrDuplicateEndpoint is returned when an endpoint name is registered twice.
var ErrDuplicateEndpoint = errors.New("endpoint already registered")

// defaultStatus is the success status per method, unless an endpoint overrides it.
var defaultStatus = map[string]int{
	http.MethodGet:    http.StatusOK,
	http.MethodPost:   http.StatusCreated,
	http.MethodPut:    http.StatusAccepted,
	http.MethodPatch:  http.StatusAccepted,
	http.MethodDelete: http.StatusNoContent,
}

// Endpoint describes a registered endpoint. It is built at registration and never changed.
type Endpoint struct {
	Name    string
	Methods []string
	Params  []Param

	// Body is the type of the request body, nil if the endpoint takes no body.
	Body reflect.Type
	// Result is the type of the response body, nil if the endpoint responds without content.
	Result reflect.Type

	Tags         []string
	Summary      string
	Doc          string
	RequiresAuth bool

	// Status overrides the success status of every method when non-zero.
	Status int

	// Private endpoints are served but left out of the API description.
	Private bool
}

// SuccessStatus returns the status a successful call with the given method responds with.
func (e *Endpoint) SuccessStatus(method string) int {
	if e.Status != 0 {
		return e.Status
	}

	return defaultStatus[method]
}

// Param returns the declared parameter with the given name.
func (e *Endpoint) Param(name string) (Param, bool) {
	idx := slices.IndexFunc(e.Params, func(p Param) bool { return p.Name == name })
	if idx < 0 {
		return Param{}, false
	}

	return e.Params[idx], true
}

// Registry holds the endpoint descriptors by name, in registration order. It is written while
// routes are declared and only read once serving starts, so it is not guarded by a lock.
type Registry struct {
	byName map[string]*Endpoint
	order  []string
}

// NewRegistry inits an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Endpoint{}}
}

// Add stores the endpoint, it fails when the name is taken.
func (r *Registry) Add(ep *Endpoint) error {
	if _, exists := r.byName[ep.Name]; exists {
		return errors.Wrapf(ErrDuplicateEndpoint, "%q", ep.Name)
	}

	r.byName[ep.Name] = ep
	r.order = append(r.order, ep.Name)

	return nil
}

// Get returns the endpoint registered under name.
func (r *Registry) Get(name string) (*Endpoint, bool) {
	ep, ok := r.byName[name]
	return ep, ok
}

// Endpoints returns all endpoints in registration order.
func (r *Registry) Endpoints() []*Endpoint {
	eps := make([]*Endpoint, 0, len(r.order))
	for _, name := range r.order {
		eps = append(eps, r.byName[name])
	}

	return eps
}
