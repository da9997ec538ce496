package bapi

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Kind is the primitive type of a declared parameter. The set is closed, the zero value is
// invalid and rejected at registration.
type Kind int

const (
	kindInvalid Kind = iota
	String
	UUID
	Int
	Number
	Bool
	StringList
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case UUID:
		return "uuid"
	case Int:
		return "int"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case StringList:
		return "string_list"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool { return k >= String && k <= StringList }

// GoType returns the type that values of the kind are bound as.
func (k Kind) GoType() reflect.Type {
	switch k {
	case String:
		return reflect.TypeFor[string]()
	case UUID:
		return reflect.TypeFor[uuid.UUID]()
	case Int:
		return reflect.TypeFor[int]()
	case Number:
		return reflect.TypeFor[float64]()
	case Bool:
		return reflect.TypeFor[bool]()
	case StringList:
		return reflect.TypeFor[[]string]()
	default:
		return nil
	}
}

// Coerce converts raw request values into the Go type of the kind. Only [StringList] looks at
// more than the first value.
func (k Kind) Coerce(vals []string) (any, error) {
	if k == StringList {
		return append([]string{}, vals...), nil
	}

	if len(vals) < 1 {
		return nil, errors.New("no value")
	}

	raw := vals[0]
	switch k {
	case String:
		return raw, nil
	case UUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse uuid")
		}
		return v, nil
	case Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse int")
		}
		return v, nil
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parse number")
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse bool")
		}
		return v, nil
	default:
		return nil, errors.Newf("parameter without a type: %s", k)
	}
}

// Source is where a parameter is read from.
type Source string

const (
	SourcePath  Source = "path"
	SourceQuery Source = "query"
)

// Presence tells whether a parameter must be provided or what it defaults to.
type Presence struct {
	required bool
	def      any
}

// Required marks a parameter that has no default.
func Required() Presence { return Presence{required: true} }

// Optional marks a parameter that binds def when absent from the request. A nil def leaves
// the parameter unbound.
func Optional(def any) Presence { return Presence{def: def} }

// IsRequired reports whether the parameter has no default.
func (p Presence) IsRequired() bool { return p.required }

// Default returns the default value, if any.
func (p Presence) Default() (any, bool) {
	if p.required || p.def == nil {
		return nil, false
	}
	return p.def, true
}

// Param declares a named, typed parameter of an endpoint.
type Param struct {
	Name        string
	Kind        Kind
	Presence    Presence
	Description string

	// Source is decided at registration: wildcards of the route are path parameters, all
	// other parameters are read from the query string.
	Source Source
}

// ParamOption configures a [Param].
type ParamOption func(*Param)

// WithDefault makes the parameter optional with the given default.
func WithDefault(v any) ParamOption {
	return func(p *Param) { p.Presence = Optional(v) }
}

// WithOptional makes the parameter optional without a default.
func WithOptional() ParamOption {
	return func(p *Param) { p.Presence = Optional(nil) }
}

// WithDescription documents the parameter.
func WithDescription(s string) ParamOption {
	return func(p *Param) { p.Description = s }
}

// NewParam declares a parameter. Without options it is required.
func NewParam(name string, kind Kind, opts ...ParamOption) Param {
	p := Param{Name: name, Kind: kind, Presence: Required()}
	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// check returns an error if the parameter can not be bound at request time.
func (p Param) check() error {
	if !p.Kind.Valid() {
		return errors.Newf("parameter %q without a type", p.Name)
	}

	def, ok := p.Presence.Default()
	if !ok {
		return nil
	}

	if got, want := reflect.TypeOf(def), p.Kind.GoType(); got != want {
		return errors.Newf("default of parameter %q must be a %s, got: %s", p.Name, want, got)
	}

	return nil
}

// ErrMissingArgument is returned when a handler reads an argument that was not bound.
var ErrMissingArgument = errors.New("missing argument")

// Args holds the bound parameter values of a request, by parameter name.
type Args map[string]any

// Arg returns the bound value of the named parameter. It returns an error wrapping
// [ErrMissingArgument] when the parameter was not bound.
func Arg[T any](args Args, name string) (T, error) {
	var zero T

	raw, ok := args[name]
	if !ok {
		return zero, errors.Wrapf(ErrMissingArgument, "%q", name)
	}

	v, ok := raw.(T)
	if !ok {
		return zero, errors.Newf("argument %q is a %T, not a %T", name, raw, zero)
	}

	return v, nil
}

// MustArg is like [Arg] but panics on error. The panic is recovered by the router and
// answered as an internal failure.
func MustArg[T any](args Args, name string) T {
	v, err := Arg[T](args, name)
	if err != nil {
		panic(err)
	}

	return v
}

// LookupArg returns the bound value of the named parameter and whether it was bound.
func LookupArg[T any](args Args, name string) (T, bool) {
	v, err := Arg[T](args, name)
	return v, err == nil
}
