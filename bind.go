package bapi

import (
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/cockroachdb/errors"
)

// Input is what a typed handler receives: the decoded and validated body (nil when the
// endpoint takes no body), the bound parameter values and the request itself.
type Input[B any] struct {
	Body    *B
	Args    Args
	Request *http.Request
}

// bind reads the body and then every declared parameter, in declaration order. The first
// problem is returned as a [*Failure].
func bind[B any](rt *Router, ep *Endpoint, r *http.Request) (*Input[B], error) {
	in := &Input[B]{Args: Args{}, Request: r}

	if ep.Body != nil {
		body, err := bindBody[B](rt, r)
		if err != nil {
			return nil, err
		}

		in.Body = body
	}

	query := r.URL.Query()
	for _, param := range ep.Params {
		var (
			vals    []string
			present bool
		)

		switch param.Source {
		case SourcePath:
			vals, present = []string{r.PathValue(param.Name)}, true
		default:
			vals, present = query[param.Name]
		}

		if present && len(vals) > 0 {
			val, err := param.Kind.Coerce(vals)
			if err != nil {
				return nil, newBadRequest(fmt.Sprintf("Invalid value for %q", param.Name), err)
			}

			in.Args[param.Name] = val
			continue
		}

		if def, ok := param.Presence.Default(); ok {
			if list, isList := def.([]string); isList {
				def = slices.Clone(list)
			}

			in.Args[param.Name] = def
			continue
		}

		// a required parameter that is missing stays unbound unless strict mode is on, the
		// handler reading it then fails with ErrMissingArgument.
		if param.Presence.IsRequired() && rt.strictParams {
			return nil, newBadRequest(fmt.Sprintf("Missing value for %q", param.Name), nil)
		}
	}

	return in, nil
}

func bindBody[B any](rt *Router, r *http.Request) (*B, error) {
	contentType := r.Header.Get("Content-Type")

	dec, ok := rt.codecs.Decoder(contentType)
	if !ok {
		return nil, newBadRequest(fmt.Sprintf("Unknown content type %s", contentType), nil)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, newBadRequest("Malformed request body", errors.Wrap(err, "read body"))
	}

	data, err := dec.Decode(raw)
	if err != nil {
		return nil, newBadRequest("Malformed request body", err)
	}

	mapping, ok := data.(map[string]any)
	if !ok {
		return nil, newBadRequest("Request body must be a mapping", nil)
	}

	return decodeRecord[B](rt.validate, mapping)
}
