package bapi

import (
	"net/http"
	"reflect"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/samber/lo"
)

// Names of the security schemes every authenticated operation requires.
const (
	SecurityBearerAuth = "bearerAuth"
	SecurityAPIKeyAuth = "apiKeyAuth"
)

// the order in which methods of a rule are described.
var describedMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// OpenAPI describes every public endpoint. The serverURL is listed as the only server, it is
// usually derived from the request for the document, see [ServerURL].
func (rt *Router) OpenAPI(serverURL string) (*openapi3.T, error) {
	gen := newSchemaGenerator()
	schemas := openapi3.Schemas{}

	addSchema := func(t reflect.Type) (*openapi3.SchemaRef, error) {
		name := schemaName(t)
		if existing, ok := schemas[name]; ok {
			return openapi3.NewSchemaRef("#/components/schemas/"+name, existing.Value), nil
		}

		schema, err := recordSchema(gen, t)
		if err != nil {
			return nil, err
		}

		schemas[name] = openapi3.NewSchemaRef("", schema)

		return openapi3.NewSchemaRef("#/components/schemas/"+name, schema), nil
	}

	for _, t := range []reflect.Type{
		reflect.TypeFor[ValidationErrorResponse](),
		reflect.TypeFor[FieldError](),
		reflect.TypeFor[HTTPErrorResponse](),
	} {
		if _, err := addSchema(t); err != nil {
			return nil, err
		}
	}

	paths := openapi3.NewPaths()
	for _, rule := range rt.mux.Rules() {
		ep, ok := rt.registry.Get(rule.Name)
		if !ok || ep.Private {
			continue
		}

		item := paths.Value(rule.Template)
		if item == nil {
			item = &openapi3.PathItem{}
			paths.Set(rule.Template, item)
		}

		for _, method := range describedMethods {
			if !slices.Contains(rule.Methods, method) {
				continue
			}

			op, err := rt.describeOperation(ep, method, addSchema)
			if err != nil {
				return nil, errors.Wrapf(err, "describe %s %s", method, rule.Template)
			}

			item.SetOperation(method, op)
		}
	}

	return &openapi3.T{
		OpenAPI: rt.openapiVersion,
		Info:    &openapi3.Info{Title: rt.title, Version: rt.version},
		Servers: openapi3.Servers{{URL: serverURL}},
		Paths:   paths,
		Components: &openapi3.Components{
			Schemas: schemas,
			SecuritySchemes: openapi3.SecuritySchemes{
				SecurityBearerAuth: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
				SecurityAPIKeyAuth: &openapi3.SecuritySchemeRef{Value: openapi3.NewSecurityScheme().
					WithType("apiKey").
					WithIn("header").
					WithName("X-API-Key")},
			},
		},
	}, nil
}

func (rt *Router) describeOperation(
	ep *Endpoint, method string, addSchema func(reflect.Type) (*openapi3.SchemaRef, error),
) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = ep.Name
	op.Summary = ep.Summary
	op.Description = ep.Doc
	op.Tags = slices.Clone(ep.Tags)

	op.AddParameter(openapi3.NewHeaderParameter("Accept").
		WithDescription("Request use of a particular data serialization.").
		WithSchema(openapi3.NewStringSchema().
			WithEnum(lo.ToAnySlice(rt.codecs.EncoderTypes())...).
			WithDefault(MediaTypeJSON)))

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		op.AddParameter(openapi3.NewHeaderParameter("Content-Type").
			WithDescription("The data format that the request body is serialized in.").
			WithRequired(true).
			WithSchema(openapi3.NewStringSchema().
				WithEnum(lo.ToAnySlice(rt.codecs.DecoderTypes())...)))
	}

	for _, param := range ep.Params {
		schema, err := kindSchema(param.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", param.Name)
		}

		if def, ok := param.Presence.Default(); ok {
			schema.Default = def
		}

		var p *openapi3.Parameter
		if param.Source == SourcePath {
			p = openapi3.NewPathParameter(param.Name)
		} else {
			p = openapi3.NewQueryParameter(param.Name)
		}

		op.AddParameter(p.WithDescription(param.Description).WithSchema(schema))
	}

	if ep.Body != nil {
		ref, err := addSchema(ep.Body)
		if err != nil {
			return nil, err
		}

		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithContent(rt.content(ref))}
	}

	bad, err := addSchema(reflect.TypeFor[ValidationErrorResponse]())
	if err != nil {
		return nil, err
	}

	success := &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("No content")}
	if ep.Result != nil {
		ref, err := addSchema(ep.Result)
		if err != nil {
			return nil, err
		}

		success = &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("").
			WithContent(rt.content(ref))}
	}

	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Bad request").
			WithContent(rt.content(bad))}),
		openapi3.WithStatus(http.StatusUnauthorized, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Unauthorized")}),
		openapi3.WithStatus(http.StatusForbidden, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Forbidden")}),
		openapi3.WithStatus(http.StatusInternalServerError, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription(MessageInternal)}),
	)
	op.Responses.Set(strconv.Itoa(ep.SuccessStatus(method)), success)

	if ep.RequiresAuth {
		op.Security = openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().
			Authenticate(SecurityBearerAuth).
			Authenticate(SecurityAPIKeyAuth))
	}

	return op, nil
}

// content lists the schema once for every encoder type.
func (rt *Router) content(ref *openapi3.SchemaRef) openapi3.Content {
	content := openapi3.Content{}
	for _, ct := range rt.codecs.EncoderTypes() {
		content[ct] = openapi3.NewMediaType().WithSchemaRef(ref)
	}

	return content
}

// ServerURL returns the scheme and host the request was made to. Behind a proxy the scheme
// is taken from the X-Forwarded-Proto header.
func ServerURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}
