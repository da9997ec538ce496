// Package bapi declares typed HTTP endpoints on top of the standard library router and derives
// both request handling and an OpenAPI 3 description from the same declaration.
//
// # Overview
//
// An endpoint is declared once: its path, methods, body type, result type, parameters and
// documentation. From that declaration the [Router] binds and validates every request, renders
// every response in the format the client asks for and describes the API:
//
//	type Item struct {
//	    ID   string `json:"id"`
//	    Name string `json:"name" validate:"required" doc:"Display name"`
//	}
//
//	rt := bapi.New("Inventory", "1.0.0")
//	bapi.Get(rt, "/items/{id}", "get_item", func(ctx context.Context, in *bapi.Input[bapi.NoBody]) (*Item, error) {
//	    item, ok := items[bapi.MustArg[string](in.Args, "id")]
//	    if !ok {
//	        return nil, bapi.ErrNotFound()
//	    }
//	    return item, nil
//	}, bapi.WithParams(bapi.NewParam("id", bapi.String)), bapi.WithTags("items"))
//
//	http.ListenAndServe(":8080", rt)
//
// # Registration
//
// [Handle] and its shorthands [Get], [Post], [Put], [Patch] and [Delete] register typed
// handlers. A mistake in a declaration is a programming error and panics at startup: a name that
// is already taken, a parameter without a [Kind], a default of the wrong type, a path wildcard
// without a declared parameter or a method outside GET, POST, PUT, PATCH and DELETE.
//
// Parameters named after a path wildcard are read from the path, all other parameters from the
// query string. [StringList] parameters take every value of a query key, other kinds the first.
//
// # Request Binding
//
// The body is decoded with the decoder for the request's Content-Type, must be a mapping and is
// then turned into the body type through its json tags. Struct tags of the validator
// (`validate:"..."`) and an optional Validate method check the result. Field problems are
// answered with a 400 that lists them:
//
//	{"code": 400, "name": "Bad request. See errors for details.",
//	 "errors": [{"loc": ["name"], "msg": "field required", "type": "value_error.missing"}]}
//
// A request that can not be understood at all, an unknown content type, a malformed body or a
// parameter value that does not coerce, is answered with a 400 without field errors.
//
// # Responses and Errors
//
// A successful call responds with 200 for GET, 201 for POST, 202 for PUT and PATCH and 204 for
// DELETE, unless [WithStatus] says otherwise. A nil result or the [NoContent] result type
// respond without a body.
//
// Errors returned by handlers are classified by [Classify]:
//
//   - [*ValidationError] and the errors of the validator become a 400 with field errors
//   - [*Error] (see [NewError] and helpers like [ErrNotFound]) responds with its code and message
//   - Everything else responds with a 500 and a generic message. Reporters registered with
//     [Router.RegisterExceptionReporter] are told about the error, the client never is.
//
// Requests that match no route get the same treatment: a negotiated {"code": 404, "name": "Not
// Found"} body, or a 405 that keeps the Allow header.
//
// # Content Negotiation
//
// Responses are encoded as JSON, JavaScript or YAML, picked from the Accept header with
// quality values. JSON is the default. A "callback" query parameter wraps JSON responses in a
// function call. Request bodies can be JSON or YAML. [WithEncoder] and [WithDecoder] add formats.
//
// # API Description
//
// [Router.OpenAPI] describes every endpoint that was not registered with [WithPrivate]. Record
// types are reflected into component schemas using their json tags, `validate:"required"`
// marks required fields, `doc:"..."` adds descriptions and `default:"..."` defaults. The router
// serves the description at /openapi.json and /openapi.yaml and renders it with Swagger UI at
// /docs/ and ReDoc at /redoc/.
//
// # Buffered Response Writer
//
// Underneath, handlers write to a [ResponseWriter] that buffers output. All writes are held in
// memory until explicitly flushed or until the handler returns successfully. This enables
// complete response replacement when errors occur mid-handler.
//
// Key methods:
//   - [ResponseWriter.Reset] clears the buffer and headers for a fresh response
//   - [ResponseWriter.FlushBuffer] writes buffered content to the underlying writer
//   - [ResponseWriter.Free] returns the buffer to a pool (called automatically by the mux)
//
// # ServeMux
//
// [ServeMux] is the router the typed endpoints are mounted on. It can also be used on its own
// with error-returning handlers:
//
//	mux := bapi.NewServeMux()
//	mux.HandleFunc("GET /items/{id}", func(ctx context.Context, w bapi.ResponseWriter, r *http.Request) error {
//	    item, err := db.GetItem(r.PathValue("id"))
//	    if err != nil {
//	        return bapi.NewError(bapi.CodeNotFound, err)
//	    }
//	    return json.NewEncoder(w).Encode(item)
//	}, "get-item")
//
//   - [ServeMux.Use] registers middleware (must be called before Handle)
//   - [ServeMux.Handle] and [ServeMux.HandleFunc] register routes
//   - [ServeMux.HandleMethods] registers one path for several methods under one name
//   - [ServeMux.Reverse] generates URLs for named routes
//   - [ServeMux.Rules] lists the registered routes
//
// # Standard library handlers and error ownership
//
// [ServeMux.HandleStd] mounts a plain http.Handler. Such handlers own their error responses: what
// they write is sent as is, middleware still applies.
//
// # Middleware
//
// Middleware wraps handlers to add cross-cutting concerns. The [Middleware] type
// operates on [BareHandler]:
//
//	func loggingMiddleware(next bapi.BareHandler) bapi.BareHandler {
//	    return bapi.BareHandlerFunc(func(w bapi.ResponseWriter, r *http.Request) error {
//	        start := time.Now()
//	        err := next.ServeBareBHTTP(w, r)
//	        log.Printf("%s %s took %v", r.Method, r.URL.Path, time.Since(start))
//	        return err
//	    })
//	}
//
//	rt := bapi.New("Inventory", "1.0.0", bapi.WithMiddleware(loggingMiddleware))
package bapi
