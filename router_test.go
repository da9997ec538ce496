package bapi_test

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/advdv/bapi"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type createItem struct {
	Name  string `json:"name" validate:"required" doc:"Display name of the item"`
	Count int    `json:"count" default:"1"`
}

type itemOut struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type listOut struct {
	Limit int      `json:"limit"`
	Tags  []string `json:"tags"`
}

type inventory struct {
	mu    sync.Mutex
	items map[string]itemOut
}

// newInventory inits a router with a small item api on top of an in-memory store.
func newInventory(t *testing.T, opts ...bapi.Option) (*bapi.Router, *bapi.TestLogger) {
	t.Helper()

	logs := bapi.NewTestLogger(t)
	rt := bapi.New("Inventory", "1.0.0", append([]bapi.Option{bapi.WithLogger(logs)}, opts...)...)
	inv := &inventory{items: map[string]itemOut{"a": {ID: "a", Name: "foo", Count: 1}}}

	bapi.Get(rt, "/items/{id}", "get_item", func(_ context.Context, in *bapi.Input[bapi.NoBody]) (*itemOut, error) {
		inv.mu.Lock()
		defer inv.mu.Unlock()

		item, ok := inv.items[bapi.MustArg[string](in.Args, "id")]
		if !ok {
			return nil, bapi.ErrNotFound()
		}

		return &item, nil
	}, bapi.WithParams(bapi.NewParam("id", bapi.String)), bapi.WithTags("items"), bapi.WithSummary("Get an item"))

	bapi.Get(rt, "/items", "list_items", func(_ context.Context, in *bapi.Input[bapi.NoBody]) (*listOut, error) {
		return &listOut{
			Limit: bapi.MustArg[int](in.Args, "limit"),
			Tags:  bapi.MustArg[[]string](in.Args, "tag"),
		}, nil
	}, bapi.WithParams(
		bapi.NewParam("limit", bapi.Int, bapi.WithDefault(10), bapi.WithDescription("Page size")),
		bapi.NewParam("tag", bapi.StringList, bapi.WithDefault([]string{})),
	), bapi.WithAuth(false))

	bapi.Post(rt, "/items", "create_item", func(_ context.Context, in *bapi.Input[createItem]) (*itemOut, error) {
		inv.mu.Lock()
		defer inv.mu.Unlock()

		switch in.Body.Name {
		case "boom":
			return nil, errors.New("db down")
		case "panic":
			panic("kaboom")
		}

		id := strings.ToLower(in.Body.Name)
		if _, exists := inv.items[id]; exists {
			return nil, bapi.ErrConflict("already exists")
		}

		item := itemOut{ID: id, Name: in.Body.Name, Count: in.Body.Count}
		inv.items[id] = item

		return &item, nil
	}, bapi.WithTags("items"), bapi.WithDoc("Creates an item."))

	bapi.Put(rt, "/items/{id}", "replace_item", func(_ context.Context, in *bapi.Input[createItem]) (*itemOut, error) {
		return &itemOut{ID: bapi.MustArg[string](in.Args, "id"), Name: in.Body.Name}, nil
	}, bapi.WithParams(bapi.NewParam("id", bapi.String)), bapi.WithStatus(http.StatusOK))

	bapi.Delete(rt, "/items/{id}", "delete_item", func(_ context.Context, in *bapi.Input[bapi.NoBody]) (*bapi.NoContent, error) {
		inv.mu.Lock()
		defer inv.mu.Unlock()

		delete(inv.items, bapi.MustArg[string](in.Args, "id"))
		return nil, nil
	}, bapi.WithParams(bapi.NewParam("id", bapi.String)))

	bapi.Get(rt, "/search", "search", func(_ context.Context, in *bapi.Input[bapi.NoBody]) (*listOut, error) {
		q, err := bapi.Arg[string](in.Args, "q")
		if err != nil {
			return nil, err
		}

		return &listOut{Tags: []string{q}}, nil
	}, bapi.WithParams(bapi.NewParam("q", bapi.String)), bapi.WithPrivate())

	return rt, logs
}

func do(hdlr http.Handler, method, target, body string, hdrs ...string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rdr)
	for i := 0; i+1 < len(hdrs); i += 2 {
		req.Header.Set(hdrs[i], hdrs[i+1])
	}

	rec := httptest.NewRecorder()
	hdlr.ServeHTTP(rec, req)

	return rec
}

func TestRouterSuccess(t *testing.T) {
	rt, _ := newInventory(t)

	t.Run("get", func(t *testing.T) {
		rec := do(rt, http.MethodGet, "/items/a", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, bapi.MediaTypeJSON, rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"id":"a","name":"foo","count":1}`, rec.Body.String())
	})

	t.Run("head", func(t *testing.T) {
		rec := do(rt, http.MethodHead, "/items/a", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("defaults", func(t *testing.T) {
		rec := do(rt, http.MethodGet, "/items", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"limit":10,"tags":[]}`, rec.Body.String())
	})

	t.Run("query", func(t *testing.T) {
		rec := do(rt, http.MethodGet, "/items?limit=5&tag=x&tag=y", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"limit":5,"tags":["x","y"]}`, rec.Body.String())
	})

	t.Run("post", func(t *testing.T) {
		rec := do(rt, http.MethodPost, "/items", `{"name":"Bar","count":3}`, "Content-Type", bapi.MediaTypeJSON)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "bar", gjson.Get(rec.Body.String(), "id").String())
		require.Equal(t, int64(3), gjson.Get(rec.Body.String(), "count").Int())
	})

	t.Run("post yaml", func(t *testing.T) {
		rec := do(rt, http.MethodPost, "/items", "name: Dee\ncount: 2\n",
			"Content-Type", bapi.MediaTypeYAML, "Accept", bapi.MediaTypeYAML)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, bapi.MediaTypeYAML, rec.Header().Get("Content-Type"))
		require.Equal(t, "count: 2\nid: dee\nname: Dee\n", rec.Body.String())
	})

	t.Run("put with status override", func(t *testing.T) {
		rec := do(rt, http.MethodPut, "/items/a", `{"name":"Baz"}`, "Content-Type", "application/json; charset=utf-8")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"id":"a","name":"Baz","count":0}`, rec.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(rt, http.MethodDelete, "/items/a", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())

		rec = do(rt, http.MethodGet, "/items/a", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"code":404,"name":"Not Found"}`, rec.Body.String())
	})

	t.Run("jsonp", func(t *testing.T) {
		rec := do(rt, http.MethodGet, "/items?callback=cb", "", "Accept", bapi.MediaTypeJavaScript)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, bapi.MediaTypeJavaScript, rec.Header().Get("Content-Type"))
		require.Equal(t, `cb({"limit":10,"tags":[]})`, rec.Body.String())
	})
}

func TestRouterBadRequest(t *testing.T) {
	rt, logs := newInventory(t)

	for _, tt := range []struct {
		name    string
		method  string
		target  string
		body    string
		ct      string
		expName string
	}{
		{"unknown content type", http.MethodPost, "/items", `name=foo`, "text/plain", "Unknown content type text/plain"},
		{"malformed body", http.MethodPost, "/items", `{"name":`, bapi.MediaTypeJSON, "Malformed request body"},
		{"not a mapping", http.MethodPost, "/items", `["foo"]`, bapi.MediaTypeJSON, "Request body must be a mapping"},
		{"invalid param", http.MethodGet, "/items?limit=abc", "", "", `Invalid value for "limit"`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(rt, tt.method, tt.target, tt.body, "Content-Type", tt.ct)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := gjson.Parse(rec.Body.String())
			require.Equal(t, int64(400), body.Get("code").Int())
			require.Equal(t, tt.expName, body.Get("name").String())
			require.Equal(t, gjson.Null, body.Get("errors").Type)
		})
	}

	require.Equal(t, int64(0), logs.NumLogInternalFailure)
}

func TestRouterValidation(t *testing.T) {
	rt, _ := newInventory(t)

	t.Run("missing field", func(t *testing.T) {
		rec := do(rt, http.MethodPost, "/items", `{"count":1}`, "Content-Type", bapi.MediaTypeJSON)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{
			"code": 400,
			"name": "Bad request. See errors for details.",
			"errors": [{"loc": ["name"], "msg": "field required", "type": "value_error.missing"}]
		}`, rec.Body.String())
	})

	t.Run("wrong type", func(t *testing.T) {
		rec := do(rt, http.MethodPost, "/items", `{"name":"foo","count":"many"}`, "Content-Type", bapi.MediaTypeJSON)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `[{"loc": ["count"], "msg": "value is not a valid integer", "type": "type_error.integer"}]`,
			gjson.Get(rec.Body.String(), "errors").Raw)
	})

	t.Run("conflict", func(t *testing.T) {
		rec := do(rt, http.MethodPost, "/items", `{"name":"A"}`, "Content-Type", bapi.MediaTypeJSON)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.JSONEq(t, `{"code":409,"name":"already exists"}`, rec.Body.String())
	})
}

type gadget struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

func (g gadget) Validate() error {
	if g.Min > g.Max {
		return bapi.NewValidationError(bapi.FieldError{Loc: []string{"min"}, Msg: "exceeds max", Type: "value_error.range"})
	}

	if g.Name == "nope" {
		return errors.New("name is reserved")
	}

	return nil
}

func TestRouterValidateHook(t *testing.T) {
	rt := bapi.New("Gadgets", "1.0.0", bapi.WithLogger(bapi.NewTestLogger(t)), bapi.WithoutDocs())
	bapi.Post(rt, "/gadgets", "create_gadget", func(_ context.Context, in *bapi.Input[gadget]) (*gadget, error) {
		return in.Body, nil
	})

	rec := do(rt, http.MethodPost, "/gadgets", `{"name":"g","min":3,"max":1}`, "Content-Type", bapi.MediaTypeJSON)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `[{"loc":["min"],"msg":"exceeds max","type":"value_error.range"}]`,
		gjson.Get(rec.Body.String(), "errors").Raw)

	rec = do(rt, http.MethodPost, "/gadgets", `{"name":"nope"}`, "Content-Type", bapi.MediaTypeJSON)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `[{"loc":["__root__"],"msg":"name is reserved","type":"value_error"}]`,
		gjson.Get(rec.Body.String(), "errors").Raw)

	rec = do(rt, http.MethodPost, "/gadgets", `{"name":"g","min":1,"max":3}`, "Content-Type", bapi.MediaTypeJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterInternalFailure(t *testing.T) {
	rt, logs := newInventory(t)

	var reported []string
	rt.RegisterExceptionReporter(func(_ context.Context, _ *bapi.Router, err error) {
		reported = append(reported, "first: "+err.Error())
	})
	rt.RegisterExceptionReporter(func(_ context.Context, _ *bapi.Router, err error) {
		reported = append(reported, "second: "+err.Error())
	})

	rec := do(rt, http.MethodPost, "/items", `{"name":"boom"}`, "Content-Type", bapi.MediaTypeJSON)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"code":500,"name":"Internal server error. Assume request failed. Please try again"}`,
		rec.Body.String())
	require.Equal(t, []string{"first: db down", "second: db down"}, reported)

	rec = do(rt, http.MethodPost, "/items", `{"name":"panic"}`, "Content-Type", bapi.MediaTypeJSON)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, reported, 4)
	require.Contains(t, reported[2], "kaboom")

	require.Equal(t, int64(2), logs.NumLogInternalFailure)
	require.Equal(t, int64(0), logs.NumLogUnhandledServeError)
}

type measurement struct {
	Value float64 `json:"value"`
}

func TestRouterUnencodableResult(t *testing.T) {
	logs := bapi.NewTestLogger(t)
	rt := bapi.New("Sensors", "1.0.0", bapi.WithLogger(logs))
	bapi.Get(rt, "/measurement", "get_measurement",
		func(context.Context, *bapi.Input[bapi.NoBody]) (*measurement, error) {
			return &measurement{Value: math.NaN()}, nil
		}, bapi.WithAuth(false))

	var reported []error
	rt.RegisterExceptionReporter(func(_ context.Context, _ *bapi.Router, err error) {
		reported = append(reported, err)
	})

	rec := do(rt, http.MethodGet, "/measurement", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, bapi.MediaTypeJSON, rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"code":500,"name":"Internal server error. Assume request failed. Please try again"}`,
		rec.Body.String())

	rec = do(rt, http.MethodGet, "/measurement", "", "Accept", bapi.MediaTypeYAML)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, bapi.MediaTypeYAML, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "code: 500")

	require.Len(t, reported, 2)
	require.ErrorContains(t, reported[0], "unsupported value: NaN")
	require.Equal(t, int64(2), logs.NumLogInternalFailure)
	require.Equal(t, int64(0), logs.NumLogUnhandledServeError)
}

func TestRouterMissingParam(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		rt, logs := newInventory(t)

		var reported error
		rt.RegisterExceptionReporter(func(_ context.Context, _ *bapi.Router, err error) { reported = err })

		rec := do(rt, http.MethodGet, "/search", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.ErrorIs(t, reported, bapi.ErrMissingArgument)
		require.Equal(t, int64(1), logs.NumLogInternalFailure)

		rec = do(rt, http.MethodGet, "/search?q=foo", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"limit":0,"tags":["foo"]}`, rec.Body.String())
	})

	t.Run("strict", func(t *testing.T) {
		rt, logs := newInventory(t, bapi.WithStrictParams())

		rec := do(rt, http.MethodGet, "/search", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, `Missing value for "q"`, gjson.Get(rec.Body.String(), "name").String())
		require.Equal(t, int64(0), logs.NumLogInternalFailure)
	})
}

func TestRouterRouteFailure(t *testing.T) {
	rt, _ := newInventory(t)

	rec := do(rt, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"code":404,"name":"Not Found"}`, rec.Body.String())

	rec = do(rt, http.MethodGet, "/nope", "", "Accept", bapi.MediaTypeYAML)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "code: 404\nname: Not Found\n", rec.Body.String())

	rec = do(rt, http.MethodPatch, "/items", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.JSONEq(t, `{"code":405,"name":"Method Not Allowed"}`, rec.Body.String())
	require.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
}

func TestRouterMiddleware(t *testing.T) {
	rt, _ := newInventory(t, bapi.WithMiddleware(func(next bapi.BareHandler) bapi.BareHandler {
		return bapi.BareHandlerFunc(func(w bapi.ResponseWriter, r *http.Request) error {
			w.Header().Set("X-Api", "inventory")
			return next.ServeBareBHTTP(w, r)
		})
	}))

	for _, target := range []string{"/items/a", "/nope", "/openapi.json"} {
		rec := do(rt, http.MethodGet, target, "")
		assert.Equal(t, "inventory", rec.Header().Get("X-Api"), target)
	}
}

func TestHandleReturnsEndpointHandler(t *testing.T) {
	rt := bapi.New("Direct", "1.0.0", bapi.WithLogger(bapi.NewTestLogger(t)))
	hdlr := bapi.Get(rt, "/ping", "ping", func(context.Context, *bapi.Input[bapi.NoBody]) (*itemOut, error) {
		return &itemOut{ID: "pong"}, nil
	})

	rec := do(hdlr, http.MethodGet, "/anything", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pong", gjson.Get(rec.Body.String(), "id").String())

	url, err := rt.Reverse("ping")
	require.NoError(t, err)
	require.Equal(t, "/ping", url)
}
