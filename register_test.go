package bapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/advdv/bapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *bapi.Input[bapi.NoBody]) (*bapi.NoContent, error) { return nil, nil }

func panicMessage(f func()) (msg string) {
	defer func() { msg = fmt.Sprint(recover()) }()
	f()

	return ""
}

func TestRegisterPanics(t *testing.T) {
	for _, tt := range []struct {
		name   string
		fn     func(rt *bapi.Router)
		expMsg string
	}{
		{"no name", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "", noop)
		}, `bapi: endpoint without a name`},
		{"no methods", func(rt *bapi.Router) {
			bapi.Handle(rt, nil, "/x", "x", noop)
		}, `bapi: endpoint "x" without methods`},
		{"unsupported method", func(rt *bapi.Router) {
			bapi.Handle(rt, []string{"TRACE"}, "/x", "x", noop)
		}, `bapi: endpoint "x": unsupported method "TRACE"`},
		{"method in rule", func(rt *bapi.Router) {
			bapi.Get(rt, "GET /x", "x", noop)
		}, `bapi: endpoint "x": rule "GET /x" must not include a method`},
		{"invalid rule", func(rt *bapi.Router) {
			bapi.Get(rt, "/x/{", "x", noop)
		}, `bapi: endpoint "x": invalid rule`},
		{"param without kind", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", noop, bapi.WithParams(bapi.Param{Name: "q"}))
		}, `bapi: endpoint "x": parameter "q" without a type`},
		{"default of wrong type", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", noop, bapi.WithParams(bapi.NewParam("limit", bapi.Int, bapi.WithDefault("10"))))
		}, `bapi: endpoint "x": default of parameter "limit" must be a int, got: string`},
		{"param twice", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", noop, bapi.WithParams(bapi.NewParam("q", bapi.String), bapi.NewParam("q", bapi.Int)))
		}, `bapi: endpoint "x": parameter "q" declared twice`},
		{"undeclared wildcard", func(rt *bapi.Router) {
			bapi.Get(rt, "/x/{id}", "x", noop)
		}, `bapi: endpoint "x": route wildcard "id" has no declared parameter`},
		{"unnamed result", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", func(context.Context, *bapi.Input[bapi.NoBody]) (*[]itemOut, error) {
				return nil, nil
			})
		}, `bapi: endpoint "x": result type []bapi_test.itemOut must be a named struct`},
		{"anonymous body", func(rt *bapi.Router) {
			bapi.Post(rt, "/x", "x", func(context.Context, *bapi.Input[struct{ Name string }]) (*bapi.NoContent, error) {
				return nil, nil
			})
		}, `bapi: endpoint "x": body type struct { Name string } must be a named struct`},
		{"scalar result", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", func(context.Context, *bapi.Input[bapi.NoBody]) (*string, error) {
				return nil, nil
			})
		}, `bapi: endpoint "x": result type string must be a named struct`},
		{"duplicate name", func(rt *bapi.Router) {
			bapi.Get(rt, "/x", "x", noop)
			bapi.Get(rt, "/y", "x", noop)
		}, `bapi: "x": endpoint already registered`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rt := bapi.New("Panics", "1.0.0", bapi.WithLogger(bapi.NewTestLogger(t)))
			assert.Contains(t, panicMessage(func() { tt.fn(rt) }), tt.expMsg)
		})
	}
}

func TestRegistry(t *testing.T) {
	rt := bapi.New("Registry", "1.0.0", bapi.WithLogger(bapi.NewTestLogger(t)))
	bapi.Get(rt, "/users/{id}", "get_user", noop, bapi.WithParams(
		bapi.NewParam("id", bapi.UUID, bapi.WithOptional()),
		bapi.NewParam("fields", bapi.StringList, bapi.WithOptional()),
	))
	bapi.Handle(rt, []string{http.MethodPut, http.MethodPatch}, "/users/{id}", "update_user", noop,
		bapi.WithParams(bapi.NewParam("id", bapi.UUID)))

	eps := rt.Registry().Endpoints()
	require.Len(t, eps, 2)
	require.Equal(t, "get_user", eps[0].Name)
	require.Equal(t, "update_user", eps[1].Name)
	require.True(t, eps[0].RequiresAuth)
	require.Nil(t, eps[0].Body)
	require.Nil(t, eps[0].Result)

	id, ok := eps[0].Param("id")
	require.True(t, ok)
	require.Equal(t, bapi.SourcePath, id.Source)
	require.True(t, id.Presence.IsRequired())

	fields, ok := eps[0].Param("fields")
	require.True(t, ok)
	require.Equal(t, bapi.SourceQuery, fields.Source)

	_, ok = eps[0].Param("nope")
	require.False(t, ok)

	ep, ok := rt.Registry().Get("update_user")
	require.True(t, ok)
	require.Equal(t, http.StatusAccepted, ep.SuccessStatus(http.MethodPatch))
	require.Equal(t, http.StatusOK, eps[0].SuccessStatus(http.MethodGet))

	url, err := rt.Reverse("update_user", "c4e4b9d2-4f5a-4a8b-9e6f-3c2d1b0a9f8e")
	require.NoError(t, err)
	require.Equal(t, "/users/c4e4b9d2-4f5a-4a8b-9e6f-3c2d1b0a9f8e", url)

	_, ok = rt.Registry().Get("nope")
	require.False(t, ok)
}
