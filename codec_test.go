package bapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCodecsPick(t *testing.T) {
	codecs := bapi.NewCodecs(nil, nil)
	require.Equal(t, []string{
		bapi.MediaTypeJSON, bapi.MediaTypeJavaScript, bapi.MediaTypeYAML,
	}, codecs.EncoderTypes())

	for accept, exp := range map[string]string{
		"":                                                  bapi.MediaTypeJSON,
		"*/*":                                               bapi.MediaTypeJSON,
		"text/html":                                         bapi.MediaTypeJSON,
		"application/x-yaml":                                bapi.MediaTypeYAML,
		"application/javascript":                            bapi.MediaTypeJavaScript,
		"application/*":                                     bapi.MediaTypeJSON,
		"text/html, */*;q=0.8":                              bapi.MediaTypeJSON,
		"application/json;q=0.4, application/x-yaml;q=0.5":  bapi.MediaTypeYAML,
		"*/*;q=0.9, application/x-yaml":                     bapi.MediaTypeYAML,
		"application/x-yaml;q=0, application/json;q=0.1":    bapi.MediaTypeJSON,
		"application/*;q=0.5, application/javascript;q=0.5": bapi.MediaTypeJavaScript,
		"application/json;q=0, */*":                         bapi.MediaTypeJavaScript,
		"application/json;q=0, application/*;q=0.9":         bapi.MediaTypeJavaScript,
		"*/*;q=0.1, application/x-yaml;q=0.5":               bapi.MediaTypeYAML,
		"application/json;q=0":                              bapi.MediaTypeJSON,
	} {
		t.Run(accept, func(t *testing.T) {
			assert.Equal(t, exp, codecs.Pick(accept).ContentType())
		})
	}
}

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestCodecsEncode(t *testing.T) {
	codecs := bapi.NewCodecs(nil, nil)

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		data, ct, err := codecs.Encode(req, item{ID: "a", Name: "<b>"})
		require.NoError(t, err)
		require.Equal(t, bapi.MediaTypeJSON, ct)
		require.Equal(t, `{"id":"a","name":"<b>"}`, string(data))
	})

	t.Run("jsonp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?callback=cb", nil)
		req.Header.Set("Accept", bapi.MediaTypeJavaScript)
		data, ct, err := codecs.Encode(req, item{ID: "a"})
		require.NoError(t, err)
		require.Equal(t, bapi.MediaTypeJavaScript, ct)
		require.Equal(t, `cb({"id":"a","name":""})`, string(data))
	})

	t.Run("yaml", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", bapi.MediaTypeYAML)
		data, ct, err := codecs.Encode(req, item{ID: "a", Name: "b"})
		require.NoError(t, err)
		require.Equal(t, bapi.MediaTypeYAML, ct)
		require.Equal(t, "id: a\nname: b\n", string(data))
	})
}

func TestCodecsRoundTrip(t *testing.T) {
	codecs := bapi.NewCodecs(nil, nil)
	for _, tt := range []struct {
		accept string
		value  map[string]any
	}{
		{bapi.MediaTypeJSON, map[string]any{"name": "foo", "active": true}},
		{bapi.MediaTypeJSON, map[string]any{
			"owner": map[string]any{"name": "ada", "email": nil},
			"tags":  []any{"a", "<b>"},
			"empty": []any{},
		}},
		{bapi.MediaTypeYAML, map[string]any{"name": "foo", "active": true}},
		{bapi.MediaTypeYAML, map[string]any{
			"owner": map[string]any{"name": "ada", "email": nil},
			"tags":  []any{"a", "007", "true"},
			"empty": []any{},
		}},
	} {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept", tt.accept)

			data, ct, err := codecs.Encode(req, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.accept, ct)

			dec, ok := codecs.Decoder(ct)
			require.True(t, ok)

			got, err := dec.Decode(data)
			require.NoError(t, err)
			require.Equal(t, tt.value, got)
		})
	}
}

func TestCodecsDecode(t *testing.T) {
	codecs := bapi.NewCodecs(nil, nil)
	require.Equal(t, []string{bapi.MediaTypeJSON, bapi.MediaTypeYAML}, codecs.DecoderTypes())

	dec, ok := codecs.Decoder("application/json; charset=utf-8")
	require.True(t, ok)

	v, err := dec.Decode([]byte(`{"name":"foo","count":2}`))
	require.NoError(t, err)
	require.Equal(t, "foo", v.(map[string]any)["name"])

	_, err = dec.Decode([]byte(`{"name":"foo"} {}`))
	require.ErrorContains(t, err, "unexpected data")

	_, err = dec.Decode([]byte(`{"name":`))
	require.Error(t, err)

	dec, ok = codecs.Decoder(bapi.MediaTypeYAML)
	require.True(t, ok)

	v, err = dec.Decode([]byte("name: foo\ntags: [a, b]\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "foo", "tags": []any{"a", "b"}}, v)

	_, ok = codecs.Decoder("text/plain")
	require.False(t, ok)

	_, ok = codecs.Decoder("")
	require.False(t, ok)
}

// plainEncoder renders every value as the same plain text.
type plainEncoder struct{}

func (plainEncoder) ContentType() string { return "text/plain" }

func (plainEncoder) Encode(_ *http.Request, v any) ([]byte, error) {
	return []byte("ITEM"), nil
}

type replacedJSON struct{}

func (replacedJSON) ContentType() string { return bapi.MediaTypeJSON }

func (replacedJSON) Encode(_ *http.Request, v any) ([]byte, error) {
	return []byte(`{"replaced":true}`), nil
}

func TestCodecsCustom(t *testing.T) {
	codecs := bapi.NewCodecs([]bapi.Encoder{replacedJSON{}, plainEncoder{}}, nil)
	require.Equal(t, []string{
		bapi.MediaTypeJSON, bapi.MediaTypeJavaScript, bapi.MediaTypeYAML, "text/plain",
	}, codecs.EncoderTypes())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	data, _, err := codecs.Encode(req, item{})
	require.NoError(t, err)
	require.True(t, gjson.GetBytes(data, "replaced").Bool())

	req.Header.Set("Accept", "text/plain")
	data, ct, err := codecs.Encode(req, item{})
	require.NoError(t, err)
	require.Equal(t, "text/plain", ct)
	require.Equal(t, "ITEM", string(data))
}
