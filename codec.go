package bapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// Well-known media types.
const (
	MediaTypeJSON       = "application/json"
	MediaTypeJavaScript = "application/javascript"
	MediaTypeYAML       = "application/x-yaml"
)

// Encoder encodes response values to a wire format. The request is passed so encoders can
// take query parameters into account, the JSON encoders do this for "callback".
type Encoder interface {
	ContentType() string
	Encode(r *http.Request, v any) ([]byte, error)
}

// Decoder decodes request bodies from a wire format into generic values: maps, slices and
// scalars.
type Decoder interface {
	ContentType() string
	Decode(data []byte) (any, error)
}

// jsonCodec encodes compact JSON and wraps it in a function call when the request has a
// non-empty "callback" query parameter.
type jsonCodec struct{ contentType string }

func (c jsonCodec) ContentType() string { return c.contentType }

func (jsonCodec) Encode(r *http.Request, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode json")
	}

	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	if r == nil {
		return data, nil
	}

	if callback := r.URL.Query().Get("callback"); callback != "" {
		return []byte(callback + "(" + string(data) + ")"), nil
	}

	return data, nil
}

func (jsonCodec) Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: unexpected data after top-level value")
	}

	return v, nil
}

// yamlCodec encodes with sigs.k8s.io/yaml so the json tags of a value also name its YAML keys,
// and decodes with yaml.v3.
type yamlCodec struct{}

func (yamlCodec) ContentType() string { return MediaTypeYAML }

func (yamlCodec) Encode(_ *http.Request, v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}

	return data, nil
}

func (yamlCodec) Decode(data []byte) (any, error) {
	var v any
	if err := yamlv3.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	return v, nil
}

// Codecs holds the encoders and decoders a router negotiates with. The order of encoders
// matters: when the client accepts several of them equally well the first one wins.
type Codecs struct {
	encoders []Encoder
	decoders []Decoder
}

// NewCodecs inits the default codecs: JSON, JavaScript (JSONP) and YAML encoders, JSON and YAML
// decoders. Extra encoders and decoders replace the defaults for the same content type or are
// appended otherwise.
func NewCodecs(encs []Encoder, decs []Decoder) *Codecs {
	c := &Codecs{
		encoders: []Encoder{
			jsonCodec{MediaTypeJSON},
			jsonCodec{MediaTypeJavaScript},
			yamlCodec{},
		},
		decoders: []Decoder{
			jsonCodec{MediaTypeJSON},
			yamlCodec{},
		},
	}

	for _, enc := range encs {
		c.encoders = upsert(c.encoders, enc)
	}

	for _, dec := range decs {
		c.decoders = upsert(c.decoders, dec)
	}

	return c
}

func upsert[T interface{ ContentType() string }](list []T, v T) []T {
	for i, existing := range list {
		if existing.ContentType() == v.ContentType() {
			list[i] = v
			return list
		}
	}

	return append(list, v)
}

// EncoderTypes returns the content types of all encoders, in negotiation order.
func (c *Codecs) EncoderTypes() []string {
	return lo.Map(c.encoders, func(e Encoder, _ int) string { return e.ContentType() })
}

// DecoderTypes returns the content types of all decoders.
func (c *Codecs) DecoderTypes() []string {
	return lo.Map(c.decoders, func(d Decoder, _ int) string { return d.ContentType() })
}

// Decoder returns the decoder for a Content-Type header value. Media type parameters such as
// the charset are ignored.
func (c *Codecs) Decoder(contentType string) (Decoder, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}

	return lo.Find(c.decoders, func(d Decoder) bool { return d.ContentType() == mediaType })
}

// Encode picks the encoder that best matches the Accept header of r and encodes v with it.
func (c *Codecs) Encode(r *http.Request, v any) ([]byte, string, error) {
	enc := c.Pick(r.Header.Get("Accept"))

	data, err := enc.Encode(r, v)
	if err != nil {
		return nil, "", err
	}

	return data, enc.ContentType(), nil
}

// Pick returns the encoder that best matches an Accept header value. An encoder gets the quality
// of the most specific media range that matches it, so "application/json;q=0, */*" rejects
// JSON. Higher quality wins, a more specific client media range wins between equal qualities
// and remaining ties go to the encoder that comes first. It returns the first encoder when
// nothing is acceptable.
func (c *Codecs) Pick(accept string) Encoder {
	ranges := parseAccept(accept)

	best, bestQuality, bestSpecificity := c.encoders[0], 0.0, -1
	for _, enc := range c.encoders {
		mr, ok := mostSpecific(ranges, enc.ContentType())
		if !ok || mr.quality <= 0 {
			continue
		}

		if mr.quality > bestQuality || (mr.quality == bestQuality && mr.specificity > bestSpecificity) {
			best, bestQuality, bestSpecificity = enc, mr.quality, mr.specificity
		}
	}

	return best
}

// mostSpecific returns the most specific range that matches contentType. Between ranges of
// equal specificity the highest quality counts.
func mostSpecific(ranges []mediaRange, contentType string) (best mediaRange, found bool) {
	for _, mr := range ranges {
		if !mr.matches(contentType) {
			continue
		}

		if !found || mr.specificity > best.specificity ||
			(mr.specificity == best.specificity && mr.quality > best.quality) {
			best, found = mr, true
		}
	}

	return best, found
}

type mediaRange struct {
	typ, sub    string
	quality     float64
	specificity int
}

func (mr mediaRange) matches(contentType string) bool {
	typ, sub, _ := strings.Cut(contentType, "/")
	switch {
	case mr.typ == "*":
		return true
	case mr.sub == "*":
		return mr.typ == typ
	default:
		return mr.typ == typ && mr.sub == sub
	}
}

func parseAccept(accept string) (ranges []mediaRange) {
	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		typ, sub, ok := strings.Cut(mediaType, "/")
		if !ok || (typ == "*" && sub != "*") {
			continue
		}

		mr := mediaRange{typ: typ, sub: sub, quality: 1}
		if qs, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(qs, 64); err == nil {
				mr.quality = parsed
			}
		}

		switch {
		case typ == "*":
		case sub == "*":
			mr.specificity = 1
		default:
			mr.specificity = 2
		}

		ranges = append(ranges, mr)
	}

	return ranges
}
