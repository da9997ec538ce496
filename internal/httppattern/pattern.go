// Package httppattern parses the route patterns understood by the standard library's
// http.ServeMux ("[METHOD ][HOST]/path/{name}/{rest...}/{$}") so that they can be inspected
// and turned back into concrete URLs.
package httppattern

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Pattern is a parsed http.ServeMux pattern.
type Pattern struct {
	str      string
	method   string
	host     string
	segments []segment
}

// segment is one slash-separated part of the path. A literal segment with s == "/"
// marks a trailing slash that matches any remaining path.
type segment struct {
	s     string
	wild  bool
	multi bool
	end   bool
}

// ParsePattern parses s into a Pattern.
func ParsePattern(s string) (*Pattern, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty pattern")
	}

	p := &Pattern{str: s}
	rest := s

	if method, after, found := strings.Cut(s, " "); found {
		rest = strings.TrimLeft(after, " \t")
		if method == "" || !isToken(method) {
			return nil, errors.Newf("invalid method %q", method)
		}
		p.method = method
	}

	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return nil, errors.New("host/path missing /")
	}

	p.host = rest[:idx]
	path := rest[idx:]

	seen := map[string]bool{}
	for path != "" {
		path = path[1:] // drop the leading slash
		if path == "" {
			p.segments = append(p.segments, segment{s: "/"})
			break
		}

		var seg string
		if i := strings.IndexByte(path, '/'); i >= 0 {
			seg, path = path[:i], path[i:]
		} else {
			seg, path = path, ""
		}

		if !strings.HasPrefix(seg, "{") {
			if strings.ContainsAny(seg, "{}") {
				return nil, errors.Newf("bad wildcard segment %q: must be the whole segment", seg)
			}
			lit, err := url.PathUnescape(seg)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid path segment %q", seg)
			}
			p.segments = append(p.segments, segment{s: lit})
			continue
		}

		if !strings.HasSuffix(seg, "}") {
			return nil, errors.Newf("bad wildcard segment %q: must end with }", seg)
		}

		name := seg[1 : len(seg)-1]
		if name == "$" {
			if path != "" {
				return nil, errors.New("{$} not at end")
			}
			p.segments = append(p.segments, segment{end: true})
			break
		}

		name, multi := strings.CutSuffix(name, "...")
		if multi && path != "" {
			return nil, errors.Newf("{%s...} wildcard not at end", name)
		}
		if !isIdentifier(name) {
			return nil, errors.Newf("bad wildcard name %q", name)
		}
		if seen[name] {
			return nil, errors.Newf("duplicate wildcard name %q", name)
		}
		seen[name] = true

		p.segments = append(p.segments, segment{s: name, wild: true, multi: multi})
	}

	return p, nil
}

// String returns the pattern as it was parsed.
func (p *Pattern) String() string { return p.str }

// Method returns the method of the pattern, empty when it matches any method.
func (p *Pattern) Method() string { return p.method }

// Host returns the host part of the pattern, if any.
func (p *Pattern) Host() string { return p.host }

// Wildcards returns the names of the path wildcards in order of appearance.
func (p *Pattern) Wildcards() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.wild {
			names = append(names, seg.s)
		}
	}
	return names
}

// Path returns the path part of the pattern without method or host.
func (p *Pattern) Path() string {
	return render(p.segments, func(seg segment) string {
		switch {
		case seg.end:
			return "{$}"
		case seg.multi:
			return "{" + seg.s + "...}"
		case seg.wild:
			return "{" + seg.s + "}"
		default:
			return seg.s
		}
	})
}

// Template renders the path in URI template form: every wildcard becomes "{name}" and the
// "{$}" anchor is dropped.
func (p *Pattern) Template() string {
	return render(p.segments, func(seg segment) string {
		if seg.wild {
			return "{" + seg.s + "}"
		}
		return url.PathEscape(seg.s)
	})
}

// Build substitutes vals for the wildcards of p, in order.
func Build(p *Pattern, vals ...string) (string, error) {
	var wanted int
	for _, seg := range p.segments {
		if seg.wild {
			wanted++
		}
	}

	switch {
	case len(vals) < wanted:
		return "", errors.Newf("not enough values for pattern %q: got %d, want %d", p.str, len(vals), wanted)
	case len(vals) > wanted:
		return "", errors.Newf("too many values for pattern %q: got %d, want %d", p.str, len(vals), wanted)
	}

	var i int
	return render(p.segments, func(seg segment) string {
		if !seg.wild {
			return url.PathEscape(seg.s)
		}

		val := vals[i]
		i++

		if !seg.multi {
			return url.PathEscape(val)
		}

		parts := strings.Split(val, "/")
		for j := range parts {
			parts[j] = url.PathEscape(parts[j])
		}
		return strings.Join(parts, "/")
	}), nil
}

func render(segs []segment, fn func(segment) string) string {
	var b strings.Builder
	for _, seg := range segs {
		switch {
		case seg.end:
			b.WriteByte('/')
			b.WriteString(fn(seg))
		case !seg.wild && seg.s == "/":
			b.WriteByte('/')
		default:
			b.WriteByte('/')
			b.WriteString(fn(seg))
		}
	}

	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func isToken(s string) bool {
	for _, r := range s {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, r) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r != '_' && !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') && (i == 0 || !('0' <= r && r <= '9')) {
			return false
		}
	}
	return true
}
