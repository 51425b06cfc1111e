package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/routemock/internal/spec"
	"github.com/mark3labs/routemock/internal/validate"
)

var (
	// ErrNoRoute reports a request no method of the route schema matches.
	ErrNoRoute = errors.New("no matching route")
	// ErrMissingParam reports a required parameter the request does not carry.
	ErrMissingParam = errors.New("missing parameter")
)

const headerPrefix = "headers."

// Params rebuilds the argument object a client would have been called with
// to produce req, for the method namespace.method.
func (m *Matcher) Params(req Request, namespace, method string) (map[string]any, error) {
	r, ok := m.lookup(namespace, method)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoRoute, namespace, method)
	}
	return r.rebuild(req)
}

func (r *route) rebuild(req Request) (map[string]any, error) {
	args := map[string]any{}

	if sub := r.re.FindStringSubmatch(cleanPath(req.Path)); sub != nil {
		for i, group := range r.re.SubexpNames() {
			name, ok := r.groups[group]
			if !ok {
				continue
			}
			value := sub[i]
			if unescaped, err := url.PathUnescape(value); err == nil {
				value = unescaped
			}
			args[name] = r.normalize(name, value)
		}
	}

	if i := strings.IndexByte(req.Path, '?'); i >= 0 {
		query, err := url.ParseQuery(req.Path[i+1:])
		if err != nil {
			return nil, fmt.Errorf("%s: query: %w", req, err)
		}
		for name, values := range query {
			if _, declared := r.params.Lookup(name); declared && len(values) > 0 {
				args[name] = r.normalize(name, values[0])
			}
		}
	}

	consumed := false
	if r.spec.RequestFormat == spec.RequestFormatRaw {
		args[spec.BodyParam] = req.Body
		consumed = true
	}
	if !consumed {
		for _, name := range r.params.Names() {
			p, _ := r.params.Lookup(name)
			if p.Spec.MapTo == "input" {
				args[name] = req.Body
				consumed = true
			}
		}
	}
	if body, ok := req.Body.(map[string]any); ok && !consumed {
		for name, value := range body {
			if _, declared := r.params.Lookup(name); declared {
				args[name] = r.normalize(name, value)
			}
		}
		consumed = true
	}

	for _, p := range r.params.Children("") {
		name := p.Key()
		if !p.Spec.Required {
			continue
		}
		if _, set := args[name]; set {
			continue
		}
		switch {
		case name == "file" && !consumed:
			args[name] = req.Body
			consumed = true
		case strings.HasPrefix(p.Spec.MapTo, headerPrefix):
			if v, ok := req.header(strings.TrimPrefix(p.Spec.MapTo, headerPrefix)); ok {
				args[name] = v
				continue
			}
			return nil, fmt.Errorf("%w: %s for %s", ErrMissingParam, name, req)
		default:
			return nil, fmt.Errorf("%w: %s for %s", ErrMissingParam, name, req)
		}
	}
	return args, nil
}

// normalize converts a raw request value to the Go type a caller would pass
// for the declared parameter type.
func (r *route) normalize(name string, value any) any {
	p, ok := r.params.Lookup(name)
	if !ok || p.TypeErr != nil || p.Type.IsArray() {
		return value
	}
	switch p.Type.Kind {
	case validate.KindNumber, validate.KindInteger:
		if n, ok := toInt(value); ok {
			return n
		}
		return value
	case validate.KindString:
		if s, ok := value.(string); ok {
			return s
		}
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(value)
	case validate.KindJSON:
		if s, ok := value.(string); ok {
			return s
		}
		if b, err := json.Marshal(value); err == nil {
			return string(b)
		}
		return fmt.Sprint(value)
	default:
		return value
	}
}

// toInt parses the leading integer of value.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
			end++
		}
		n, err := strconv.Atoi(s[:end])
		return n, err == nil
	}
	return 0, false
}
