// Package replay maps recorded HTTP traffic back onto route schema methods so
// real request fixtures can be replayed through the stub client and checked.
package replay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/routemock/internal/spec"
)

// Request is one recorded HTTP request, in the shape HTTP recording tools
// write their fixtures.
type Request struct {
	Scope      string            `json:"scope,omitempty" yaml:"scope,omitempty"`
	Method     string            `json:"method" yaml:"method"`
	Path       string            `json:"path" yaml:"path"`
	Body       any               `json:"body,omitempty" yaml:"body,omitempty"`
	Status     int               `json:"status,omitempty" yaml:"status,omitempty"`
	ReqHeaders map[string]string `json:"reqheaders,omitempty" yaml:"reqheaders,omitempty"`
}

func (r Request) String() string {
	return strings.ToUpper(r.Method) + " " + r.Path
}

// header looks a request header up case-insensitively.
func (r Request) header(name string) (string, bool) {
	for k, v := range r.ReqHeaders {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// LoadFixtures reads recorded requests from a JSON or YAML document. The
// document is either a list of requests or a map from scenario name to such
// a list; scenarios are flattened in name order.
func LoadFixtures(ctx context.Context, input string, opts ...spec.Option) ([]Request, error) {
	raw, location, err := spec.ReadDocument(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("parse fixtures: %v", err), Location: location, Cause: err}
	}
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var reqs []Request
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&reqs)
	case yaml.MappingNode:
		var scenarios map[string][]Request
		if err = root.Decode(&scenarios); err == nil {
			names := make([]string, 0, len(scenarios))
			for name := range scenarios {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				reqs = append(reqs, scenarios[name]...)
			}
		}
	default:
		err = fmt.Errorf("expected a list of requests or a map of scenarios")
	}
	if err != nil {
		return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("parse fixtures: %v", err), Location: location, Cause: err}
	}
	for i, r := range reqs {
		if strings.TrimSpace(r.Method) == "" || strings.TrimSpace(r.Path) == "" {
			return nil, &spec.SpecError{Code: spec.ValidationError, Message: fmt.Sprintf("fixture %d needs a method and a path", i), Location: location}
		}
	}
	return reqs, nil
}
