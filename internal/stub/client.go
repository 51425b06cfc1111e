package stub

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mark3labs/routemock/internal/spec"
	"github.com/mark3labs/routemock/internal/validate"
)

// ErrUnknownRoute reports a namespace or method missing from the route schema.
var ErrUnknownRoute = errors.New("unknown route")

// Option configures NewClient.
type Option func(*options)

type options struct {
	defs   spec.Definitions
	logger *log.Logger
}

// WithDefinitions supplies the shared definitions table "$name" parameters
// resolve against.
func WithDefinitions(defs spec.Definitions) Option {
	return func(o *options) { o.defs = defs }
}

// WithLogger sets the logger used while assembling the client.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client is a stand-in for a whole API client: one Namespace per route
// schema namespace plus the pagination and authentication helpers real
// clients expose.
type Client struct {
	namespaces map[string]Namespace

	Authenticate    *Stub
	HasNextPage     *Stub
	HasPreviousPage *Stub
	HasFirstPage    *Stub
	HasLastPage     *Stub
	GetNextPage     *Stub
	GetPreviousPage *Stub
	GetFirstPage    *Stub
	GetLastPage     *Stub
}

// NewClient builds a stub for every method in routes. Method aliases share
// the validator of the method they point at. Construction fails when an alias
// targets a missing method or a parameter map cannot be resolved.
func NewClient(routes spec.RouteSchema, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	c := &Client{
		namespaces:      make(map[string]Namespace, len(routes)),
		Authenticate:    newStub("authenticate", nil),
		HasNextPage:     newStub("hasNextPage", nil),
		HasPreviousPage: newStub("hasPreviousPage", nil),
		HasFirstPage:    newStub("hasFirstPage", nil),
		HasLastPage:     newStub("hasLastPage", nil),
		GetNextPage:     newStub("getNextPage", nil),
		GetPreviousPage: newStub("getPreviousPage", nil),
		GetFirstPage:    newStub("getFirstPage", nil),
		GetLastPage:     newStub("getLastPage", nil),
	}

	resolver := validate.NewResolver(o.defs)
	validators := map[string]*validate.Validator{}
	methods := 0
	for _, nsName := range spec.SortedNamespaces(routes) {
		ns := make(Namespace, len(routes[nsName]))
		for _, name := range spec.SortedMethods(routes[nsName]) {
			target, key, err := resolveMethod(routes, nsName, name)
			if err != nil {
				return nil, err
			}
			v, ok := validators[key]
			if !ok {
				params, err := resolver.Resolve(target.Params)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				v = validate.New(params)
				validators[key] = v
			}
			ns[name] = newStub(nsName+"."+name, v)
			methods++
		}
		c.namespaces[nsName] = ns
	}
	o.logger.Debug("assembled stub client", "namespaces", len(c.namespaces), "methods", methods)
	return c, nil
}

// resolveMethod follows method aliases to the spec that carries parameters.
// key names the final target as "namespace.method".
func resolveMethod(routes spec.RouteSchema, ns, name string) (*spec.MethodSpec, string, error) {
	seen := map[string]bool{}
	for {
		key := ns + "." + name
		ms := routes.Lookup(ns, name)
		if ms == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownRoute, key)
		}
		if ms.Alias == "" {
			return ms, key, nil
		}
		if seen[key] {
			return nil, "", fmt.Errorf("%w: alias loop at %s", ErrUnknownRoute, key)
		}
		seen[key] = true
		var ok bool
		ns, name, ok = strings.Cut(ms.Alias, ".")
		if !ok {
			return nil, "", fmt.Errorf("%w: %s alias %q", ErrUnknownRoute, key, ms.Alias)
		}
	}
}

// Namespace returns the stubs of one namespace, or nil.
func (c *Client) Namespace(name string) Namespace { return c.namespaces[name] }

// Method returns the stub for ns.method.
func (c *Client) Method(ns, method string) (*Stub, error) {
	s, ok := c.namespaces[ns][method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRoute, ns, method)
	}
	return s, nil
}

// Namespaces returns the namespace names in order.
func (c *Client) Namespaces() []string {
	names := make([]string, 0, len(c.namespaces))
	for name := range c.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Client) each(fn func(*Stub)) {
	for _, ns := range c.Namespaces() {
		stubs := c.namespaces[ns]
		names := make([]string, 0, len(stubs))
		for name := range stubs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fn(stubs[name])
		}
	}
}

// Stubs returns every route stub ordered by namespace, then method.
func (c *Client) Stubs() []*Stub {
	var out []*Stub
	c.each(func(s *Stub) { out = append(out, s) })
	return out
}

func (c *Client) helpers() []*Stub {
	return []*Stub{
		c.Authenticate,
		c.HasNextPage, c.HasPreviousPage, c.HasFirstPage, c.HasLastPage,
		c.GetNextPage, c.GetPreviousPage, c.GetFirstPage, c.GetLastPage,
	}
}

// ArgumentsValid checks the most recent call of every stub that was called.
func (c *Client) ArgumentsValid(assert validate.AssertFunc) {
	c.each(func(s *Stub) {
		if s.Called() {
			s.ArgumentsValid(assert)
		}
	})
}

// AllArgumentsValid checks every recorded call of every stub.
func (c *Client) AllArgumentsValid(assert validate.AssertFunc) {
	c.each(func(s *Stub) { s.AllArgumentsValid(assert) })
}

// Reset clears the history of every stub, helpers included.
func (c *Client) Reset() {
	c.each(func(s *Stub) { s.Reset() })
	for _, s := range c.helpers() {
		s.Reset()
	}
}
