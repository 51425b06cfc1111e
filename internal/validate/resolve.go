package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/routemock/internal/spec"
)

var (
	// ErrUnknownDefinition reports a "$name" parameter with no shared definition.
	ErrUnknownDefinition = errors.New("unknown shared definition")
	// ErrUnknownAlias reports an alias pointing at no declared parameter.
	ErrUnknownAlias = errors.New("unknown alias target")
	// ErrAliasCycle reports aliases that point at each other.
	ErrAliasCycle = errors.New("alias cycle")
	// ErrEmptyParam reports a plain parameter declared without a spec.
	ErrEmptyParam = errors.New("parameter has no spec")
)

// Param is one resolved parameter.
type Param struct {
	Name Path
	Spec spec.ParamSpec
	// Type is the parsed Spec.Type; TypeErr is set instead when the tag is unknown.
	Type    TypeTag
	TypeErr error
}

// Key returns the dotted parameter name.
func (p *Param) Key() string { return p.Name.String() }

// Params is a resolved parameter map indexed by name and by parent path.
type Params struct {
	byName   map[string]*Param
	names    []string
	children map[string][]*Param
	aliases  map[string][]string
}

// Lookup returns the parameter declared under the dotted name.
func (ps *Params) Lookup(name string) (*Param, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Names returns every declared name in sorted order.
func (ps *Params) Names() []string {
	return append([]string(nil), ps.names...)
}

// Len returns the number of declared parameters.
func (ps *Params) Len() int { return len(ps.names) }

// Children returns the parameters exactly one segment below parent, sorted by
// name. An empty parent yields the top-level parameters.
func (ps *Params) Children(parent string) []*Param {
	return ps.children[parent]
}

// AliasesOf returns the names of parameters aliasing name.
func (ps *Params) AliasesOf(name string) []string {
	return ps.aliases[name]
}

// AnyRequired reports whether any parameter, nested or not, is required.
func (ps *Params) AnyRequired() bool {
	for _, p := range ps.byName {
		if p.Spec.Required {
			return true
		}
	}
	return false
}

// Concrete renders the resolved parameters back into a parameter map.
// Resolving the result again yields an identical map.
func (ps *Params) Concrete() spec.ParamMap {
	out := make(spec.ParamMap, len(ps.byName))
	for name, p := range ps.byName {
		s := p.Spec.Clone()
		out[name] = &s
	}
	return out
}

// Resolver expands raw parameter maps against a shared definitions table.
// Resolution is pure: the raw map and the table are never modified.
type Resolver struct {
	defs spec.Definitions
}

// NewResolver returns a resolver bound to defs, which may be nil.
func NewResolver(defs spec.Definitions) *Resolver {
	return &Resolver{defs: defs}
}

// Resolve turns a raw parameter map into a resolved tree. Shared definitions
// are substituted for "$name" keys, and alias parameters take the contract of
// their target while keeping their own required flag.
func (r *Resolver) Resolve(raw spec.ParamMap) (*Params, error) {
	specs, err := r.expandDefinitions(raw)
	if err != nil {
		return nil, err
	}
	resolved, err := resolveAliases(specs)
	if err != nil {
		return nil, err
	}
	return buildParams(resolved), nil
}

func (r *Resolver) expandDefinitions(raw spec.ParamMap) (map[string]spec.ParamSpec, error) {
	specs := make(map[string]spec.ParamSpec, len(raw))
	for _, name := range sortedNames(raw) {
		ps := raw[name]
		if strings.HasPrefix(name, spec.AliasMarker) {
			continue
		}
		if ps == nil {
			return nil, fmt.Errorf("%w: %s", ErrEmptyParam, name)
		}
		specs[name] = ps.Clone()
	}
	for _, name := range sortedNames(raw) {
		if !strings.HasPrefix(name, spec.AliasMarker) {
			continue
		}
		key := strings.TrimPrefix(name, spec.AliasMarker)
		if _, explicit := specs[key]; explicit {
			continue
		}
		inline := raw[name]
		def, ok := r.defs[key]
		if !ok || def == nil {
			if inline == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownDefinition, key)
			}
			specs[key] = inline.Clone()
			continue
		}
		specs[key] = overlay(def.Clone(), inline)
	}
	return specs, nil
}

// overlay copies the non-zero fields of inline over base.
func overlay(base spec.ParamSpec, inline *spec.ParamSpec) spec.ParamSpec {
	if inline == nil {
		return base
	}
	if inline.Type != "" {
		base.Type = inline.Type
	}
	if inline.Required {
		base.Required = true
	}
	if len(inline.Enum) > 0 {
		base.Enum = append([]any(nil), inline.Enum...)
	}
	if inline.Validation != "" {
		base.Validation = inline.Validation
	}
	if inline.Default != nil {
		base.Default = inline.Default
	}
	if inline.Alias != "" {
		base.Alias = inline.Alias
	}
	if inline.AllowNull {
		base.AllowNull = true
	}
	if inline.MapTo != "" {
		base.MapTo = inline.MapTo
	}
	if inline.Description != "" {
		base.Description = inline.Description
	}
	return base
}

func resolveAliases(specs map[string]spec.ParamSpec) (map[string]spec.ParamSpec, error) {
	resolved := make(map[string]spec.ParamSpec, len(specs))
	visiting := make(map[string]bool)

	var resolve func(name string) (spec.ParamSpec, error)
	resolve = func(name string) (spec.ParamSpec, error) {
		if s, ok := resolved[name]; ok {
			return s, nil
		}
		own := specs[name]
		if own.Alias == "" {
			resolved[name] = own
			return own, nil
		}
		if visiting[name] {
			return spec.ParamSpec{}, fmt.Errorf("%w: %s", ErrAliasCycle, name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		target, ok := aliasTarget(name, own.Alias, specs)
		if !ok {
			return spec.ParamSpec{}, fmt.Errorf("%w: %s -> %s", ErrUnknownAlias, name, own.Alias)
		}
		if target == name {
			return spec.ParamSpec{}, fmt.Errorf("%w: %s", ErrAliasCycle, name)
		}
		ts, err := resolve(target)
		if err != nil {
			return spec.ParamSpec{}, err
		}
		eff := ts.Clone()
		eff.Required = own.Required
		if ts.Alias == "" {
			eff.Alias = target
		}
		if own.Description != "" {
			eff.Description = own.Description
		}
		resolved[name] = eff
		return eff, nil
	}

	for _, name := range sortedNames(specs) {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// aliasTarget finds the parameter an alias refers to. A target missing from
// the map is retried as a sibling of name, so "owner.login" aliasing "name"
// may resolve to "owner.name".
func aliasTarget(name, alias string, specs map[string]spec.ParamSpec) (string, bool) {
	if _, ok := specs[alias]; ok {
		return alias, true
	}
	p := ParsePath(name)
	if !p.Nested() {
		return "", false
	}
	candidate := p.WithLast(ParsePath(alias).Last()).String()
	if _, ok := specs[candidate]; ok {
		return candidate, true
	}
	return "", false
}

func buildParams(resolved map[string]spec.ParamSpec) *Params {
	ps := &Params{
		byName:   make(map[string]*Param, len(resolved)),
		names:    sortedNames(resolved),
		children: make(map[string][]*Param),
		aliases:  make(map[string][]string),
	}
	for _, name := range ps.names {
		s := resolved[name]
		p := &Param{Name: ParsePath(name), Spec: s}
		p.Type, p.TypeErr = ParseTypeTag(s.Type)
		ps.byName[name] = p
		parent := p.Name.Parent().String()
		ps.children[parent] = append(ps.children[parent], p)
		if s.Alias != "" {
			ps.aliases[s.Alias] = append(ps.aliases[s.Alias], name)
		}
	}
	return ps
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
