package spec

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/routemock/internal/casing"
)

// DefaultNamespace holds operations that carry no tag.
const DefaultNamespace = "default"

// BodyParam names the parameter carrying a request body that is not an
// object of named fields.
const BodyParam = "data"

// maxFlattenDepth bounds how deep object schemas are expanded into dotted
// parameter names.
const maxFlattenDepth = 4

const componentParameterPrefix = "#/components/parameters/"

// JSON Schema type names.
const (
	schemaString  = "string"
	schemaNumber  = "number"
	schemaInteger = "integer"
	schemaBoolean = "boolean"
	schemaArray   = "array"
	schemaObject  = "object"
)

// BuildOption configures how a route schema is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HTTPMethod]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HTTPMethod) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HTTPMethod]struct{}, len(methods))
			}
			c.methods[HTTPMethod(strings.ToUpper(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// BuildRoutes converts an OpenAPI v3 document into a route schema and the
// shared definitions table its "$name" parameters refer to.
//
// Operations are grouped by their first tag, named after their operationId
// (or method and path when absent), and their parameters, including the
// fields of JSON object bodies, are flattened into dotted parameter names.
func BuildRoutes(ctx context.Context, doc *openapi3.T, opts ...BuildOption) (RouteSchema, Definitions, error) {
	if doc == nil {
		return nil, nil, errors.New("nil document")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	b := &routeBuilder{
		routes: RouteSchema{},
		defs:   Definitions{},
		shared: map[string]string{},
	}
	if doc.Components != nil {
		b.collectDefinitions(doc.Components.Parameters)
	}

	for _, p := range sortedKeys(doc.Paths) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		ops := []struct {
			m HTTPMethod
			o *openapi3.Operation
		}{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
			{TRACE, item.Trace},
		}
		for _, pair := range ops {
			if pair.o == nil || !cfg.allowMethod(pair.m) || !cfg.allowTags(pair.o.Tags) {
				continue
			}
			b.addOperation(p, pair.m, item.Parameters, pair.o)
		}
	}

	if len(b.routes) == 0 {
		return nil, nil, errors.New("no operations left after filtering")
	}
	return b.routes, b.defs, nil
}

func (c *buildConfig) allowMethod(m HTTPMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *buildConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[strings.TrimSpace(t)]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[strings.TrimSpace(t)]; blocked {
			return false
		}
	}
	return true
}

type routeBuilder struct {
	routes RouteSchema
	defs   Definitions
	// shared maps a components/parameters key to its definitions entry.
	shared map[string]string
}

// collectDefinitions turns reusable component parameters into shared
// definitions keyed by parameter name. The first component (by key) wins a
// name clash; later ones are inlined where used.
func (b *routeBuilder) collectDefinitions(params openapi3.ParametersMap) {
	for _, key := range sortedKeys(params) {
		ref := params[key]
		if ref == nil || ref.Value == nil || ref.Value.In == openapi3.ParameterInCookie {
			continue
		}
		name := paramName(ref.Value)
		if _, taken := b.defs[name]; taken {
			continue
		}
		ps := parameterSpec(ref.Value)
		b.defs[name] = &ps
		b.shared[key] = name
	}
}

func (b *routeBuilder) addOperation(path string, method HTTPMethod, shared openapi3.Parameters, op *openapi3.Operation) {
	nsName := DefaultNamespace
	for _, t := range op.Tags {
		if id := casing.Identifier(t); id != "" {
			nsName = id
			break
		}
	}
	ns, ok := b.routes[nsName]
	if !ok {
		ns = Namespace{}
		b.routes[nsName] = ns
	}

	name := casing.Identifier(op.OperationID)
	if name == "" {
		name = casing.Identifier(strings.ToLower(string(method)) + " " + path)
	}
	name = uniqueName(ns, name)

	ms := &MethodSpec{
		Method: method,
		URL:    colonPlaceholders(path),
		Params: ParamMap{},
	}

	// Path-level parameters first, overridden by operation-level ones.
	merged := map[string]*openapi3.ParameterRef{}
	var order []string
	for _, list := range []openapi3.Parameters{shared, op.Parameters} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if _, seen := merged[key]; !seen {
				order = append(order, key)
			}
			merged[key] = ref
		}
	}
	for _, key := range order {
		b.addParameter(ms.Params, merged[key])
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		addRequestBody(ms, op.RequestBody.Value)
	}
	ns[name] = ms
}

func (b *routeBuilder) addParameter(params ParamMap, ref *openapi3.ParameterRef) {
	p := ref.Value
	if p.In == openapi3.ParameterInCookie {
		return
	}
	name := paramName(p)
	if strings.HasPrefix(ref.Ref, componentParameterPrefix) {
		if defName, ok := b.shared[strings.TrimPrefix(ref.Ref, componentParameterPrefix)]; ok && defName == name {
			params[AliasMarker+name] = nil
			return
		}
	}
	ps := parameterSpec(p)
	params[name] = &ps
	if p.Schema != nil {
		flattenProperties(params, name, p.Schema.Value, 1, map[*openapi3.Schema]bool{})
	}
}

// paramName is the call-argument key for p. Header names are camel-cased so
// "X-Request-Id" becomes "xRequestId".
func paramName(p *openapi3.Parameter) string {
	if p.In == openapi3.ParameterInHeader {
		return casing.Identifier(p.Name)
	}
	return p.Name
}

func parameterSpec(p *openapi3.Parameter) ParamSpec {
	var s *openapi3.Schema
	if p.Schema != nil {
		s = p.Schema.Value
	}
	ps := schemaSpec(s)
	ps.Required = p.Required || p.In == openapi3.ParameterInPath
	if d := strings.TrimSpace(p.Description); d != "" {
		ps.Description = d
	}
	if p.In == openapi3.ParameterInHeader {
		ps.MapTo = "headers." + strings.ToLower(p.Name)
	}
	return ps
}

// schemaSpec maps the contract of a schema onto a parameter spec. Required is
// left to the caller.
func schemaSpec(s *openapi3.Schema) ParamSpec {
	ps := ParamSpec{Type: typeTag(s, 0)}
	if s == nil {
		return ps
	}
	if len(s.Enum) > 0 {
		ps.Enum = append([]any(nil), s.Enum...)
	}
	ps.Validation = s.Pattern
	ps.Default = s.Default
	ps.AllowNull = s.Nullable
	ps.Description = strings.TrimSpace(s.Description)
	return ps
}

func typeTag(s *openapi3.Schema, depth int) string {
	if s == nil {
		return "string"
	}
	switch s.Type {
	case schemaInteger, schemaNumber, schemaBoolean:
		return s.Type
	case schemaString:
		if s.Format == "date-time" {
			return "date"
		}
		return "string"
	case schemaArray:
		if s.Items == nil || depth >= maxFlattenDepth {
			return "string[]"
		}
		return typeTag(s.Items.Value, depth+1) + "[]"
	case schemaObject:
		return "object"
	}
	if len(s.Properties) > 0 || len(s.AllOf) > 0 {
		return "object"
	}
	if len(s.OneOf) > 0 || len(s.AnyOf) > 0 {
		return "string | object"
	}
	return "string"
}

// objectSchema returns the schema whose properties describe the fields of a
// value typed by s, looking through arrays of objects.
func objectSchema(s *openapi3.Schema) *openapi3.Schema {
	for s != nil && s.Type == schemaArray {
		if s.Items == nil {
			return nil
		}
		s = s.Items.Value
	}
	return s
}

// flattenProperties declares one dotted parameter per property of the
// object described by s, recursing into nested objects.
func flattenProperties(params ParamMap, parent string, s *openapi3.Schema, depth int, visiting map[*openapi3.Schema]bool) {
	s = objectSchema(s)
	if s == nil || len(s.Properties) == 0 || depth > maxFlattenDepth || visiting[s] {
		return
	}
	visiting[s] = true
	defer delete(visiting, s)

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	for _, prop := range sortedKeys(s.Properties) {
		ref := s.Properties[prop]
		if ref == nil {
			continue
		}
		name := parent + "." + prop
		ps := schemaSpec(ref.Value)
		ps.Required = required[prop]
		params[name] = &ps
		flattenProperties(params, name, ref.Value, depth+1, visiting)
	}
}

func addRequestBody(ms *MethodSpec, body *openapi3.RequestBody) {
	if len(body.Content) == 0 {
		return
	}
	mt := jsonMedia(body.Content)
	if mt == nil {
		ms.RequestFormat = RequestFormatRaw
		ms.Params[BodyParam] = &ParamSpec{Type: "string | object", Required: body.Required}
		return
	}

	var s *openapi3.Schema
	if mt.Schema != nil {
		s = mt.Schema.Value
	}
	if s != nil && typeTag(s, 0) == "object" && len(s.Properties) > 0 {
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			required[r] = true
		}
		for _, prop := range sortedKeys(s.Properties) {
			ref := s.Properties[prop]
			if ref == nil {
				continue
			}
			if _, clash := ms.Params[prop]; clash {
				continue
			}
			ps := schemaSpec(ref.Value)
			ps.Required = body.Required && required[prop]
			ms.Params[prop] = &ps
			flattenProperties(ms.Params, prop, ref.Value, 1, map[*openapi3.Schema]bool{s: true})
		}
		return
	}

	ps := schemaSpec(s)
	ps.Required = body.Required
	ps.MapTo = "input"
	ms.Params[BodyParam] = &ps
	flattenProperties(ms.Params, BodyParam, s, 1, map[*openapi3.Schema]bool{})
}

// jsonMedia picks the JSON media type of content, preferring application/json.
func jsonMedia(content openapi3.Content) *openapi3.MediaType {
	if mt := content["application/json"]; mt != nil {
		return mt
	}
	for _, mime := range sortedKeys(content) {
		base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
		if base == "application/json" || strings.HasSuffix(base, "+json") {
			return content[mime]
		}
	}
	return nil
}

var bracePlaceholder = regexp.MustCompile(`\{([^{}/]+)\}`)

// colonPlaceholders rewrites "/repos/{owner}" as "/repos/:owner".
func colonPlaceholders(path string) string {
	return bracePlaceholder.ReplaceAllString(path, ":$1")
}

func uniqueName(ns Namespace, name string) string {
	if _, taken := ns[name]; !taken {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if _, taken := ns[candidate]; !taken {
			return candidate
		}
	}
}

// RouteCount returns the number of namespaces and methods in routes.
func RouteCount(routes RouteSchema) (namespaces, methods int) {
	for _, ns := range routes {
		methods += len(ns)
	}
	return len(routes), methods
}

// SortedNamespaces returns the namespace names of routes in order.
func SortedNamespaces(routes RouteSchema) []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedMethods returns the method names of ns in order.
func SortedMethods(ns Namespace) []string {
	return sortedKeys(ns)
}
