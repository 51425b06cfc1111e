package spec

// Route schema definitions shared by the loader, importer, stub client and replay harness.

type HTTPMethod string

const (
	GET     HTTPMethod = "GET"
	POST    HTTPMethod = "POST"
	PUT     HTTPMethod = "PUT"
	DELETE  HTTPMethod = "DELETE"
	PATCH   HTTPMethod = "PATCH"
	HEAD    HTTPMethod = "HEAD"
	OPTIONS HTTPMethod = "OPTIONS"
	TRACE   HTTPMethod = "TRACE"
)

// RequestFormatRaw marks methods whose request body is sent verbatim as the
// "data" parameter.
const RequestFormatRaw = "raw"

// AliasMarker prefixes parameter names whose spec lives in the shared
// definitions table.
const AliasMarker = "$"

// RouteSchema maps namespace name to its methods.
type RouteSchema map[string]Namespace

// Namespace maps method name to its spec.
type Namespace map[string]*MethodSpec

type MethodSpec struct {
	Method        HTTPMethod `json:"method,omitempty" yaml:"method,omitempty"`
	URL           string     `json:"url,omitempty" yaml:"url,omitempty"`
	RequestFormat string     `json:"requestFormat,omitempty" yaml:"requestFormat,omitempty"`
	// Alias redirects the whole method to another one, written "namespace.method".
	Alias  string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Params ParamMap `json:"params,omitempty" yaml:"params,omitempty"`
}

// ParamMap maps a parameter name (possibly dotted or marker-prefixed) to its spec.
// A nil spec is legal for marker-prefixed names.
type ParamMap map[string]*ParamSpec

type ParamSpec struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Validation  string `json:"validation,omitempty" yaml:"validation,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Alias       string `json:"alias,omitempty" yaml:"alias,omitempty"`
	AllowNull   bool   `json:"allowNull,omitempty" yaml:"allowNull,omitempty"`
	MapTo       string `json:"mapTo,omitempty" yaml:"mapTo,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a copy that does not share the Enum slice.
func (p ParamSpec) Clone() ParamSpec {
	if p.Enum != nil {
		p.Enum = append([]any(nil), p.Enum...)
	}
	return p
}

// Definitions is the shared parameter table referenced through AliasMarker.
type Definitions map[string]*ParamSpec

// Lookup returns the spec for ns.method, or nil.
func (r RouteSchema) Lookup(namespace, method string) *MethodSpec {
	ns, ok := r[namespace]
	if !ok {
		return nil
	}
	return ns[method]
}
