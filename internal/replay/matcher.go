package replay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/routemock/internal/spec"
	"github.com/mark3labs/routemock/internal/validate"
)

// slashedPlaceholders may capture values containing "/", such as git refs.
var slashedPlaceholders = []string{"ref", "url"}

var placeholder = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)|\{([^{}/]+)\}`)

type route struct {
	namespace string
	method    string
	spec      *spec.MethodSpec
	params    *validate.Params
	re        *regexp.Regexp
	// groups maps regexp group names to placeholder names.
	groups map[string]string
}

// Matcher finds the route schema method a recorded request was made for.
type Matcher struct {
	table []route
}

// NewMatcher compiles a URL pattern for every method in routes, with "$name"
// parameters resolved against defs. Method aliases are skipped; requests
// match the method they point at.
func NewMatcher(routes spec.RouteSchema, defs spec.Definitions) (*Matcher, error) {
	m := &Matcher{}
	resolver := validate.NewResolver(defs)
	for _, ns := range spec.SortedNamespaces(routes) {
		for _, name := range spec.SortedMethods(routes[ns]) {
			ms := routes[ns][name]
			if ms == nil || ms.Alias != "" || ms.URL == "" {
				continue
			}
			params, err := resolver.Resolve(ms.Params)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ns, name, err)
			}
			re, groups, err := compileURL(ms.URL, params)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ns, name, err)
			}
			m.table = append(m.table, route{namespace: ns, method: name, spec: ms, params: params, re: re, groups: groups})
		}
	}
	return m, nil
}

// cleanPath drops the leading slash and the query string.
func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func compileURL(rawURL string, params *validate.Params) (*regexp.Regexp, map[string]string, error) {
	url := cleanPath(rawURL)
	anyValue := `[^/]*`
	for _, name := range slashedPlaceholders {
		if strings.Contains(url, ":"+name) || strings.Contains(url, "{"+name+"}") {
			anyValue = `.*`
			break
		}
	}

	var b strings.Builder
	groups := map[string]string{}
	b.WriteString("^")
	last := 0
	for i, loc := range placeholder.FindAllStringSubmatchIndex(url, -1) {
		b.WriteString(regexp.QuoteMeta(url[last:loc[0]]))
		last = loc[1]

		name := ""
		if loc[2] >= 0 {
			name = url[loc[2]:loc[3]]
		} else {
			name = url[loc[4]:loc[5]]
		}
		group := fmt.Sprintf("p%d", i)
		groups[group] = name
		fmt.Fprintf(&b, "(?P<%s>%s)", group, placeholderPattern(params, name, anyValue))
	}
	b.WriteString(regexp.QuoteMeta(url[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, groups, nil
}

// placeholderPattern is the validation pattern of p without anchors, the
// alternation of its enum, or anyValue.
func placeholderPattern(params *validate.Params, name, anyValue string) string {
	param, ok := params.Lookup(name)
	if !ok {
		return anyValue
	}
	p := param.Spec
	if v := p.Validation; v != "" {
		v = strings.TrimPrefix(v, "^")
		v = strings.TrimSuffix(v, "$")
		if _, err := regexp.Compile(v); err == nil {
			return "(?:" + v + ")"
		}
	}
	if len(p.Enum) > 0 {
		alts := make([]string, len(p.Enum))
		for i, e := range p.Enum {
			alts[i] = regexp.QuoteMeta(fmt.Sprint(e))
		}
		return "(?:" + strings.Join(alts, "|") + ")"
	}
	return anyValue
}

// Match returns the first method, in namespace then method name order, whose
// HTTP method and URL pattern fit req.
func (m *Matcher) Match(req Request) (namespace, method string, ok bool) {
	r, ok := m.match(req)
	if !ok {
		return "", "", false
	}
	return r.namespace, r.method, true
}

func (m *Matcher) match(req Request) (*route, bool) {
	path := cleanPath(req.Path)
	for i := range m.table {
		r := &m.table[i]
		if !strings.EqualFold(string(r.spec.Method), req.Method) {
			continue
		}
		if r.re.MatchString(path) {
			return r, true
		}
	}
	return nil, false
}

func (m *Matcher) lookup(namespace, method string) (*route, bool) {
	for i := range m.table {
		if m.table[i].namespace == namespace && m.table[i].method == method {
			return &m.table[i], true
		}
	}
	return nil, false
}
