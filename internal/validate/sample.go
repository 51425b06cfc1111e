package validate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// sampleStrings are tried in order against a declared validation pattern.
var sampleStrings = []string{"Foo", "none", "1", "top", "first"}

const sampleDate = "1999-12-31T23:00:00Z"

// SampleArgs builds an argument object that CheckCall accepts: every
// top-level parameter that is not an alias gets a value, and object
// parameters are filled in recursively.
func (v *Validator) SampleArgs() map[string]any {
	return v.sampleObject("")
}

func (v *Validator) sampleObject(parent string) map[string]any {
	obj := map[string]any{}
	for _, p := range v.params.Children(parent) {
		if p.Spec.Alias != "" {
			continue
		}
		obj[p.Name.Last()] = v.SampleValue(p)
	}
	return obj
}

// SampleValue picks a value for p: its default, then its first enum member,
// then a stock value of its type.
func (v *Validator) SampleValue(p *Param) any {
	if p.Spec.Default != nil {
		return sampleDefault(p)
	}
	if len(p.Spec.Enum) > 0 {
		if p.TypeErr == nil && p.Type.IsArray() {
			return []any{p.Spec.Enum[0]}
		}
		return p.Spec.Enum[0]
	}
	if p.TypeErr != nil {
		return sampleStrings[0]
	}
	return v.sampleOfType(p, p.Type)
}

func (v *Validator) sampleOfType(p *Param, t TypeTag) any {
	if t.IsArray() {
		return []any{v.sampleOfType(p, t.Elem())}
	}
	switch t.Kind {
	case KindString:
		return v.sampleString(p.Spec.Validation)
	case KindNumber, KindInteger:
		return 1
	case KindBoolean:
		return true
	case KindDate:
		return sampleDate
	case KindObject:
		return v.sampleObject(p.Key())
	case KindStringOrObject:
		if len(v.params.Children(p.Key())) > 0 {
			return v.sampleObject(p.Key())
		}
		return "{}"
	case KindJSON:
		return "{}"
	}
	return sampleStrings[0]
}

func (v *Validator) sampleString(validation string) string {
	if validation == "" {
		return sampleStrings[0]
	}
	re, err := v.pattern(validation)
	if err != nil {
		return sampleStrings[0]
	}
	for _, s := range sampleStrings {
		if re.MatchString(s) {
			return s
		}
	}
	return sampleStrings[0]
}

// sampleDefault converts string defaults to the declared scalar type.
func sampleDefault(p *Param) any {
	s, ok := p.Spec.Default.(string)
	if !ok || p.TypeErr != nil {
		return p.Spec.Default
	}
	switch {
	case p.Type.Depth == 0 && p.Type.Kind == KindBoolean:
		return s == "true"
	case p.Type.Depth == 0 && (p.Type.Kind == KindNumber || p.Type.Kind == KindInteger):
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	case p.Type.Depth > 0:
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			return items
		}
	}
	return s
}
