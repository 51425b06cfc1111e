package validate

import "fmt"

// checkObject validates the fields of obj against the parameters declared one
// level below parent. Every declared child is visited; a missing required
// field does not stop the scan of its siblings.
func (v *Validator) checkObject(assert AssertFunc, parent string, obj map[string]any) {
	for _, child := range v.params.Children(parent) {
		field := child.Name.Last()
		if value, ok := obj[field]; ok {
			v.checkParam(assert, child, value)
			continue
		}
		if child.Spec.Required && !v.presentViaAlias(child, obj) {
			assert(false, fmt.Sprintf("%s property missing for %s", field, parent))
		}
	}
}

// presentViaAlias reports whether a parameter linked to p by an alias, in
// either direction, sits at the same level and is set in obj.
func (v *Validator) presentViaAlias(p *Param, obj map[string]any) bool {
	linked := v.params.AliasesOf(p.Key())
	if p.Spec.Alias != "" {
		linked = append(append([]string(nil), linked...), p.Spec.Alias)
	}
	parent := p.Name.Parent().String()
	for _, name := range linked {
		other := ParsePath(name)
		if other.Parent().String() != parent {
			continue
		}
		if _, ok := obj[other.Last()]; ok {
			return true
		}
	}
	return false
}
