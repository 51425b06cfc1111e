package validate

import "strings"

// Separator joins the segments of a nested parameter name.
const Separator = "."

// Path is a parameter name split into its dotted segments.
type Path []string

// ParsePath splits a dotted parameter name.
func ParsePath(name string) Path {
	if name == "" {
		return nil
	}
	return Path(strings.Split(name, Separator))
}

func (p Path) String() string { return strings.Join(p, Separator) }

// Nested reports whether p has a parent.
func (p Path) Nested() bool { return len(p) > 1 }

// Last returns the final segment.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns p without its final segment. The parent of a top-level name
// is empty.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Child appends one segment.
func (p Path) Child(seg string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, seg)
}

// WithLast replaces the final segment, keeping the parent path.
func (p Path) WithLast(seg string) Path {
	return p.Parent().Child(seg)
}
