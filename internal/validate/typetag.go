package validate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType reports a type tag outside the closed set understood by the
// validator.
var ErrUnknownType = errors.New("unknown parameter type")

// Kind is the base type of a parameter, without array suffixes.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindNumber
	KindInteger
	KindBoolean
	KindDate
	KindJSON
	KindObject
	KindStringOrObject
)

var kindNames = map[Kind]string{
	KindString:         "string",
	KindNumber:         "number",
	KindInteger:        "integer",
	KindBoolean:        "boolean",
	KindDate:           "date",
	KindJSON:           "json",
	KindObject:         "object",
	KindStringOrObject: "string | object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const arraySuffix = "[]"

// TypeTag is a parsed parameter type: a base kind wrapped in Depth array
// levels, so "string[]" is {KindString, 1}.
type TypeTag struct {
	Kind  Kind
	Depth int
}

// ParseTypeTag parses a declared type such as "integer", "object[]" or
// "string | object".
func ParseTypeTag(raw string) (TypeTag, error) {
	s := strings.TrimSpace(raw)
	depth := 0
	for strings.HasSuffix(s, arraySuffix) {
		s = strings.TrimSpace(strings.TrimSuffix(s, arraySuffix))
		depth++
	}
	base := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch base {
	case "string":
		return TypeTag{KindString, depth}, nil
	case "number":
		return TypeTag{KindNumber, depth}, nil
	case "integer":
		return TypeTag{KindInteger, depth}, nil
	case "boolean":
		return TypeTag{KindBoolean, depth}, nil
	case "date":
		return TypeTag{KindDate, depth}, nil
	case "json":
		return TypeTag{KindJSON, depth}, nil
	case "object":
		return TypeTag{KindObject, depth}, nil
	case "string | object", "string|object":
		return TypeTag{KindStringOrObject, depth}, nil
	}
	return TypeTag{}, fmt.Errorf("%w %q", ErrUnknownType, raw)
}

// IsArray reports whether the tag has at least one array level.
func (t TypeTag) IsArray() bool { return t.Depth > 0 }

// Elem strips one array level.
func (t TypeTag) Elem() TypeTag {
	if t.Depth == 0 {
		return t
	}
	return TypeTag{Kind: t.Kind, Depth: t.Depth - 1}
}

// IsObject reports whether values of this tag (or its elements) own dotted
// child parameters.
func (t TypeTag) IsObject() bool {
	return t.Kind == KindObject || t.Kind == KindStringOrObject
}

func (t TypeTag) String() string {
	return t.Kind.String() + strings.Repeat(arraySuffix, t.Depth)
}
