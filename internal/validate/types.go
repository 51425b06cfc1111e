package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// JSONParseFailure is the exact message reported for unparseable JSON payloads.
const JSONParseFailure = "Can not parse JSON"

// isoTimestamp approximates YYYY-MM-DDTHH:MM:SSZ with per-digit classes. It is
// not calendar-aware: "24:60:60" passes.
var isoTimestamp = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-6]\d:[0-6]\dZ$`)

// IsISOTimestamp reports whether s looks like an ISO-8601 UTC timestamp.
func IsISOTimestamp(s string) bool {
	return isoTimestamp.MatchString(s)
}

// CheckType validates value against tag. Object values are checked against
// the children of name in the validator's parameter tree.
func (v *Validator) CheckType(assert AssertFunc, name string, value any, tag TypeTag) {
	if tag.IsArray() {
		items, ok := asSequence(value)
		assert(ok, fmt.Sprintf("%s array value is not an array", name))
		elem := tag.Elem()
		for _, item := range items {
			v.CheckType(assert, name, item, elem)
		}
		return
	}

	switch tag.Kind {
	case KindString:
		_, ok := value.(string)
		assert(ok, fmt.Sprintf("%s is not of primitive type %s", name, tag.Kind))
	case KindBoolean:
		_, ok := value.(bool)
		assert(ok, fmt.Sprintf("%s is not of primitive type %s", name, tag.Kind))
	case KindNumber, KindInteger:
		assert(parsesAsInteger(value), fmt.Sprintf("%s is not a valid number", name))
	case KindDate:
		s, ok := value.(string)
		assert(ok, fmt.Sprintf("%s is not a Date in string form", name))
		if ok {
			assert(IsISOTimestamp(s), fmt.Sprintf("%s is not formatted as an ISO Date", name))
		}
	case KindJSON:
		checkJSON(assert, name, value)
	case KindObject, KindStringOrObject:
		assert(isObjectLike(value), fmt.Sprintf("%s is not an object, byte stream or JSON string", name))
		if obj, ok := asObject(value); ok {
			v.checkObject(assert, name, obj)
		} else if s, ok := value.(string); ok {
			checkJSON(assert, name, s)
		}
	default:
		assert(false, fmt.Sprintf("Unknown argument type %s for %s", tag, name))
	}
}

func checkJSON(assert AssertFunc, name string, value any) {
	s, ok := value.(string)
	assert(ok, fmt.Sprintf("%s JSON value is not a string", name))
	if !ok {
		return
	}
	if !json.Valid([]byte(s)) {
		assert(false, JSONParseFailure)
	}
}
