package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// leadingInteger matches strings that integer-parse to a number: optional
// whitespace and sign, then at least one digit.
var leadingInteger = regexp.MustCompile(`^\s*[+-]?\d`)

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// asObject returns v as a string-keyed map.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asSequence returns the elements of a slice or array. Byte slices are
// payloads, not sequences.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte, json.RawMessage:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isObjectLike accepts the payload shapes a real client would send as a
// request body: strings, byte buffers, readers, and maps.
func isObjectLike(v any) bool {
	switch v.(type) {
	case string, []byte, json.RawMessage, io.Reader:
		return true
	}
	_, ok := asObject(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// parsesAsInteger mirrors integer-parse semantics: finite numbers and strings
// with a leading integer pass.
func parsesAsInteger(v any) bool {
	if f, ok := toFloat(v); ok {
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	if s, ok := v.(string); ok {
		return leadingInteger.MatchString(s)
	}
	return false
}

// normalizeScalar maps every numeric representation onto float64 so enum
// members declared as 1 match call values of 1.0 or json.Number("1").
func normalizeScalar(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

// stringify renders a value the way it is matched against validation patterns.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case []byte:
		return string(s)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if items, ok := asSequence(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func inEnum(enum []any, v any) bool {
	nv := normalizeScalar(v)
	for _, allowed := range enum {
		if reflect.DeepEqual(normalizeScalar(allowed), nv) {
			return true
		}
	}
	return false
}

func joinEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, ", ")
}
