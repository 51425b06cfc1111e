package validate

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Call is one recorded invocation of a stand-in.
type Call interface {
	Args() []any
}

// CallArgs is a Call backed by a plain argument list.
type CallArgs []any

func (a CallArgs) Args() []any { return a }

// Recorder exposes the call history of a stand-in.
type Recorder interface {
	Called() bool
	LastCall() Call
	Calls() []Call
}

// Validator checks calls against one method's resolved parameters. It holds
// no per-call state, so replaying the same call always yields the same
// assertions.
type Validator struct {
	params *Params

	// patterns caches compiled validation patterns (sync.Map[string, *regexp.Regexp])
	patterns sync.Map
}

// New returns a validator for params. A nil params accepts no arguments.
func New(params *Params) *Validator {
	if params == nil {
		params = buildParams(nil)
	}
	return &Validator{params: params}
}

// Params returns the resolved parameters the validator checks against.
func (v *Validator) Params() *Params { return v.params }

// ArgumentsValid checks the most recent call recorded by rec.
func (v *Validator) ArgumentsValid(assert AssertFunc, rec Recorder) {
	if rec == nil || !rec.Called() {
		assert(true, "Not yet called")
		return
	}
	v.CheckCall(assert, rec.LastCall())
}

// AllArgumentsValid checks every call recorded by rec, oldest first.
func (v *Validator) AllArgumentsValid(assert AssertFunc, rec Recorder) {
	if rec == nil {
		return
	}
	for _, call := range rec.Calls() {
		v.CheckCall(assert, call)
	}
}

// CheckCall checks a single call. A call may carry at most one argument, an
// object mapping parameter names to values.
func (v *Validator) CheckCall(assert AssertFunc, call Call) {
	if call == nil {
		assert(true, "Not yet called")
		return
	}
	args := call.Args()
	assert(len(args) <= 1, "Too many parameters were given")
	switch len(args) {
	case 0:
		assert(!v.params.AnyRequired(), "Requires arguments but none were passed in")
		return
	case 1:
	default:
		return
	}

	obj := map[string]any{}
	if !isNil(args[0]) {
		var ok bool
		if obj, ok = asObject(args[0]); !ok {
			assert(false, "Arguments must be an object")
			return
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		p, declared := v.params.Lookup(key)
		assert(declared, fmt.Sprintf("%s is not a declared parameter", key))
		if declared {
			v.checkParam(assert, p, obj[key])
		}
	}

	for _, p := range v.params.Children("") {
		if !p.Spec.Required {
			continue
		}
		_, set := obj[p.Key()]
		assert(set || v.presentViaAlias(p, obj), fmt.Sprintf("%s is required and not set", p.Key()))
	}
}

// CheckArg checks a single named value against its declared parameter.
func (v *Validator) CheckArg(assert AssertFunc, name string, value any) {
	p, ok := v.params.Lookup(name)
	if !ok {
		assert(false, fmt.Sprintf("%s is not a declared parameter", name))
		return
	}
	v.checkParam(assert, p, value)
}

func (v *Validator) checkParam(assert AssertFunc, p *Param, value any) {
	name := p.Key()
	if isNil(value) {
		if !p.Spec.AllowNull {
			assert(false, fmt.Sprintf("%s may not be null", name))
		}
		return
	}

	if p.TypeErr != nil {
		assert(false, fmt.Sprintf("Unknown argument type %s for %s", p.Spec.Type, name))
	} else {
		v.CheckType(assert, name, value, p.Type)
	}

	if len(p.Spec.Enum) > 0 {
		assert(v.enumAllows(p.Spec.Enum, value), fmt.Sprintf("%s is not in the set of allowed values of %s", name, joinEnum(p.Spec.Enum)))
	}

	if p.Spec.Validation != "" {
		re, err := v.pattern(p.Spec.Validation)
		if err != nil {
			assert(false, fmt.Sprintf("%s declares an invalid pattern %q: %v", name, p.Spec.Validation, err))
			return
		}
		assert(re.MatchString(stringify(value)), fmt.Sprintf("%s does not match the required pattern of %q", name, p.Spec.Validation))
	}
}

// enumAllows accepts a scalar member of enum, or a sequence whose every
// element is a member.
func (v *Validator) enumAllows(enum []any, value any) bool {
	if _, isString := value.(string); !isString {
		if items, ok := asSequence(value); ok {
			for _, item := range items {
				if !inEnum(enum, item) {
					return false
				}
			}
			return true
		}
	}
	return inEnum(enum, value)
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := v.patterns.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(expr, re)
	return re, nil
}
