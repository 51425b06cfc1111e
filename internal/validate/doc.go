// Package validate decides whether recorded calls against a mock API client
// match the parameter contract declared for each method.
//
// A method's raw parameter map is first resolved into a [Params] tree by a
// [Resolver]: shared definitions referenced through the "$name" marker are
// substituted, alias parameters take their target's contract, and dotted names
// such as "author.email" become children of "author". A [Validator] built from
// that tree then inspects calls and reports every checked condition to an
// [AssertFunc]:
//
//	params, err := validate.NewResolver(defs).Resolve(method.Params)
//	if err != nil {
//	    return err
//	}
//	v := validate.New(params)
//	v.CheckCall(func(ok bool, msg string) {
//	    if !ok {
//	        t.Error(msg)
//	    }
//	}, validate.CallArgs{map[string]any{"owner": "octocat"}})
//
// Validation never returns an error and never stops at the first problem:
// each violated condition yields one failed assertion so a single call can
// surface several independent issues.
package validate
