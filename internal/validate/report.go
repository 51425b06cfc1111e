package validate

// AssertFunc receives the outcome of every checked condition. Test suites
// usually pass a thin wrapper around their assertion primitive.
type AssertFunc func(passed bool, message string)

// Assertion is one recorded AssertFunc invocation.
type Assertion struct {
	Passed  bool
	Message string
}

// Report collects assertions in the order they were raised.
type Report struct {
	Assertions []Assertion
}

// Assert records one outcome. It has the AssertFunc signature.
func (r *Report) Assert(passed bool, message string) {
	r.Assertions = append(r.Assertions, Assertion{Passed: passed, Message: message})
}

// Failures returns the failed assertions.
func (r *Report) Failures() []Assertion {
	var out []Assertion
	for _, a := range r.Assertions {
		if !a.Passed {
			out = append(out, a)
		}
	}
	return out
}

// Passed reports whether no assertion failed.
func (r *Report) Passed() bool {
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Reset drops every recorded assertion.
func (r *Report) Reset() { r.Assertions = nil }
