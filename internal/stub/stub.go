// Package stub assembles call-recording stand-ins for every method of a route
// schema and binds each one to the validator for that method's parameters.
package stub

import (
	"github.com/stretchr/testify/mock"

	"github.com/mark3labs/routemock/internal/validate"
)

const invokeMethod = "invoke"

// Stub records invocations of one client method. Calls are recorded through
// a testify mock so the usual mock assertions work on Mock() as well.
type Stub struct {
	name      string
	m         mock.Mock
	validator *validate.Validator
}

func newStub(name string, v *validate.Validator) *Stub {
	s := &Stub{name: name, validator: v}
	s.arm(nil)
	return s
}

func (s *Stub) arm(ret any) {
	s.m.ExpectedCalls = nil
	s.m.On(invokeMethod, mock.Anything).Return(ret)
}

// Name returns the "namespace.method" the stub stands in for.
func (s *Stub) Name() string { return s.name }

// Mock exposes the underlying testify mock.
func (s *Stub) Mock() *mock.Mock { return &s.m }

// Invoke records a call with args and returns the configured value.
func (s *Stub) Invoke(args ...any) any {
	return s.m.MethodCalled(invokeMethod, args).Get(0)
}

// Returns sets the value later invocations return.
func (s *Stub) Returns(v any) *Stub {
	s.arm(v)
	return s
}

// Called reports whether the stub was invoked since the last reset.
func (s *Stub) Called() bool { return len(s.m.Calls) > 0 }

// CallCount returns the number of recorded invocations.
func (s *Stub) CallCount() int { return len(s.m.Calls) }

// Calls returns the recorded invocations, oldest first.
func (s *Stub) Calls() []validate.Call {
	out := make([]validate.Call, 0, len(s.m.Calls))
	for _, c := range s.m.Calls {
		out = append(out, callArgs(c))
	}
	return out
}

// FirstCall returns the oldest recorded invocation, or nil.
func (s *Stub) FirstCall() validate.Call {
	if len(s.m.Calls) == 0 {
		return nil
	}
	return callArgs(s.m.Calls[0])
}

// LastCall returns the most recent invocation, or nil.
func (s *Stub) LastCall() validate.Call {
	if len(s.m.Calls) == 0 {
		return nil
	}
	return callArgs(s.m.Calls[len(s.m.Calls)-1])
}

func callArgs(c mock.Call) validate.Call {
	if len(c.Arguments) == 0 {
		return validate.CallArgs(nil)
	}
	args, _ := c.Arguments.Get(0).([]any)
	return validate.CallArgs(args)
}

// Reset drops the call history and configured return value. The validator
// stays attached.
func (s *Stub) Reset() {
	s.m.Calls = nil
	s.arm(nil)
}

// HasValidator reports whether the stub checks its arguments.
func (s *Stub) HasValidator() bool { return s.validator != nil }

// Validator returns the attached validator, or nil for convenience stubs.
func (s *Stub) Validator() *validate.Validator { return s.validator }

// ArgumentsValid checks the most recent call.
func (s *Stub) ArgumentsValid(assert validate.AssertFunc) {
	if s.validator == nil {
		return
	}
	s.validator.ArgumentsValid(assert, s)
}

// ArgumentsValidFor checks a specific call, typically one from Calls.
func (s *Stub) ArgumentsValidFor(assert validate.AssertFunc, call validate.Call) {
	if s.validator == nil {
		return
	}
	s.validator.CheckCall(assert, call)
}

// AllArgumentsValid checks every recorded call in order.
func (s *Stub) AllArgumentsValid(assert validate.AssertFunc) {
	if s.validator == nil {
		return
	}
	s.validator.AllArgumentsValid(assert, s)
}

// Namespace maps method name to its stub.
type Namespace map[string]*Stub
