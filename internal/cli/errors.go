package cli

import (
	"errors"
	"fmt"

	"github.com/mark3labs/routemock/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

// ErrChecksFailed is returned when check or replay found invalid calls.
var ErrChecksFailed = errors.New("argument checks failed")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// specUsageError maps structured loader errors into friendly usage errors.
// Other errors pass through unchanged.
func specUsageError(what string, err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("%s: %s", what, se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}
