package fnwrap

import (
	"errors"
	"fmt"

	sb "github.com/reoring/skemabridge"
)

// Error kinds reported by Kind().
const (
	KindArgumentValidation = "ArgumentValidationError"
	KindReturnValidation   = "ReturnValidationError"
)

// ArgumentValidationError reports arguments that failed validation. The
// caller can fix the input and retry.
type ArgumentValidationError struct {
	Operation string
	Issues    sb.Issues
	// Report groups messages by dotted field path.
	Report sb.Flattened
}

func (e *ArgumentValidationError) Error() string {
	return fmt.Sprintf("%s: invalid arguments for %q: %s", e.Kind(), e.Operation, e.Issues.Error())
}

func (e *ArgumentValidationError) Kind() string { return KindArgumentValidation }

// ReturnValidationError reports a handler result that does not satisfy the
// declared Returns schema. It points at a bug in the handler, not at the
// caller's input.
type ReturnValidationError struct {
	Operation string
	Issues    sb.Issues
	Report    sb.Flattened
}

func (e *ReturnValidationError) Error() string {
	return fmt.Sprintf("%s: handler %q returned an invalid value: %s", e.Kind(), e.Operation, e.Issues.Error())
}

func (e *ReturnValidationError) Kind() string { return KindReturnValidation }

func issuesFrom(err error) sb.Issues {
	if iss, ok := sb.AsIssues(err); ok {
		return iss
	}
	return sb.Issues{sb.Root().Issue(sb.CodeCustom, err.Error())}
}

func newArgumentError(op string, err error) *ArgumentValidationError {
	iss := issuesFrom(err)
	return &ArgumentValidationError{Operation: op, Issues: iss, Report: iss.Flatten()}
}

func newReturnError(op string, err error) *ReturnValidationError {
	iss := issuesFrom(err)
	return &ReturnValidationError{Operation: op, Issues: iss, Report: iss.Flatten()}
}

// IsArgumentValidation reports whether err is or wraps an
// ArgumentValidationError.
func IsArgumentValidation(err error) bool {
	var target *ArgumentValidationError
	return errors.As(err, &target)
}

// IsReturnValidation reports whether err is or wraps a
// ReturnValidationError.
func IsReturnValidation(err error) bool {
	var target *ReturnValidationError
	return errors.As(err, &target)
}

// KindOf returns the Kind tag of a wrapper validation error, or "" for any
// other error.
func KindOf(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
