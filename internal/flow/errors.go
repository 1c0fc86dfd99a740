package flow

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by [Invoker.Invoke] matches exactly one
// of these with errors.Is.
var (
	// ErrInputValidation means the request did not match the input schema.
	// No remote call was made.
	ErrInputValidation = errors.New("input validation error")

	// ErrTemplate means the prompt template could not be rendered. It
	// indicates a defect in a flow definition.
	ErrTemplate = errors.New("template error")

	// ErrRemoteService means the backend call failed or no backend is
	// configured. The cause is preserved.
	ErrRemoteService = errors.New("remote service error")

	// ErrOutputValidation means the model answered with data that does not
	// match the output schema.
	ErrOutputValidation = errors.New("output validation error")

	// ErrMediaGeneration means a speech or image flow got no usable media.
	ErrMediaGeneration = errors.New("media generation error")
)

var (
	// ErrNoBackend is the cause of a remote service error when no backend is
	// configured for the flow's modality.
	ErrNoBackend = errors.New("flow: no backend configured")

	// ErrUnknownFlow is returned by [Registry.Lookup] for undeclared names.
	ErrUnknownFlow = errors.New("flow: unknown flow")
)

// Error is a failed flow invocation.
type Error struct {
	// Flow is the name of the failed flow.
	Flow string

	// Kind is one of the Err* kind sentinels.
	Kind error

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("flow %s: %v: %v", e.Flow, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool { return target == e.Kind }

// KindOf returns a stable label for the kind of err, suitable for metrics
// and API responses. It returns "" for nil and "internal" for errors that are
// not flow errors.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputValidation):
		return "input_validation"
	case errors.Is(err, ErrTemplate):
		return "template"
	case errors.Is(err, ErrRemoteService):
		return "remote_service"
	case errors.Is(err, ErrOutputValidation):
		return "output_validation"
	case errors.Is(err, ErrMediaGeneration):
		return "media_generation"
	default:
		return "internal"
	}
}

func newError(flow string, kind, err error) *Error {
	return &Error{Flow: flow, Kind: kind, Err: err}
}
