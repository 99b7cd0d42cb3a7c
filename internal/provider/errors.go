package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneration marks every failure to obtain a usable plan.
	ErrGeneration = errors.New("generation failed")

	// ErrTransport indicates the service could not be reached or refused
	// the request.
	ErrTransport = errors.New("generation transport failed")

	// ErrMalformedPlan indicates the completion did not match the EditPlan
	// schema.
	ErrMalformedPlan = errors.New("malformed edit plan")
)

// GenerationError is recovered per diagnostic: the diagnostic is skipped
// and the run continues.
type GenerationError struct {
	Provider string
	// Raw is the completion text, if one was received.
	Raw string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

func transportError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

func decodeError(provider string, raw string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Raw: raw, Err: err}
}
