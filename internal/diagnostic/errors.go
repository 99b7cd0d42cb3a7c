package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the diagnostic package.
var (
	// ErrProcessStart indicates the check process could not be started.
	ErrProcessStart = errors.New("check process failed to start")

	// ErrMalformedOutput indicates a line of check output was not valid JSON
	// or did not have the shape of a compiler message.
	ErrMalformedOutput = errors.New("malformed check output")
)

// ProcessError reports a check process that could not be started.
// Fatal to the whole fix run.
type ProcessError struct {
	Command string
	Args    []string
	Err     error
}

func (e *ProcessError) Error() string {
	cmd := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	return fmt.Sprintf("%v: %s: %v", ErrProcessStart, cmd, e.Err)
}

func (e *ProcessError) Unwrap() []error {
	return []error{ErrProcessStart, e.Err}
}

// ParseError reports a line of check output that could not be decoded.
type ParseError struct {
	// Line is the 1-based line number within the output stream.
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return fmt.Sprintf("%v: line %d: %v: %q", ErrMalformedOutput, e.Line, e.Err, text)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}
