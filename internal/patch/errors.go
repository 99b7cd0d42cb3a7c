package patch

import (
	"errors"
	"fmt"

	"github.com/dimensionhq/neura/internal/provider"
)

var (
	// ErrInvalidLine marks an edit whose line number is outside 1..count+1.
	ErrInvalidLine = errors.New("line number out of range")

	// ErrFileIO marks a failure to read or rewrite a target file.
	ErrFileIO = errors.New("file i/o failed")

	// ErrInvalidText marks a replacement that is not one plain line: it spans
	// several lines or carries a redaction placeholder from the prompt.
	ErrInvalidText = errors.New("replacement is not a single source line")

	// ErrConflict means the file changed between reading and writing it.
	ErrConflict = errors.New("file changed since it was read")
)

// InvalidEditError is recorded per edit; the edit is skipped and the rest
// of the plan still runs.
type InvalidEditError struct {
	Edit      provider.Edit
	LineCount int
	// Reason is set when the line number was fine but the text was not.
	Reason string
}

func (e *InvalidEditError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: line %d: %s", e.Edit.File, e.Edit.LineNumber, e.Reason)
	}
	return fmt.Sprintf("%s: line %d is outside 1..%d", e.Edit.File, e.Edit.LineNumber, e.LineCount+1)
}

func (e *InvalidEditError) Unwrap() error {
	if e.Reason != "" {
		return ErrInvalidText
	}
	return ErrInvalidLine
}

// FileIOError aborts the rest of the plan it occurred in.
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() []error {
	return []error{ErrFileIO, e.Err}
}
