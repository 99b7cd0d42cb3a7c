package diagnostic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/dimensionhq/neura/internal/config"
)

// Runner produces the current set of compiler errors for a project.
type Runner interface {
	Run(ctx context.Context) ([]Diagnostic, error)
}

// ExecRunner spawns the configured check command and parses its stdout.
type ExecRunner struct {
	command string
	args    []string
	dir     string
	lenient bool
	logger  *slog.Logger
}

func NewExecRunner(cfg config.CheckConfig, dir string, logger *slog.Logger) *ExecRunner {
	command := cfg.Command
	args := cfg.Args
	if command == "" {
		command = config.DefaultCheckCommand
		args = config.DefaultCheckArgs()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecRunner{command: command, args: args, dir: dir, lenient: cfg.Lenient, logger: logger}
}

// CommandLine returns the command as it would be typed in a shell.
func (r *ExecRunner) CommandLine() string {
	return strings.TrimSpace(r.command + " " + strings.Join(r.args, " "))
}

// Run blocks until the check process exits. The exit status is logged but
// never treated as a failure: the parsed diagnostics are the only result.
func (r *ExecRunner) Run(ctx context.Context) ([]Diagnostic, error) {
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	if r.dir != "" {
		cmd.Dir = r.dir
	}
	cmd.Stdin = nil
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Command: r.command, Args: r.args, Err: err}
	}

	r.logger.Debug("starting check process", "command", r.CommandLine(), "dir", r.dir)
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Command: r.command, Args: r.args, Err: err}
	}

	diags, parseErr := Parse(stdout, ParseOptions{Lenient: r.lenient, Logger: r.logger})
	if parseErr != nil {
		// Nothing else will drain stdout, so stop the process before waiting.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if parseErr != nil {
		return nil, parseErr
	}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		r.logger.Debug("check process exited", "exit_code", 0, "errors", len(diags))
	case errors.As(waitErr, &exitErr):
		r.logger.Debug("check process exited", "exit_code", exitErr.ExitCode(), "errors", len(diags), "stderr_bytes", stderr.Len())
	default:
		r.logger.Warn("waiting on check process failed", "error", waitErr)
	}
	return diags, nil
}

// FixtureRunner replays recorded check output from JSON-lines files. Each
// call to Run consumes the next path; the last path repeats once the list is
// exhausted.
type FixtureRunner struct {
	Paths   []string
	Lenient bool
	calls   int
}

func NewFixtureRunner(paths ...string) *FixtureRunner {
	return &FixtureRunner{Paths: paths}
}

func (f *FixtureRunner) Run(ctx context.Context) ([]Diagnostic, error) {
	_ = ctx
	if len(f.Paths) == 0 {
		return nil, &ProcessError{Command: "fixture", Err: fmt.Errorf("no fixture paths configured")}
	}
	idx := f.calls
	if idx >= len(f.Paths) {
		idx = len(f.Paths) - 1
	}
	f.calls++

	file, err := os.Open(f.Paths[idx])
	if err != nil {
		return nil, &ProcessError{Command: "fixture", Args: []string{f.Paths[idx]}, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()
	return Parse(file, ParseOptions{Lenient: f.Lenient})
}

// SequenceRunner returns prepared batches in order, repeating the last one.
// Err, when set, is returned by the call with index ErrAt.
type SequenceRunner struct {
	Batches [][]Diagnostic
	Err     error
	ErrAt   int
	calls   int
}

func (s *SequenceRunner) Run(ctx context.Context) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call := s.calls
	s.calls++
	if s.Err != nil && call == s.ErrAt {
		return nil, s.Err
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	idx := min(call, len(s.Batches)-1)
	return append([]Diagnostic(nil), s.Batches[idx]...), nil
}

// Calls reports how many times Run was invoked.
func (s *SequenceRunner) Calls() int {
	return s.calls
}
