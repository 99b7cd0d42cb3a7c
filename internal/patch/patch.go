package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dimensionhq/neura/internal/diff"
	"github.com/dimensionhq/neura/internal/provider"
	"github.com/dimensionhq/neura/internal/redact"
)

type Options struct {
	// Root resolves relative edit paths. Empty means the working directory.
	Root string
	// DryRun computes the result of every edit without writing.
	DryRun bool
	Logger *slog.Logger
}

// Applier applies EditPlans one line at a time.
type Applier struct {
	root   string
	dryRun bool
	logger *slog.Logger

	// beforeWrite runs between the read and the verified write.
	beforeWrite func(path string)
}

func New(opts Options) *Applier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{root: opts.Root, dryRun: opts.DryRun, logger: logger}
}

// Report describes what one plan did to the tree.
type Report struct {
	Applied       []provider.Edit
	Invalid       []*InvalidEditError
	EffortSeconds int
	Diffs         []*diff.FileDiff
}

func (r Report) AppliedCount() int {
	return len(r.Applied)
}

// Files lists the touched files in the order they were first edited.
func (r Report) Files() []string {
	files := make([]string, 0, len(r.Diffs))
	for _, fd := range r.Diffs {
		files = append(files, diff.Path(fd))
	}
	return files
}

type fileState struct {
	name   string
	before []byte
	after  []byte
}

// Apply runs the plan's edits in order. Invalid line numbers are collected
// in the report; the first *FileIOError stops the plan and is returned along
// with the report of what was applied before it.
func (a *Applier) Apply(plan provider.EditPlan) (Report, error) {
	var report Report
	var order []string
	states := map[string]*fileState{}

	finish := func(err error) (Report, error) {
		for _, path := range order {
			st := states[path]
			if fd := diff.Compute(st.name, st.before, st.after, diff.DefaultContext); fd != nil {
				report.Diffs = append(report.Diffs, fd)
			}
		}
		return report, err
	}

	for i, edit := range plan.Changes {
		path := a.resolve(edit.File)
		st, seen := states[path]

		var data []byte
		var mode os.FileMode
		if a.dryRun && seen {
			data = st.after
		} else {
			info, err := os.Stat(path)
			if err != nil {
				return finish(&FileIOError{Op: "read", Path: edit.File, Err: err})
			}
			mode = info.Mode().Perm()
			data, err = os.ReadFile(path)
			if err != nil {
				return finish(&FileIOError{Op: "read", Path: edit.File, Err: err})
			}
		}
		if !seen {
			st = &fileState{name: edit.File, before: data}
			states[path] = st
			order = append(order, path)
		}

		doc := parseDocument(data)
		count := doc.count()
		reason := ""
		switch {
		case edit.LineNumber < 1 || edit.LineNumber > count+1:
			// Out of range; reported below.
		case strings.ContainsAny(edit.NewLine, "\r\n"):
			reason = "replacement spans several lines"
		case strings.Contains(edit.NewLine, redact.Redacted) &&
			(edit.LineNumber > count || !strings.Contains(doc.line(edit.LineNumber), redact.Redacted)):
			reason = "replacement contains a redacted secret"
		}
		switch {
		case reason == "" && edit.LineNumber >= 1 && edit.LineNumber <= count:
			doc.replace(edit.LineNumber, edit.NewLine)
		case reason == "" && edit.LineNumber == count+1:
			doc.appendLine(edit.NewLine)
		default:
			invalid := &InvalidEditError{Edit: edit, LineCount: count, Reason: reason}
			a.logger.Warn("skipping edit", "index", i, "file", edit.File, "line", edit.LineNumber, "line_count", count, "error", invalid)
			report.Invalid = append(report.Invalid, invalid)
			st.after = data
			continue
		}

		out := doc.bytes()
		if !a.dryRun {
			if a.beforeWrite != nil {
				a.beforeWrite(path)
			}
			if err := verifyAndWrite(path, contentHash(data), out, mode); err != nil {
				return finish(&FileIOError{Op: "write", Path: edit.File, Err: err})
			}
		}
		st.after = out
		report.Applied = append(report.Applied, edit)
		report.EffortSeconds += edit.TimeEstimateSeconds
		a.logger.Debug("applied edit", "file", edit.File, "line", edit.LineNumber, "dry_run", a.dryRun)
	}
	return finish(nil)
}

func (a *Applier) resolve(name string) string {
	if filepath.IsAbs(name) || a.root == "" {
		return name
	}
	return filepath.Join(a.root, name)
}

func contentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// verifyAndWrite refuses to overwrite a file whose content no longer matches
// expectedHash.
func verifyAndWrite(path string, expectedHash string, content []byte, perm os.FileMode) error {
	current, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-reading file for verification: %w", err)
	}
	if contentHash(current) != expectedHash {
		return ErrConflict
	}
	return atomicWriteFile(path, content, perm)
}

// atomicWriteFile writes through a temp file in the same directory and
// renames it over path.
func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".neura-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}
