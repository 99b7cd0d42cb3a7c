// Package fixloop runs one check-extract-patch-verify pass over a project.
package fixloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/diff"
	"github.com/dimensionhq/neura/internal/patch"
	"github.com/dimensionhq/neura/internal/provider"
)

// Applier applies one plan. *patch.Applier implements it.
type Applier interface {
	Apply(plan provider.EditPlan) (patch.Report, error)
}

type Options struct {
	Runner    diagnostic.Runner
	Requester *Requester
	Applier   Applier
	// Root resolves the relative file names the checker reports.
	Root       string
	HourlyRate float64
	// DryRun skips re-verification; the applier is expected to be in dry-run
	// mode as well.
	DryRun   bool
	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time
}

type Loop struct {
	opts     Options
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

func New(opts Options) *Loop {
	l := &Loop{opts: opts, observer: opts.Observer, logger: opts.Logger, now: opts.Now}
	if l.observer == nil {
		l.observer = nopObserver{}
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Run performs a single pass. Only check failures and cancellation are
// returned as errors; everything that goes wrong for one diagnostic is
// recorded on its Attempt.
func (l *Loop) Run(ctx context.Context) (Outcome, error) {
	m := l.opts.Requester.Model
	out := Outcome{Model: m, DryRun: l.opts.DryRun, StartedAt: l.now()}

	l.observer.Observe(Event{Kind: EventCheckStarted})
	initial, err := l.opts.Runner.Run(ctx)
	if err != nil {
		return out, fmt.Errorf("initial check: %w", err)
	}
	initial = diagnostic.Dedupe(initial)
	l.observer.Observe(Event{Kind: EventCheckFinished, Diagnostics: initial, Total: len(initial)})
	l.logger.Info("initial check finished", "errors", len(initial))

	out.Initial = len(initial)
	if len(initial) == 0 {
		out.NoErrors = true
		out.FinishedAt = l.now()
		return out, nil
	}

	for i, d := range initial {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		attempt := l.attempt(ctx, i, len(initial), d)
		out.TimeSavedSeconds += attempt.EffortSeconds
		out.GenerationCost += attempt.Cost
		out.Attempts = append(out.Attempts, attempt)
	}

	if l.opts.DryRun {
		out.Remaining = len(initial)
		out.StillFailing = len(initial)
	} else {
		l.observer.Observe(Event{Kind: EventReverifyStarted})
		after, err := l.opts.Runner.Run(ctx)
		if err != nil {
			return out, fmt.Errorf("re-check: %w", err)
		}
		l.observer.Observe(Event{Kind: EventReverifyFinished, Diagnostics: after, Total: len(after)})

		// Matched on message alone: an edit can move an error to another
		// file without fixing it.
		still := diagnostic.Messages(after)
		for i := range out.Attempts {
			if _, ok := still[out.Attempts[i].Diagnostic.Message]; ok {
				out.Remaining++
				continue
			}
			out.Attempts[i].Resolved = true
			out.Resolved++
		}
		out.StillFailing = len(after)
	}

	out.CostSavings = Savings(out.TimeSavedSeconds, l.opts.HourlyRate)
	out.NetBenefit = out.CostSavings - out.GenerationCost
	out.FinishedAt = l.now()
	l.logger.Info("fix run finished",
		"resolved", out.Resolved,
		"remaining", out.Remaining,
		"still_failing", out.StillFailing,
		"net_benefit", out.NetBenefit,
	)
	return out, nil
}

func (l *Loop) attempt(ctx context.Context, index, total int, d diagnostic.Diagnostic) Attempt {
	a := Attempt{Diagnostic: d}
	l.observer.Observe(Event{Kind: EventRequestStarted, Index: index, Total: total, Diagnostic: d})

	skip := func(status Status, err error) Attempt {
		a.Status = status
		a.Err = err
		a.Error = err.Error()
		l.logger.Warn("diagnostic not fixed", "file", d.File, "status", status, "error", err)
		l.observer.Observe(Event{Kind: EventSkipped, Index: index, Total: total, Diagnostic: d, Err: err})
		return a
	}

	contents, err := os.ReadFile(l.resolve(d.File))
	if err != nil {
		return skip(StatusFailed, &patch.FileIOError{Op: "read", Path: d.File, Err: err})
	}

	res, err := l.opts.Requester.RequestFix(ctx, d, string(contents))
	a.PromptTokens = res.PromptTokens
	a.ResponseTokens = res.ResponseTokens
	a.Cost = res.Cost(l.opts.Requester.Model)
	if err != nil {
		return skip(StatusSkipped, err)
	}
	l.observer.Observe(Event{Kind: EventPlanReceived, Index: index, Total: total, Diagnostic: d, Result: res})

	report, applyErr := l.opts.Applier.Apply(res.Plan)
	for _, edit := range report.Applied {
		l.observer.Observe(Event{Kind: EventEditApplied, Index: index, Total: total, Diagnostic: d, Edit: edit})
	}
	for _, invalid := range report.Invalid {
		l.observer.Observe(Event{Kind: EventEditInvalid, Index: index, Total: total, Diagnostic: d, Edit: invalid.Edit, Err: invalid})
	}
	a.Applied = report.AppliedCount()
	a.Invalid = len(report.Invalid)
	a.EffortSeconds = report.EffortSeconds
	if rendered, err := diff.Render(report.Diffs); err != nil {
		l.logger.Debug("failed to render diff", "file", d.File, "error", err)
	} else {
		a.Diff = rendered
	}

	if applyErr != nil {
		var ioErr *patch.FileIOError
		if !errors.As(applyErr, &ioErr) {
			applyErr = &patch.FileIOError{Op: "apply", Path: d.File, Err: applyErr}
		}
		return skip(StatusFailed, applyErr)
	}
	if a.Applied > 0 {
		a.Status = StatusPatched
	} else {
		a.Status = StatusNoEdits
	}
	return a
}

func (l *Loop) resolve(name string) string {
	if filepath.IsAbs(name) || l.opts.Root == "" {
		return name
	}
	return filepath.Join(l.opts.Root, name)
}
