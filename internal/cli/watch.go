package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/fixloop"
	"github.com/dimensionhq/neura/internal/patch"
	"github.com/dimensionhq/neura/internal/prompt"
	"github.com/dimensionhq/neura/internal/store"
	"github.com/dimensionhq/neura/internal/ux"
)

type watchOptions struct {
	format   string
	dryRun   bool
	showDiff bool
	noRecord bool
}

func (o *watchOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format: text|json")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Request fixes but do not write files")
	cmd.Flags().BoolVar(&o.showDiff, "diff", false, "Print the diff of every applied plan")
	cmd.Flags().BoolVar(&o.noRecord, "no-record", false, "Do not save the run to history")
}

func NewWatchCmd() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check the project, fix each error and re-check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			return runWatch(cmd, app, opts)
		},
	}
	opts.bindFlags(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, app *App, opts watchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q (expected text or json)", opts.format)
	}
	m, err := app.Config.RequireModel()
	if err != nil {
		return err
	}
	gen, err := app.Generator(m)
	if err != nil {
		return err
	}
	template, err := prompt.LoadTemplate()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	obs := newWatchObserver(out, app.CheckCommandLine(), opts.format == "text")
	defer obs.spinner.Stop()

	if opts.format == "text" {
		fmt.Fprintln(out, "⭐ Neura has joined your session.")
	}

	loop := fixloop.New(fixloop.Options{
		Runner: app.Runner(),
		Requester: &fixloop.Requester{
			Generator:   gen,
			Counter:     app.Counter,
			Template:    template,
			Model:       m,
			MaxTokens:   app.Config.Provider.MaxTokens,
			Temperature: app.Config.Provider.Temperature,
			Redact:      app.Config.Redaction.Enabled,
		},
		Applier:    patch.New(patch.Options{Root: app.Config.Root, DryRun: opts.dryRun, Logger: app.Logger}),
		Root:       app.Config.Root,
		HourlyRate: app.Config.HourlyRate,
		DryRun:     opts.dryRun,
		Observer:   obs,
		Logger:     app.Logger,
	})
	outcome, err := loop.Run(cmd.Context())
	obs.spinner.Stop()
	if err != nil {
		return err
	}

	runID := ""
	if !opts.noRecord && !outcome.NoErrors {
		runID, err = recordOutcome(app.Store, app.Config, outcome)
		if err != nil {
			app.Logger.Warn("failed to record run", "error", err)
		}
	}

	if opts.format == "json" {
		return writeJSON(out, watchResult{RunID: runID, Outcome: outcome})
	}
	renderOutcome(out, outcome, opts.showDiff)
	return nil
}

type watchResult struct {
	RunID string `json:"run_id,omitempty"`
	fixloop.Outcome
}

func renderOutcome(w io.Writer, outcome fixloop.Outcome, showDiff bool) {
	if outcome.NoErrors {
		fmt.Fprintln(w, "🎉 No errors found.")
		return
	}
	if showDiff || outcome.DryRun {
		for _, a := range outcome.Attempts {
			if a.Diff == "" {
				continue
			}
			if ux.IsTerminal(w) {
				fmt.Fprint(w, ux.Diff(a.Diff))
			} else {
				fmt.Fprint(w, a.Diff)
			}
		}
	}
	if outcome.DryRun {
		fmt.Fprintf(w, "Dry run: %d %s planned, no files were changed. Estimated saving %.2f$.\n",
			countApplied(outcome), plural(countApplied(outcome), "edit", "edits"), outcome.NetBenefit)
		return
	}
	fmt.Fprintf(w, "✅ Successfully resolved %d %s, saving you %.2f$. %d remain.\n",
		outcome.Resolved, plural(outcome.Resolved, "error", "errors"), outcome.NetBenefit, outcome.StillFailing)
}

func countApplied(outcome fixloop.Outcome) int {
	n := 0
	for _, a := range outcome.Attempts {
		n += a.Applied
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func recordOutcome(st *store.Store, cfg config.Config, outcome fixloop.Outcome) (string, error) {
	run := store.Run{
		Model:            outcome.Model.Code(),
		Root:             cfg.Root,
		DryRun:           outcome.DryRun,
		Initial:          outcome.Initial,
		Resolved:         outcome.Resolved,
		Remaining:        outcome.Remaining,
		StillFailing:     outcome.StillFailing,
		TimeSavedSeconds: outcome.TimeSavedSeconds,
		CostSavings:      outcome.CostSavings,
		GenerationCost:   outcome.GenerationCost,
		NetBenefit:       outcome.NetBenefit,
		StartedAt:        outcome.StartedAt,
		FinishedAt:       outcome.FinishedAt,
	}
	attempts := make([]store.Attempt, 0, len(outcome.Attempts))
	for _, a := range outcome.Attempts {
		attempts = append(attempts, store.Attempt{
			Fingerprint:    a.Diagnostic.Fingerprint,
			File:           a.Diagnostic.File,
			Message:        a.Diagnostic.Message,
			Status:         string(a.Status),
			Applied:        a.Applied,
			Invalid:        a.Invalid,
			EffortSeconds:  a.EffortSeconds,
			PromptTokens:   a.PromptTokens,
			ResponseTokens: a.ResponseTokens,
			Cost:           a.Cost,
			Resolved:       a.Resolved,
			Error:          a.Error,
			Diff:           a.Diff,
		})
	}
	return st.RecordRun(run, attempts)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}
