package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/store"
	"github.com/dimensionhq/neura/internal/ux"
)

func NewHistoryCmd() *cobra.Command {
	var limit int
	var format string
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past runs, or show the attempts of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (expected text or json)", format)
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				runs, err := app.Store.ListRuns(limit)
				if err != nil {
					return err
				}
				if format == "json" {
					if runs == nil {
						runs = []store.Run{}
					}
					return writeJSON(out, runs)
				}
				return renderRuns(out, runs)
			}

			run, err := app.Store.GetRun(args[0])
			if err != nil {
				return err
			}
			attempts, err := app.Store.Attempts(run.ID)
			if err != nil {
				return err
			}
			if format == "json" {
				if attempts == nil {
					attempts = []store.Attempt{}
				}
				return writeJSON(out, struct {
					store.Run
					Attempts []store.Attempt `json:"attempts"`
				}{run, attempts})
			}
			return renderRun(out, run, attempts, showDiff)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Include recorded diffs")
	return cmd
}

func renderRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODEL\tRESOLVED\tREMAIN\tNET")
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%.2f$\n",
			id, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Model,
			run.Resolved, run.Initial, run.StillFailing, run.NetBenefit)
	}
	return tw.Flush()
}

func renderRun(w io.Writer, run store.Run, attempts []store.Attempt, showDiff bool) error {
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Model)
	fmt.Fprintf(w, "Started %s in %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Root)
	fmt.Fprintf(w, "Resolved %d of %d, %d remain. Saved %.2f$ for %.4f$ of generation.\n",
		run.Resolved, run.Initial, run.StillFailing, run.CostSavings, run.GenerationCost)
	for _, a := range attempts {
		icon := ux.IconError
		if a.Resolved {
			icon = ux.IconSuccess
		}
		fmt.Fprintf(w, "%s %s: %s [%s, %d applied, %d invalid]\n", icon, a.File, headline(a.Message), a.Status, a.Applied, a.Invalid)
		if a.Error != "" {
			fmt.Fprintf(w, "    %s\n", a.Error)
		}
		if showDiff && a.Diff != "" {
			fmt.Fprint(w, a.Diff)
		}
	}
	return nil
}
