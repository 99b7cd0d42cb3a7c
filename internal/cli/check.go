package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/ux"
)

func NewCheckCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the checker and list its errors without fixing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (expected text or json)", format)
			}

			out := cmd.OutOrStdout()
			spinner := ux.NewSpinner(out)
			spinner.Start(fmt.Sprintf("💻 Running `%s` ...", app.CheckCommandLine()))
			diags, err := app.Runner().Run(cmd.Context())
			spinner.Stop()
			if err != nil {
				return err
			}
			diags = diagnostic.Dedupe(diags)

			if format == "json" {
				if diags == nil {
					diags = []diagnostic.Diagnostic{}
				}
				return writeJSON(out, diags)
			}
			if len(diags) == 0 {
				fmt.Fprintln(out, "🎉 No errors found.")
				return nil
			}
			fmt.Fprintf(out, "🔍 Found %d %s.\n", len(diags), plural(len(diags), "error", "errors"))
			for _, d := range diags {
				fmt.Fprintf(out, "%s %s: %s\n", ux.Styles.Error.Render(ux.IconError), d.File, headline(d.Message))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	return cmd
}

// headline is the first line of a rendered compiler message.
func headline(message string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return first
}
