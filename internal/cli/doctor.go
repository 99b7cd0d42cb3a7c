package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/prompt"
	"github.com/dimensionhq/neura/internal/ux"
)

var errDoctorFailed = errors.New("doctor checks failed")

func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ux.Styles.Title.Render("neura doctor"))
			failed := false
			report := func(name string, err error) {
				if err != nil {
					failed = true
					ux.Errorf(out, "%s: %v", name, err)
					return
				}
				ux.Successf(out, "%s: ok", name)
			}

			m, err := app.Config.RequireModel()
			report("config", err)

			if app.mock {
				report("checker", nil)
			} else {
				_, err := exec.LookPath(app.Config.Check.Command)
				report("checker", err)
			}

			_, err = prompt.LoadTemplate()
			report("prompt template", err)

			if app.Config.Provider.Kind == config.ProviderOpenAI && !app.mock && app.Config.APIKey == "" {
				report("api key", fmt.Errorf("%s is not set in the environment or %s", config.APIKeyVar, config.DotenvName))
			} else {
				report("api key", nil)
			}

			if m != "" {
				gen, err := app.Generator(m)
				if err == nil {
					err = gen.HealthCheck(ctx)
				}
				report("provider", err)
			}

			_, err = app.Store.ListRuns(1)
			report("history", err)

			if failed {
				return errDoctorFailed
			}
			fmt.Fprintln(out, "doctor checks passed")
			return nil
		},
	}
	return cmd
}
