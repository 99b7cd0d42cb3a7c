package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/logging"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var verbose bool
	var logJSON bool
	var watch watchOptions

	root := &cobra.Command{
		Use:           "neura",
		Short:         "AI debugging copilot for cargo projects",
		Long:          "neura runs `cargo check`, asks a language model to fix each error, applies the edits and reports what was resolved.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := logging.New(logging.Config{Level: level, Writer: cmd.ErrOrStderr(), JSON: logJSON})
			app, err := initApp(configPath, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withApp(ctx, app))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app, err := getApp(cmd.Context()); err == nil {
				app.Close()
			}
		},
		// Bare `neura` watches.
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			return runWatch(cmd, app, watch)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Override neura.toml path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	watch.bindFlags(root)

	root.AddCommand(NewInitCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewDoctorCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewHistoryCmd())

	return root
}
