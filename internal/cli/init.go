package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/model"
	"github.com/dimensionhq/neura/internal/ux"
)

type initOptions struct {
	dir    string
	model  string
	apiKey string
	force  bool
}

func NewInitCmd() *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Choose a model and write neura.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			return runInit(cmd, app, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", ".", "Project directory")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model code or name; skips the picker")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key to store in .env; skips the prompt")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing neura.toml without asking")
	return cmd
}

func runInit(cmd *cobra.Command, app *App, opts initOptions) error {
	out := cmd.OutOrStdout()
	ask := newPrompter(cmd)

	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	cfgPath := filepath.Join(dir, config.FileName)

	cfg := config.Defaults()
	if _, err := os.Stat(cfgPath); err == nil {
		if !opts.force {
			ok, err := ask.confirm(fmt.Sprintf("%s already exists. Overwrite? [y/N]: ", config.FileName))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}
		existing, err := config.Load(cfgPath, "")
		if err == nil {
			cfg = existing
		} else {
			app.Logger.Warn("ignoring unreadable config", "path", cfgPath, "error", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", cfgPath, err)
	}

	m, err := chooseModel(cmd, opts.model)
	if err != nil {
		return err
	}
	cfg.Model = m.Code()
	if _, err := config.Save(dir, cfg); err != nil {
		return err
	}
	app.Logger.Debug("config written", "path", cfgPath, "model", m.Code())

	if err := ensureAPIKey(cmd, ask, dir, opts.apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "🚀 Your project has been initialized with the %s model.\n", m)
	fmt.Fprintln(out, "💁 You can now run `neura` to start an ai-powered debugging copilot!")
	return nil
}

func chooseModel(cmd *cobra.Command, flag string) (model.Model, error) {
	if flag != "" {
		return model.FromLabel(flag)
	}
	if !ux.IsTerminal(cmd.OutOrStdout()) || !ux.IsTerminal(cmd.InOrStdin()) {
		// First entry is the default selection.
		return model.All()[0], nil
	}
	return runModelPicker(cmd.InOrStdin(), cmd.OutOrStdout(), model.All()[0])
}

func ensureAPIKey(cmd *cobra.Command, ask *prompter, dir string, flagKey string) error {
	out := cmd.OutOrStdout()
	envPath := config.DotenvPath(dir)

	_, statErr := os.Stat(envPath)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
		fmt.Fprintln(out, "It seems like you don't have a `.env` file. Let's create one!")
	case statErr != nil:
		return fmt.Errorf("failed to stat %s: %w", envPath, statErr)
	default:
		has, err := config.DotenvHasKey(envPath, config.APIKeyVar)
		if err != nil {
			return err
		}
		if has {
			return nil
		}
	}

	key := flagKey
	if key == "" {
		var err error
		key, err = ask.line("Neura API Key: ")
		if err != nil {
			return err
		}
	}
	if key == "" {
		ux.Warningf(out, "No API key given. Set %s before running neura.", config.APIKeyVar)
		return nil
	}
	return config.AppendEnv(envPath, config.APIKeyVar, key)
}
