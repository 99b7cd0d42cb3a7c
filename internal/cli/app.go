package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/model"
	"github.com/dimensionhq/neura/internal/provider"
	"github.com/dimensionhq/neura/internal/store"
	"github.com/dimensionhq/neura/internal/tokens"
)

type appKey struct{}

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Counter tokens.Counter

	mock bool
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func getApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return app, nil
}

func initApp(configPath string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(configPath, "")
	if err != nil {
		return nil, err
	}

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		mock:   os.Getenv("NEURA_MOCK") == "1",
	}
	if app.mock {
		// Never download BPE ranks in mock mode.
		app.Counter = tokens.Estimate{}
	} else {
		app.Counter = tokens.NewCounter(logger)
	}

	st, err := store.Open(app.storePath())
	if err != nil {
		return nil, err
	}
	app.Store = st

	logger.Debug("app initialized",
		"root", cfg.Root,
		"config_found", cfg.Found,
		"model", cfg.Model,
		"provider", cfg.Provider.Kind,
		"api_key_present", cfg.APIKey != "",
		"mock", app.mock,
	)
	return app, nil
}

func (a *App) storePath() string {
	if path := os.Getenv("NEURA_DB_PATH"); path != "" {
		return path
	}
	if path := a.Config.Store.Path; path != "" {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(a.Config.Root, path)
	}
	return store.DefaultPath()
}

// Runner returns the checker for the project. In mock mode it replays
// NEURA_CHECK_FIXTURE, then NEURA_RECHECK_FIXTURE for every later run.
func (a *App) Runner() diagnostic.Runner {
	if !a.mock {
		return diagnostic.NewExecRunner(a.Config.Check, a.Config.Root, a.Logger)
	}
	initial := os.Getenv("NEURA_CHECK_FIXTURE")
	if initial == "" {
		initial = filepath.Join("testdata", "check", "initial.jsonl")
	}
	paths := []string{initial}
	if recheck := os.Getenv("NEURA_RECHECK_FIXTURE"); recheck != "" {
		paths = append(paths, recheck)
	}
	runner := diagnostic.NewFixtureRunner(paths...)
	runner.Lenient = a.Config.Check.Lenient
	return runner
}

// CheckCommandLine is what the user sees while the checker runs.
func (a *App) CheckCommandLine() string {
	if a.mock {
		return "cargo check"
	}
	return diagnostic.NewExecRunner(a.Config.Check, a.Config.Root, a.Logger).CommandLine()
}

// Generator builds the configured generation backend for m.
func (a *App) Generator(m model.Model) (provider.Generator, error) {
	if a.mock {
		fixture := os.Getenv("NEURA_PROVIDER_FIXTURE")
		if fixture == "" {
			fixture = filepath.Join("testdata", "provider", "plan.json")
		}
		return provider.NewFakeGenerator(fixture), nil
	}
	switch a.Config.Provider.Kind {
	case config.ProviderClaudeCLI:
		return provider.NewClaudeCLIGenerator(a.Config.Provider), nil
	default:
		return provider.NewOpenAIGenerator(a.Config.Provider, a.Config.APIKey, m, a.Logger)
	}
}

func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close store", "error", err)
		}
	}
}
