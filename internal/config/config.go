package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dimensionhq/neura/internal/model"
)

const (
	// FileName is the project configuration file written by `neura init`.
	FileName = "neura.toml"
	// DotenvName holds the API key when it is not exported in the environment.
	DotenvName = ".env"
	// APIKeyVar names the credential for the generation service.
	APIKeyVar = "NEURA_API_KEY"

	DefaultCheckCommand = "cargo"
	DefaultHourlyRate   = 50.0
	DefaultMaxTokens    = 300
	DefaultTemperature  = 0.2
)

// Provider kinds.
const (
	ProviderOpenAI    = "openai"
	ProviderClaudeCLI = "claude-cli"
)

var ErrNotInitialized = errors.New("no " + FileName + " found; run `neura init` first")

type Config struct {
	Model      string          `mapstructure:"model" toml:"model" json:"model"`
	HourlyRate float64         `mapstructure:"hourly_rate" toml:"hourly_rate" json:"hourly_rate"`
	Check      CheckConfig     `mapstructure:"check" toml:"check" json:"check"`
	Provider   ProviderConfig  `mapstructure:"provider" toml:"provider" json:"provider"`
	Redaction  RedactionConfig `mapstructure:"redaction" toml:"redaction" json:"redaction"`
	Store      StoreConfig     `mapstructure:"store" toml:"store" json:"store"`

	// Resolved at load time, never written back.
	Root   string `mapstructure:"-" toml:"-" json:"root"`
	Path   string `mapstructure:"-" toml:"-" json:"path"`
	Found  bool   `mapstructure:"-" toml:"-" json:"found"`
	APIKey string `mapstructure:"-" toml:"-" json:"-"`

	// Problems that did not stop loading, e.g. an unreadable .env.
	Warnings []string `mapstructure:"-" toml:"-" json:"warnings,omitempty"`
}

type CheckConfig struct {
	Command string   `mapstructure:"command" toml:"command" json:"command"`
	Args    []string `mapstructure:"args" toml:"args" json:"args"`
	Lenient bool     `mapstructure:"lenient" toml:"lenient" json:"lenient"`
}

type ProviderConfig struct {
	Kind        string   `mapstructure:"kind" toml:"kind" json:"kind"`
	Command     string   `mapstructure:"command" toml:"command,omitempty" json:"command,omitempty"`
	Args        []string `mapstructure:"args" toml:"args,omitempty" json:"args,omitempty"`
	BaseURL     string   `mapstructure:"base_url" toml:"base_url,omitempty" json:"base_url,omitempty"`
	MaxTokens   int      `mapstructure:"max_tokens" toml:"max_tokens" json:"max_tokens"`
	Temperature float32  `mapstructure:"temperature" toml:"temperature" json:"temperature"`
}

type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled" json:"enabled"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" toml:"path,omitempty" json:"path,omitempty"`
}

func DefaultCheckArgs() []string {
	return []string{"check", "--message-format=json"}
}

func Defaults() Config {
	return Config{
		HourlyRate: DefaultHourlyRate,
		Check: CheckConfig{
			Command: DefaultCheckCommand,
			Args:    DefaultCheckArgs(),
		},
		Provider: ProviderConfig{
			Kind:        ProviderOpenAI,
			Command:     "claude",
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Redaction: RedactionConfig{Enabled: true},
	}
}

// Load resolves the project configuration. configPath overrides the lookup;
// otherwise neura.toml is searched for from startDir upwards. A missing file
// is not an error: defaults are returned with Found unset.
func Load(configPath string, startDir string) (Config, error) {
	cfg := Defaults()

	path := configPath
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, err
		}
		if ok {
			path = found
		}
	}

	if path != "" {
		// Slices are decoded element-wise over existing values, so the file
		// must not be merged onto the default args.
		cfg.Check.Args = nil
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfg.Path = abs
		cfg.Root = filepath.Dir(abs)
		cfg.Found = true
	} else {
		root, err := filepath.Abs(orDot(startDir))
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve project root: %w", err)
		}
		cfg.Root = root
	}

	if strings.TrimSpace(cfg.Check.Command) == "" ||
		(cfg.Check.Command == DefaultCheckCommand && len(cfg.Check.Args) == 0) {
		cfg.Check.Command = DefaultCheckCommand
		cfg.Check.Args = DefaultCheckArgs()
	}
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = ProviderOpenAI
	}
	if cfg.Provider.Command == "" {
		cfg.Provider.Command = "claude"
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = DefaultMaxTokens
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	// A broken .env leaves the key empty; only generation needs it.
	key, err := resolveAPIKey(cfg.Root)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring %s: %v", DotenvName, err))
	}
	cfg.APIKey = key
	return cfg, nil
}

// Validate checks values a hand-edited neura.toml might get wrong.
func (c Config) Validate() error {
	if c.Model != "" {
		if _, err := model.FromCode(c.Model); err != nil {
			return fmt.Errorf("%s: %w", FileName, err)
		}
	}
	switch c.Provider.Kind {
	case ProviderOpenAI, ProviderClaudeCLI:
	default:
		return fmt.Errorf("%s: unknown provider kind %q", FileName, c.Provider.Kind)
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("%s: provider.max_tokens must be >= 0", FileName)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("%s: provider.temperature must be within [0, 2]", FileName)
	}
	if c.HourlyRate < 0 {
		return fmt.Errorf("%s: hourly_rate must be >= 0", FileName)
	}
	return nil
}

// RequireModel returns the configured model or ErrNotInitialized.
func (c Config) RequireModel() (model.Model, error) {
	if !c.Found || c.Model == "" {
		return "", ErrNotInitialized
	}
	return model.FromCode(c.Model)
}

// Find walks up from startDir looking for neura.toml.
func Find(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(orDot(startDir))
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
