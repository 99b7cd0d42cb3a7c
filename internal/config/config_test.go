package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	dir := t.TempDir()
	cfg, err := Load("", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Found {
		t.Fatalf("expected Found=false")
	}
	if cfg.Check.Command != "cargo" || len(cfg.Check.Args) != 2 {
		t.Fatalf("unexpected check defaults: %#v", cfg.Check)
	}
	if cfg.Provider.MaxTokens != 300 || cfg.Provider.Temperature != 0.2 {
		t.Fatalf("unexpected provider defaults: %#v", cfg.Provider)
	}
	if cfg.HourlyRate != 50 {
		t.Fatalf("unexpected hourly rate: %v", cfg.HourlyRate)
	}
	if _, err := cfg.RequireModel(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSaveThenLoadFromSubdirectory(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	root := t.TempDir()
	cfg := Defaults()
	cfg.Model = "gpt-3.5-turbo"
	if _, err := Save(root, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	sub := filepath.Join(root, "src", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load("", sub)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Found {
		t.Fatalf("expected config to be found")
	}
	if loaded.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected model: %q", loaded.Model)
	}
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(loaded.Root)
	if gotRoot != wantRoot {
		t.Fatalf("unexpected root: %q want %q", gotRoot, wantRoot)
	}
	m, err := loaded.RequireModel()
	if err != nil || m.Code() != "gpt-3.5-turbo" {
		t.Fatalf("unexpected model: %v %v", m, err)
	}
}

func TestLoadKeepsExplicitZeroTemperature(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	root := t.TempDir()
	content := "model = \"gpt-4\"\n\n[provider]\nkind = \"openai\"\ntemperature = 0.0\n\n[check]\ncommand = \"sh\"\nargs = [\"-c\", \"true\"]\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("", root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", cfg.Provider.Temperature)
	}
	if cfg.Provider.MaxTokens != 300 {
		t.Fatalf("expected default max tokens, got %d", cfg.Provider.MaxTokens)
	}
	if cfg.Check.Command != "sh" || len(cfg.Check.Args) != 2 {
		t.Fatalf("unexpected check config: %#v", cfg.Check)
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("model = \"gpt-9\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("", root); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestAPIKeyFromDotenv(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	root := t.TempDir()
	envPath := DotenvPath(root)
	if err := os.WriteFile(envPath, []byte("OTHER=1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if ok, err := DotenvHasKey(envPath, APIKeyVar); err != nil || ok {
		t.Fatalf("expected key to be absent: %v %v", ok, err)
	}
	if err := AppendEnv(envPath, APIKeyVar, "sk-test"); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, _ := os.ReadFile(envPath)
	if string(data) != "OTHER=1\nNEURA_API_KEY=sk-test\n" {
		t.Fatalf("unexpected .env content: %q", string(data))
	}

	cfg, err := Load("", root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Fatalf("unexpected api key: %q", cfg.APIKey)
	}
}

func TestAPIKeyEnvironmentWins(t *testing.T) {
	t.Setenv(APIKeyVar, "from-env")
	root := t.TempDir()
	if err := AppendEnv(DotenvPath(root), APIKeyVar, "from-file"); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("", root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-env" {
		t.Fatalf("unexpected api key: %q", cfg.APIKey)
	}
}

func TestAppendEnvRejectsMultiline(t *testing.T) {
	if err := AppendEnv(filepath.Join(t.TempDir(), ".env"), APIKeyVar, "a\nb"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadKeepsExplicitZeroHourlyRate(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte("model = \"gpt-4\"\nhourly_rate = 0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HourlyRate != 0 {
		t.Fatalf("expected hourly rate 0, got %v", cfg.HourlyRate)
	}

	if err := os.WriteFile(path, []byte("model = \"gpt-4\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HourlyRate != DefaultHourlyRate {
		t.Fatalf("expected default hourly rate, got %v", cfg.HourlyRate)
	}
}

func TestLoadSurvivesUnreadableDotenv(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("model = \"gpt-4\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A directory where .env should be cannot be parsed.
	if err := os.Mkdir(DotenvPath(root), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("", root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("unexpected api key: %q", cfg.APIKey)
	}
	if len(cfg.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", cfg.Warnings)
	}
	if _, err := cfg.RequireModel(); err != nil {
		t.Fatalf("model should still resolve: %v", err)
	}
}
