package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dimensionhq/neura/internal/config"
)

func repoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func execRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execRoot(t, "", args...)
	if err != nil {
		t.Fatalf("command failed: %v\n%s", err, out)
	}
	return out
}

// withMockEnv copies the demo project into a temp dir and points the mock
// checker and generator at the shared fixtures. It returns the project's
// config path.
func withMockEnv(t *testing.T, checks []string, plan string) string {
	t.Helper()
	root := repoRoot()
	project := t.TempDir()
	copyFile(t, filepath.Join(root, "testdata", "project", "neura.toml"), filepath.Join(project, "neura.toml"))
	copyFile(t, filepath.Join(root, "testdata", "project", "src", "lib.rs"), filepath.Join(project, "src", "lib.rs"))

	t.Setenv("NEURA_MOCK", "1")
	t.Setenv("NEURA_API_KEY", "")
	t.Setenv("NEURA_DB_PATH", filepath.Join(t.TempDir(), "neura.db"))
	t.Setenv("NEURA_CHECK_FIXTURE", filepath.Join(root, "testdata", "check", checks[0]))
	recheck := ""
	if len(checks) > 1 {
		recheck = filepath.Join(root, "testdata", "check", checks[1])
	}
	t.Setenv("NEURA_RECHECK_FIXTURE", recheck)
	t.Setenv("NEURA_PROVIDER_FIXTURE", filepath.Join(root, "testdata", "provider", plan))
	return filepath.Join(project, "neura.toml")
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", dst, err)
	}
}

func readLine(t *testing.T, path string, n int) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	lines := strings.Split(string(data), "\n")
	if n < 1 || n > len(lines) {
		t.Fatalf("line %d out of range in %s", n, path)
	}
	return lines[n-1]
}

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Fatalf("expected output to contain %q, got:\n%s", w, output)
		}
	}
}

func TestWatchResolvesError(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl", "recheck.jsonl"}, "plan.json")
	output := runRoot(t, "--config", cfgPath)

	assertContains(t, output,
		"⭐ Neura has joined your session.",
		"📝 Prompt token count: ",
		"> Editing src/lib.rs, line 3",
		"✅ Successfully resolved 1 error, saving you ",
		"$. 0 remain.",
	)
	libPath := filepath.Join(filepath.Dir(cfgPath), "src", "lib.rs")
	if got := readLine(t, libPath, 3); got != "    5" {
		t.Fatalf("line 3 = %q", got)
	}
	if got := readLine(t, libPath, 4); got != "}" {
		t.Fatalf("line 4 = %q", got)
	}
}

func TestWatchReportsInvalidLine(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl"}, "invalid_line.json")
	libPath := filepath.Join(filepath.Dir(cfgPath), "src", "lib.rs")
	before, err := os.ReadFile(libPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	output := runRoot(t, "watch", "--config", cfgPath)
	assertContains(t, output,
		"Invalid line number 9999",
		"✅ Successfully resolved 0 errors, saving you ",
		"1 remain.",
	)
	after, err := os.ReadFile(libPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("file changed:\n%s", after)
	}
}

func TestWatchJSON(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl", "recheck.jsonl"}, "plan.json")
	output := runRoot(t, "watch", "--config", cfgPath, "--format", "json")

	var result struct {
		RunID        string  `json:"run_id"`
		Model        string  `json:"model"`
		Initial      int     `json:"initial"`
		Resolved     int     `json:"resolved"`
		StillFailing int     `json:"still_failing"`
		CostSavings  float64 `json:"cost_savings"`
		Attempts     []struct {
			Status   string `json:"status"`
			Applied  int    `json:"applied"`
			Resolved bool   `json:"resolved"`
			Diff     string `json:"diff"`
		} `json:"attempts"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, output)
	}
	if result.RunID == "" || result.Model != "gpt-4" {
		t.Fatalf("unexpected run header: %+v", result)
	}
	if result.Initial != 1 || result.Resolved != 1 || result.StillFailing != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.CostSavings < 0.555 || result.CostSavings > 0.556 {
		t.Fatalf("cost savings = %v", result.CostSavings)
	}
	if len(result.Attempts) != 1 || result.Attempts[0].Status != "patched" || !result.Attempts[0].Resolved {
		t.Fatalf("unexpected attempts: %+v", result.Attempts)
	}
	if !strings.Contains(result.Attempts[0].Diff, "+    5") {
		t.Fatalf("diff missing edit: %q", result.Attempts[0].Diff)
	}
}

func TestWatchDryRunLeavesFiles(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl", "recheck.jsonl"}, "plan.json")
	output := runRoot(t, "--config", cfgPath, "--dry-run")

	assertContains(t, output, "+    5", "-    \"five\"", "Dry run: 1 edit planned")
	libPath := filepath.Join(filepath.Dir(cfgPath), "src", "lib.rs")
	if got := readLine(t, libPath, 3); got != `    "five"` {
		t.Fatalf("dry run wrote the file: line 3 = %q", got)
	}
}

func TestWatchWithoutErrors(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"clean.jsonl"}, "plan.json")
	output := runRoot(t, "--config", cfgPath)
	assertContains(t, output, "🎉 No errors found.")
	if strings.Contains(output, "Successfully resolved") {
		t.Fatalf("unexpected summary:\n%s", output)
	}
}

func TestWatchRequiresInit(t *testing.T) {
	withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	t.Chdir(t.TempDir())
	_, err := execRoot(t, "", "watch")
	if !errors.Is(err, config.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl"}, "plan.json")

	output := runRoot(t, "check", "--config", cfgPath)
	assertContains(t, output, "🔍 Found 1 error.", "src/lib.rs: error[E0308]: mismatched types")

	output = runRoot(t, "check", "--config", cfgPath, "--format", "json")
	var diags []map[string]string
	if err := json.Unmarshal([]byte(output), &diags); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, output)
	}
	if len(diags) != 1 || diags[0]["file"] != "src/lib.rs" || diags[0]["fingerprint"] == "" {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestHistoryListsRecordedRuns(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl", "recheck.jsonl"}, "plan.json")
	runRoot(t, "--config", cfgPath)

	output := runRoot(t, "history", "--config", cfgPath, "--format", "json")
	var runs []struct {
		ID       string `json:"id"`
		Resolved int    `json:"resolved"`
	}
	if err := json.Unmarshal([]byte(output), &runs); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, output)
	}
	if len(runs) != 1 || runs[0].Resolved != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	output = runRoot(t, "history", "--config", cfgPath, runs[0].ID[:8], "--diff")
	assertContains(t, output, "Resolved 1 of 1, 0 remain.", "mismatched types", "[patched, 1 applied, 0 invalid]", "+    5")
}

func TestWatchNoRecord(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl", "recheck.jsonl"}, "plan.json")
	runRoot(t, "--config", cfgPath, "--no-record")
	output := runRoot(t, "history", "--config", cfgPath)
	assertContains(t, output, "No runs recorded yet.")
}

func TestInitCreatesConfigAndDotenv(t *testing.T) {
	withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	dir := t.TempDir()
	t.Chdir(dir)

	output, err := execRoot(t, "sk-test-key\n", "init", "--dir", dir, "--model", "gpt-3.5-turbo")
	if err != nil {
		t.Fatalf("init failed: %v\n%s", err, output)
	}
	assertContains(t, output,
		"It seems like you don't have a `.env` file. Let's create one!",
		"Neura API Key: ",
		"🚀 Your project has been initialized with the GPT 3.5 Turbo model.",
	)

	cfg, err := config.Load(filepath.Join(dir, config.FileName), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", cfg.Model)
	}
	env, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("read .env: %v", err)
	}
	if string(env) != "NEURA_API_KEY=sk-test-key\n" {
		t.Fatalf(".env = %q", env)
	}
}

func TestInitKeepsExistingKey(t *testing.T) {
	withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NEURA_API_KEY=sk-old\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	output := runRoot(t, "init", "--dir", dir)
	if strings.Contains(output, "Neura API Key") {
		t.Fatalf("prompted for a key that exists:\n%s", output)
	}
	assertContains(t, output, "initialized with the GPT 4.0 model.")
	env, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("read .env: %v", err)
	}
	if string(env) != "NEURA_API_KEY=sk-old\n" {
		t.Fatalf(".env = %q", env)
	}
}

func TestInitDeclinesOverwrite(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	dir := filepath.Dir(cfgPath)
	before, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	output, err := execRoot(t, "n\n", "init", "--config", cfgPath, "--dir", dir, "--model", "claude-v1")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	assertContains(t, output, "already exists. Overwrite? [y/N]: ", "Aborted.")
	after, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("config was overwritten")
	}
}

func TestConfigMasksAPIKey(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	t.Setenv("NEURA_API_KEY", "sk-abcdefghijklmnop")

	output := runRoot(t, "config", "--config", cfgPath)
	assertContains(t, output, `"api_key": "****mnop"`, `"model": "gpt-4"`)
	if strings.Contains(output, "sk-abcdefghijklmnop") {
		t.Fatalf("config printed the raw key:\n%s", output)
	}
}

func TestDoctorInMockMode(t *testing.T) {
	cfgPath := withMockEnv(t, []string{"initial.jsonl"}, "plan.json")
	output := runRoot(t, "doctor", "--config", cfgPath)
	assertContains(t, output, "config: ok", "provider: ok", "doctor checks passed")
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"short":               "****",
		"sk-abcdefghijklmnop": "****mnop",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
