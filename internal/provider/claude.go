package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/prompt"
)

const claudeCLIName = "claude-cli"

// claudeResponse is the wrapper printed by the Claude CLI with
// --output-format json and --json-schema.
type claudeResponse struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	IsError          bool            `json:"is_error"`
	Result           string          `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output"`
}

// extractStructuredOutput returns the schema-conforming payload from the
// CLI wrapper, falling back to the free-text result.
func extractStructuredOutput(raw []byte) (string, error) {
	var resp claudeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse claude response wrapper: %w", err)
	}
	if resp.IsError {
		return "", fmt.Errorf("claude returned an error response: %s", string(raw))
	}
	if len(resp.StructuredOutput) > 0 && string(resp.StructuredOutput) != "null" {
		return string(resp.StructuredOutput), nil
	}
	if resp.Result != "" {
		return resp.Result, nil
	}
	return "", fmt.Errorf("claude response missing structured_output field")
}

// ClaudeCLIGenerator shells out to the Claude Code CLI. The CLI manages its
// own credentials and model, so Request.Model, MaxTokens and Temperature are
// not forwarded.
type ClaudeCLIGenerator struct {
	command string
	args    []string
}

func NewClaudeCLIGenerator(cfg config.ProviderConfig) *ClaudeCLIGenerator {
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	return &ClaudeCLIGenerator{command: command, args: cfg.Args}
}

func (c *ClaudeCLIGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	stdout, err := c.run(ctx, req.Prompt)
	if err != nil {
		return Response{}, transportError(claudeCLIName, err)
	}
	structured, err := extractStructuredOutput(stdout)
	if err != nil {
		return Response{Raw: string(stdout)}, decodeError(claudeCLIName, string(stdout), fmt.Errorf("%w: %w", ErrMalformedPlan, err))
	}
	plan, err := Decode(structured)
	if err != nil {
		return Response{Raw: structured}, decodeError(claudeCLIName, structured, err)
	}
	return Response{Plan: plan, Raw: structured}, nil
}

func (c *ClaudeCLIGenerator) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(c.command); err != nil {
		return transportError(claudeCLIName, fmt.Errorf("%s not found in PATH", c.command))
	}
	stdout, err := c.run(ctx, `Return {"changes": []}.`)
	if err != nil {
		return transportError(claudeCLIName, err)
	}
	structured, err := extractStructuredOutput(stdout)
	if err != nil {
		return decodeError(claudeCLIName, string(stdout), err)
	}
	if _, err := Decode(structured); err != nil {
		return decodeError(claudeCLIName, structured, err)
	}
	return nil
}

func (c *ClaudeCLIGenerator) run(ctx context.Context, promptText string) ([]byte, error) {
	args := append([]string{}, c.args...)
	args = append(args, "-p", "--output-format", "json", "--json-schema", prompt.CompactSchema(), promptText)
	cmd := exec.CommandContext(ctx, c.command, args...)
	// No TTY inheritance.
	cmd.Stdin = nil
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", c.command, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w\n%s", c.command, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output\n%s", c.command, stderr.String())
	}
	return stdout.Bytes(), nil
}
