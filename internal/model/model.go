// Package model enumerates the generation models neura can drive and the
// per-token pricing used to estimate what a fix run cost.
package model

import (
	"fmt"
	"strings"
)

// Model is the wire identifier sent to the generation service.
type Model string

const (
	GPT4       Model = "gpt-4"
	GPT35Turbo Model = "gpt-3.5-turbo"
	ClaudeV1   Model = "claude-v1"
)

type variant struct {
	name string
	icon string
	// USD per 1000 tokens.
	promptRate     float64
	completionRate float64
}

var variants = map[Model]variant{
	GPT4:       {name: "GPT 4.0", icon: "🤖", promptRate: 0.06, completionRate: 0.12},
	GPT35Turbo: {name: "GPT 3.5 Turbo", icon: "🐇", promptRate: 0.002, completionRate: 0.002},
	// Not metered.
	ClaudeV1: {name: "Claude v1", icon: "💫"},
}

var order = []Model{GPT4, GPT35Turbo, ClaudeV1}

// All returns every supported model in presentation order.
func All() []Model {
	out := make([]Model, len(order))
	copy(out, order)
	return out
}

// FromCode parses a wire identifier such as "gpt-4".
func FromCode(code string) (Model, error) {
	m := Model(strings.TrimSpace(code))
	if _, ok := variants[m]; !ok {
		return "", fmt.Errorf("unknown model %q (expected one of %s)", code, codes())
	}
	return m, nil
}

// FromLabel parses a display label with or without its icon, e.g.
// "🤖 GPT 4.0" or "GPT 4.0". Codes are accepted too.
func FromLabel(label string) (Model, error) {
	trimmed := strings.TrimSpace(label)
	for _, m := range order {
		v := variants[m]
		if trimmed == v.name || trimmed == v.icon+" "+v.name || trimmed == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", label)
}

func (m Model) Code() string {
	return string(m)
}

// String returns the display name.
func (m Model) String() string {
	if v, ok := variants[m]; ok {
		return v.name
	}
	return string(m)
}

// Label returns the display name prefixed with the model's icon.
func (m Model) Label() string {
	if v, ok := variants[m]; ok {
		return v.icon + " " + v.name
	}
	return string(m)
}

// Rates returns the prompt and completion price per 1000 tokens.
func (m Model) Rates() (prompt float64, completion float64) {
	v := variants[m]
	return v.promptRate, v.completionRate
}

// Cost estimates the price of one request.
func (m Model) Cost(promptTokens int, completionTokens int) float64 {
	prompt, completion := m.Rates()
	return float64(promptTokens)/1000*prompt + float64(completionTokens)/1000*completion
}

func codes() string {
	parts := make([]string, 0, len(order))
	for _, m := range order {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ", ")
}
