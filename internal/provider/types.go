package provider

import (
	"context"

	"github.com/dimensionhq/neura/internal/model"
)

// EditPlan is the generation service's proposed set of line edits for one
// diagnostic, in the order they must be applied.
type EditPlan struct {
	Changes []Edit `json:"changes"`
}

type Edit struct {
	File                string `json:"file"`
	LineNumber          int    `json:"line_number"`
	NewLine             string `json:"new_line"`
	TimeEstimateSeconds int    `json:"time_estimate_seconds"`
}

// Request is one fix request. Every request carries a single user prompt.
type Request struct {
	Model       model.Model
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Response holds the decoded plan and the raw completion text it came from.
// Raw is populated even when decoding fails so it can be reported.
type Response struct {
	Plan EditPlan
	Raw  string
}

// Generator turns a fix prompt into an EditPlan. All failures are returned
// as *GenerationError.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	HealthCheck(ctx context.Context) error
}
