package fixloop

import (
	"context"

	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/model"
	"github.com/dimensionhq/neura/internal/prompt"
	"github.com/dimensionhq/neura/internal/provider"
	"github.com/dimensionhq/neura/internal/redact"
	"github.com/dimensionhq/neura/internal/tokens"
)

// Requester builds the fix prompt for one diagnostic and asks the generator
// for an EditPlan.
type Requester struct {
	Generator   provider.Generator
	Counter     tokens.Counter
	Template    string
	Model       model.Model
	MaxTokens   int
	Temperature float32
	// Redact masks secrets in the file contents before they are sent.
	Redact bool
}

// Result is one generation round trip. Token counts are filled in whenever
// a completion came back, even if it failed to decode.
type Result struct {
	Plan           provider.EditPlan
	Raw            string
	Prompt         string
	PromptTokens   int
	ResponseTokens int
	Redactions     int
}

// Cost is the modeled price of the request.
func (r Result) Cost(m model.Model) float64 {
	return m.Cost(r.PromptTokens, r.ResponseTokens)
}

func (q *Requester) RequestFix(ctx context.Context, d diagnostic.Diagnostic, fileContents string) (Result, error) {
	contents, redactions := redact.Optional(fileContents, q.Redact)
	text := prompt.Render(q.Template, prompt.Snapshot{
		Diagnostic:   d.Message,
		File:         d.File,
		FileContents: contents,
	})

	res := Result{Prompt: text, Redactions: redactions}
	counter := q.Counter
	if counter == nil {
		counter = tokens.Estimate{}
	}

	resp, err := q.Generator.Generate(ctx, provider.Request{
		Model:       q.Model,
		Prompt:      text,
		MaxTokens:   q.MaxTokens,
		Temperature: q.Temperature,
	})
	res.Raw = resp.Raw
	if resp.Raw != "" {
		res.PromptTokens = counter.Count(text)
		res.ResponseTokens = counter.Count(resp.Raw)
	}
	if err != nil {
		return res, err
	}
	res.Plan = resp.Plan
	return res, nil
}
