package provider

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dimensionhq/neura/internal/prompt"
)

var (
	schemaOnce sync.Once
	planSchema *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		planSchema, schemaErr = jsonschema.CompileString(prompt.SchemaURL, prompt.Schema())
	})
	return planSchema, schemaErr
}

// Decode validates a completion against the EditPlan schema and decodes
// it. Nothing is returned from a plan that fails validation.
func Decode(raw string) (EditPlan, error) {
	body := extractJSON(raw)
	if body == "" {
		return EditPlan{}, fmt.Errorf("%w: empty response", ErrMalformedPlan)
	}

	schema, err := compiledSchema()
	if err != nil {
		return EditPlan{}, fmt.Errorf("failed to load edit plan schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return EditPlan{}, fmt.Errorf("%w: invalid JSON: %w", ErrMalformedPlan, err)
	}
	if err := schema.Validate(v); err != nil {
		return EditPlan{}, fmt.Errorf("%w: %w", ErrMalformedPlan, err)
	}

	var plan EditPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return EditPlan{}, fmt.Errorf("%w: %w", ErrMalformedPlan, err)
	}
	return plan, nil
}

// extractJSON trims whitespace and an optional Markdown code fence, which
// chat models add even when told not to.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
