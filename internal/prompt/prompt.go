package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed templates/fix.txt
var defaultTemplate string

//go:embed templates/edit_plan.schema.json
var schemaJSON string

// Example shows the model the exact response shape.
const Example = `{"changes": [{"file": "src/main.rs", "line_number": 3, "new_line": "pub fn main() {}", "time_estimate_seconds": 20}]}`

// SchemaURL names the embedded schema when it is compiled.
const SchemaURL = "edit_plan.schema.json"

type Snapshot struct {
	Diagnostic   string
	File         string
	FileContents string
}

// LoadTemplate returns the fix prompt template. NEURA_PROMPT_PATH overrides
// the built-in one.
func LoadTemplate() (string, error) {
	path := os.Getenv("NEURA_PROMPT_PATH")
	if path == "" {
		return defaultTemplate, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %w", err)
	}
	return string(content), nil
}

func Render(template string, snap Snapshot) string {
	// Substituted in one pass so braces inside the file contents are never
	// treated as placeholders.
	r := strings.NewReplacer(
		"{DIAGNOSTIC}", strings.TrimRight(snap.Diagnostic, "\n"),
		"{FILE}", snap.File,
		"{FILE_CONTENTS}", snap.FileContents,
		"{EXAMPLE}", Example,
	)
	return r.Replace(template)
}

// Schema returns the EditPlan JSON schema.
func Schema() string {
	return schemaJSON
}

// CompactSchema returns the schema without insignificant whitespace, for
// passing on a command line.
func CompactSchema() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(schemaJSON)); err != nil {
		return schemaJSON
	}
	return buf.String()
}
