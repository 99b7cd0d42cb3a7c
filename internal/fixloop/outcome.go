package fixloop

import (
	"time"

	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/model"
)

type Status string

const (
	// StatusPatched means at least one edit was written.
	StatusPatched Status = "patched"
	// StatusNoEdits means the plan was empty or every edit was invalid.
	StatusNoEdits Status = "no_edits"
	// StatusSkipped means no usable plan was generated.
	StatusSkipped Status = "skipped"
	// StatusFailed means a file could not be read or rewritten.
	StatusFailed Status = "failed"
)

// Attempt records what happened to one diagnostic of the initial batch.
type Attempt struct {
	Diagnostic     diagnostic.Diagnostic `json:"diagnostic"`
	Status         Status                `json:"status"`
	Applied        int                   `json:"applied"`
	Invalid        int                   `json:"invalid"`
	EffortSeconds  int                   `json:"effort_seconds"`
	PromptTokens   int                   `json:"prompt_tokens"`
	ResponseTokens int                   `json:"response_tokens"`
	Cost           float64               `json:"cost"`
	Diff           string                `json:"diff,omitempty"`
	Error          string                `json:"error,omitempty"`
	Resolved       bool                  `json:"resolved"`

	Err error `json:"-"`
}

// Outcome summarizes one run of the loop. Remaining counts diagnostics of
// the initial batch whose message still appears after re-checking;
// StillFailing is the size of the re-check batch, which may include errors
// the edits introduced.
type Outcome struct {
	Model            model.Model `json:"model"`
	DryRun           bool        `json:"dry_run"`
	NoErrors         bool        `json:"no_errors"`
	Initial          int         `json:"initial"`
	Resolved         int         `json:"resolved"`
	Remaining        int         `json:"remaining"`
	StillFailing     int         `json:"still_failing"`
	TimeSavedSeconds int         `json:"time_saved_seconds"`
	CostSavings      float64     `json:"cost_savings"`
	GenerationCost   float64     `json:"generation_cost"`
	NetBenefit       float64     `json:"net_benefit"`
	Attempts         []Attempt   `json:"attempts"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
}

// Savings converts human effort into money at hourlyRate.
func Savings(effortSeconds int, hourlyRate float64) float64 {
	return float64(effortSeconds) * hourlyRate / 3600
}
