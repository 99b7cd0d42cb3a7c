package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("run not found")

// Fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Run struct {
	ID               string    `json:"id"`
	Model            string    `json:"model"`
	Root             string    `json:"root"`
	DryRun           bool      `json:"dry_run"`
	Initial          int       `json:"initial"`
	Resolved         int       `json:"resolved"`
	Remaining        int       `json:"remaining"`
	StillFailing     int       `json:"still_failing"`
	TimeSavedSeconds int       `json:"time_saved_seconds"`
	CostSavings      float64   `json:"cost_savings"`
	GenerationCost   float64   `json:"generation_cost"`
	NetBenefit       float64   `json:"net_benefit"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

type Attempt struct {
	RunID          string  `json:"run_id"`
	Seq            int     `json:"seq"`
	Fingerprint    string  `json:"fingerprint"`
	File           string  `json:"file"`
	Message        string  `json:"message"`
	Status         string  `json:"status"`
	Applied        int     `json:"applied"`
	Invalid        int     `json:"invalid"`
	EffortSeconds  int     `json:"effort_seconds"`
	PromptTokens   int     `json:"prompt_tokens"`
	ResponseTokens int     `json:"response_tokens"`
	Cost           float64 `json:"cost"`
	Resolved       bool    `json:"resolved"`
	Error          string  `json:"error,omitempty"`
	Diff           string  `json:"diff,omitempty"`
}

// RecordRun stores a run and its attempts in one transaction and returns the
// run id, generating one when run.ID is empty.
func (s *Store) RecordRun(run Run, attempts []Attempt) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		INSERT INTO runs (id, model, root, dry_run, initial, resolved, remaining, still_failing,
			time_saved_seconds, cost_savings, generation_cost, net_benefit, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Model, run.Root, run.DryRun, run.Initial, run.Resolved, run.Remaining, run.StillFailing,
		run.TimeSavedSeconds, run.CostSavings, run.GenerationCost, run.NetBenefit,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, a := range attempts {
		_, err := tx.Exec(`
			INSERT INTO attempts (run_id, seq, fingerprint, file, message, status, applied, invalid,
				effort_seconds, prompt_tokens, response_tokens, cost, resolved, error, diff)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i+1, a.Fingerprint, a.File, a.Message, a.Status, a.Applied, a.Invalid,
			a.EffortSeconds, a.PromptTokens, a.ResponseTokens, a.Cost, a.Resolved,
			nullString(a.Error), nullString(a.Diff))
		if err != nil {
			return "", fmt.Errorf("failed to insert attempt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun looks a run up by id or by a unique id prefix.
func (s *Store) GetRun(id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? LIMIT 2`, id, id+"%")
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

func (s *Store) Attempts(runID string) ([]Attempt, error) {
	rows, err := s.db.Query(`
		SELECT run_id, seq, fingerprint, file, message, status, applied, invalid,
			effort_seconds, prompt_tokens, response_tokens, cost, resolved, error, diff
		FROM attempts
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var errText, diffText sql.NullString
		if err := rows.Scan(&a.RunID, &a.Seq, &a.Fingerprint, &a.File, &a.Message, &a.Status,
			&a.Applied, &a.Invalid, &a.EffortSeconds, &a.PromptTokens, &a.ResponseTokens,
			&a.Cost, &a.Resolved, &errText, &diffText); err != nil {
			return nil, fmt.Errorf("failed to read attempt: %w", err)
		}
		a.Error = errText.String
		a.Diff = diffText.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return out, nil
}

const runColumns = `id, model, root, dry_run, initial, resolved, remaining, still_failing,
	time_saved_seconds, cost_savings, generation_cost, net_benefit, started_at, finished_at`

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var startedAt, finishedAt string
	if err := rows.Scan(&run.ID, &run.Model, &run.Root, &run.DryRun, &run.Initial, &run.Resolved,
		&run.Remaining, &run.StillFailing, &run.TimeSavedSeconds, &run.CostSavings,
		&run.GenerationCost, &run.NetBenefit, &startedAt, &finishedAt); err != nil {
		return Run{}, fmt.Errorf("failed to read run: %w", err)
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	return run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
