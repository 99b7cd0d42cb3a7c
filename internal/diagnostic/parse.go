package diagnostic

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// maxLineBytes bounds a single JSON record. Rendered messages for large
// macro expansions can run to several hundred kilobytes.
const maxLineBytes = 16 << 20

const (
	reasonCompilerMessage = "compiler-message"
	levelError            = "error"
)

// envelope is the top-level shape of every line. Both fields stay raw so
// records with other reasons never fail on their message shape.
type envelope struct {
	Reason  json.RawMessage `json:"reason"`
	Message json.RawMessage `json:"message"`
}

type compilerMessage struct {
	Level    string `json:"level"`
	Rendered string `json:"rendered"`
	Spans    []span `json:"spans"`
}

type span struct {
	FileName string `json:"file_name"`
}

// ParseOptions controls how Parse treats malformed lines.
type ParseOptions struct {
	// Lenient logs and skips malformed lines instead of failing the parse.
	Lenient bool
	Logger  *slog.Logger
}

// Parse reads one JSON record per line from r and returns the error-level
// compiler messages that carry at least one source span.
func Parse(r io.Reader, opts ParseOptions) ([]Diagnostic, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var diags []Diagnostic
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		d, ok, err := parseLine(line)
		if err != nil {
			perr := &ParseError{Line: lineNo, Text: string(line), Err: err}
			if !opts.Lenient {
				return nil, perr
			}
			logger.Warn("skipping malformed check output", "line", lineNo, "error", err)
			continue
		}
		if ok {
			diags = append(diags, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: lineNo + 1, Err: fmt.Errorf("reading check output: %w", err)}
	}
	return diags, nil
}

func parseLine(line []byte) (Diagnostic, bool, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Diagnostic{}, false, err
	}

	var reason string
	if err := json.Unmarshal(env.Reason, &reason); err != nil || reason != reasonCompilerMessage {
		return Diagnostic{}, false, nil
	}
	if len(env.Message) == 0 {
		return Diagnostic{}, false, fmt.Errorf("compiler message without message body")
	}

	var msg compilerMessage
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		return Diagnostic{}, false, fmt.Errorf("decoding compiler message: %w", err)
	}
	if msg.Level != levelError {
		return Diagnostic{}, false, nil
	}
	if len(msg.Spans) == 0 {
		return Diagnostic{}, false, nil
	}
	return New(msg.Spans[0].FileName, msg.Rendered), true, nil
}
