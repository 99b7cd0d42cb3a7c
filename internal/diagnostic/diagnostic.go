// Package diagnostic runs the external check process and turns its
// JSON-lines output into a normalized list of compiler errors.
package diagnostic

import (
	"crypto/sha256"
	"encoding/hex"
)

// Diagnostic is a single compiler-reported error with the file it was
// reported against and its fully rendered message.
type Diagnostic struct {
	Fingerprint string `json:"fingerprint"`
	File        string `json:"file"`
	Message     string `json:"message"`
}

// New builds a Diagnostic and derives its fingerprint.
func New(file, message string) Diagnostic {
	return Diagnostic{
		Fingerprint: Fingerprint(file, message),
		File:        file,
		Message:     message,
	}
}

// Fingerprint returns the hex SHA-256 of "file:message".
func Fingerprint(file, message string) string {
	sum := sha256.Sum256([]byte(file + ":" + message))
	return hex.EncodeToString(sum[:])
}

// Messages returns the set of rendered messages in diags.
func Messages(diags []Diagnostic) map[string]struct{} {
	set := make(map[string]struct{}, len(diags))
	for _, d := range diags {
		set[d.Message] = struct{}{}
	}
	return set
}

// Dedupe drops diagnostics whose fingerprint was already seen, keeping the
// first occurrence and the original order.
func Dedupe(diags []Diagnostic) []Diagnostic {
	seen := make(map[string]struct{}, len(diags))
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if _, ok := seen[d.Fingerprint]; ok {
			continue
		}
		seen[d.Fingerprint] = struct{}{}
		out = append(out, d)
	}
	return out
}
