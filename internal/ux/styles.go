// Package ux renders terminal output: styles, status lines and the progress
// spinner.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorAccent  = lipgloss.Color("#20B9B4")
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#6C7A80")
)

type styles struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Added     lipgloss.Style
	Removed   lipgloss.Style
}

var Styles = styles{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorAccent),
	Added:     lipgloss.NewStyle().Foreground(ColorSuccess),
	Removed:   lipgloss.NewStyle().Foreground(ColorError),
}

const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✗"
	IconEdit    = "✎"
)

func Successf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Success.Render(IconSuccess+" "+fmt.Sprintf(format, args...)))
}

func Warningf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Warning.Render(IconWarning+" "+fmt.Sprintf(format, args...)))
}

func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Error.Render(IconError+" "+fmt.Sprintf(format, args...)))
}

// Diff colors the added and removed lines of a unified diff.
func Diff(text string) string {
	if text == "" {
		return ""
	}
	var out []byte
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		line := text[start:i]
		switch {
		case len(line) >= 3 && (line[:3] == "+++" || line[:3] == "---"):
			line = Styles.Bold.Render(line)
		case len(line) > 0 && line[0] == '+':
			line = Styles.Added.Render(line)
		case len(line) > 0 && line[0] == '-':
			line = Styles.Removed.Render(line)
		case len(line) > 1 && line[:2] == "@@":
			line = Styles.Highlight.Render(line)
		}
		out = append(out, line...)
		if i < len(text) {
			out = append(out, '\n')
		}
		start = i + 1
	}
	return string(out)
}
