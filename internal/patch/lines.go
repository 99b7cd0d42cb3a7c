package patch

import "strings"

// document is a file split into lines that keep their own terminators, so
// rewriting one line leaves every other byte of the file alone.
type document struct {
	lines []string
	eol   string
}

func parseDocument(data []byte) document {
	text := string(data)
	doc := document{eol: "\n"}
	if text == "" {
		return doc
	}
	doc.lines = strings.SplitAfter(text, "\n")
	if doc.lines[len(doc.lines)-1] == "" {
		doc.lines = doc.lines[:len(doc.lines)-1]
	}
	if strings.HasSuffix(doc.lines[0], "\r\n") {
		doc.eol = "\r\n"
	}
	return doc
}

func (d *document) count() int {
	return len(d.lines)
}

// line returns the text of 1-based line n without its terminator.
func (d *document) line(n int) string {
	old := d.lines[n-1]
	return strings.TrimSuffix(old, terminator(old))
}

// replace swaps the text of 1-based line n, keeping its terminator.
func (d *document) replace(n int, text string) {
	old := d.lines[n-1]
	d.lines[n-1] = text + terminator(old)
}

// appendLine adds one line after the last. A file without a trailing
// newline keeps that shape.
func (d *document) appendLine(text string) {
	if len(d.lines) == 0 {
		d.lines = append(d.lines, text+d.eol)
		return
	}
	last := len(d.lines) - 1
	if terminator(d.lines[last]) == "" {
		d.lines[last] += d.eol
		d.lines = append(d.lines, text)
		return
	}
	d.lines = append(d.lines, text+d.eol)
}

func (d *document) bytes() []byte {
	return []byte(strings.Join(d.lines, ""))
}

func terminator(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
