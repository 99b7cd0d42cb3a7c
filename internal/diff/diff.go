package diff

import (
	"bytes"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// FileDiff is one file's section of a unified diff.
type FileDiff = godiff.FileDiff

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

type opKind byte

const (
	opEqual  opKind = ' '
	opDelete opKind = '-'
	opInsert opKind = '+'
)

type op struct {
	kind opKind
	text string
}

// Compute returns the unified diff between two versions of path, or nil when
// they are identical. Lines outside the common prefix and suffix are paired
// positionally when both sides have the same length, which is the shape a
// run of single-line replacements produces. Anything else is shown as one
// replaced block.
func Compute(path string, before, after []byte, context int) *FileDiff {
	if bytes.Equal(before, after) {
		return nil
	}
	if context < 0 {
		context = DefaultContext
	}
	ops := lineOps(SplitLines(string(before)), SplitLines(string(after)))
	hunks := buildHunks(ops, context)
	if len(hunks) == 0 {
		// Only line endings differ.
		return nil
	}
	return &godiff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    hunks,
	}
}

// Render prints diffs in the usual multi-file unified format.
func Render(diffs []*FileDiff) (string, error) {
	if len(diffs) == 0 {
		return "", nil
	}
	out, err := godiff.PrintMultiFileDiff(diffs)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Parse reads a unified diff produced by Render.
func Parse(input string) ([]*FileDiff, error) {
	return godiff.NewMultiFileDiffReader(strings.NewReader(input)).ReadAllFiles()
}

// Path strips the a/ or b/ prefix from a diff file name.
func Path(fd *FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	name = strings.TrimPrefix(name, "b/")
	return strings.TrimPrefix(name, "a/")
}

// SplitLines splits text into lines without their terminators. A trailing
// newline does not produce an empty final line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func lineOps(before, after []string) []op {
	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}

	ops := make([]op, 0, len(before)+len(after))
	for _, line := range before[:prefix] {
		ops = append(ops, op{kind: opEqual, text: line})
	}

	oldMid := before[prefix : len(before)-suffix]
	newMid := after[prefix : len(after)-suffix]
	if len(oldMid) == len(newMid) {
		var dels, ins []op
		flush := func() {
			ops = append(ops, dels...)
			ops = append(ops, ins...)
			dels, ins = dels[:0], ins[:0]
		}
		for i := range oldMid {
			if oldMid[i] == newMid[i] {
				flush()
				ops = append(ops, op{kind: opEqual, text: oldMid[i]})
				continue
			}
			dels = append(dels, op{kind: opDelete, text: oldMid[i]})
			ins = append(ins, op{kind: opInsert, text: newMid[i]})
		}
		flush()
	} else {
		for _, line := range oldMid {
			ops = append(ops, op{kind: opDelete, text: line})
		}
		for _, line := range newMid {
			ops = append(ops, op{kind: opInsert, text: line})
		}
	}

	for _, line := range before[len(before)-suffix:] {
		ops = append(ops, op{kind: opEqual, text: line})
	}
	return ops
}

func buildHunks(ops []op, context int) []*godiff.Hunk {
	// oldAt[i] and newAt[i] are the 0-based line numbers reached before ops[i].
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	for i, o := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if o.kind != opInsert {
			oldAt[i+1]++
		}
		if o.kind != opDelete {
			newAt[i+1]++
		}
	}

	var hunks []*godiff.Hunk
	n := len(ops)
	idx := 0
	for idx < n {
		for idx < n && ops[idx].kind == opEqual {
			idx++
		}
		if idx == n {
			break
		}
		start := max(idx-context, 0)
		end := idx
		j := idx
		for j < n {
			if ops[j].kind != opEqual {
				j++
				end = j
				continue
			}
			k := j
			for k < n && ops[k].kind == opEqual {
				k++
			}
			if k == n || k-j > 2*context {
				break
			}
			j = k
		}
		stop := min(end+context, n)
		hunks = append(hunks, newHunk(ops[start:stop], oldAt[start], newAt[start]))
		idx = stop
	}
	return hunks
}

func newHunk(ops []op, oldStart, newStart int) *godiff.Hunk {
	var body bytes.Buffer
	var oldLines, newLines int32
	for _, o := range ops {
		body.WriteByte(byte(o.kind))
		body.WriteString(o.text)
		body.WriteByte('\n')
		if o.kind != opInsert {
			oldLines++
		}
		if o.kind != opDelete {
			newLines++
		}
	}
	h := &godiff.Hunk{
		OrigStartLine: int32(oldStart),
		OrigLines:     oldLines,
		NewStartLine:  int32(newStart),
		NewLines:      newLines,
		Body:          body.Bytes(),
	}
	// An empty range is addressed by the line before it.
	if oldLines > 0 {
		h.OrigStartLine++
	}
	if newLines > 0 {
		h.NewStartLine++
	}
	return h
}
