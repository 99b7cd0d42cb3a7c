package diff

import "bytes"

// ChangedLines returns the new-file line numbers added or replaced by fd, in
// ascending order.
func ChangedLines(fd *FileDiff) []int {
	if fd == nil {
		return nil
	}
	var out []int
	for _, hunk := range fd.Hunks {
		newLine := int(hunk.NewStartLine)
		for _, line := range bytes.Split(hunk.Body, []byte{'\n'}) {
			if len(line) == 0 {
				continue
			}
			switch line[0] {
			case ' ':
				newLine++
			case '+':
				out = append(out, newLine)
				newLine++
			case '-', '\\':
				// Old side only, or "\ No newline at end of file".
			}
		}
	}
	return out
}
