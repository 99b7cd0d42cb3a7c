package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var errCanceled = errors.New("canceled")

// prompter reads answers from the command's stdin. One reader is shared
// across questions so buffered input is not lost between them.
type prompter struct {
	out io.Writer
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{out: cmd.OutOrStdout(), in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) confirm(prompt string) (bool, error) {
	line, err := p.line(prompt)
	if err != nil {
		return false, err
	}
	resp := strings.ToLower(line)
	return resp == "y" || resp == "yes", nil
}

// line prints prompt and reads one trimmed line. EOF before any input
// yields an empty answer.
func (p *prompter) line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
