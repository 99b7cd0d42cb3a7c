// Package tokens counts prompt and completion tokens for cost estimates.
package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding is the BPE used by every model neura supports.
const Encoding = "cl100k_base"

// Counter returns the number of tokens text encodes to.
type Counter interface {
	Count(text string) int
}

type bpeCounter struct {
	enc *tiktoken.Tiktoken
}

func (c bpeCounter) Count(text string) int {
	return len(c.enc.Encode(text, []string{"all"}, nil))
}

// Estimate approximates four characters per token. Used when the BPE ranks
// cannot be loaded, e.g. offline on first use.
type Estimate struct{}

func (Estimate) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

var (
	loadOnce sync.Once
	loaded   Counter
	loadErr  error
)

// NewCounter returns a cl100k_base counter, falling back to Estimate when
// the encoding is unavailable.
func NewCounter(logger *slog.Logger) Counter {
	loadOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			loadErr = err
			return
		}
		loaded = bpeCounter{enc: enc}
	})
	if loadErr != nil {
		if logger != nil {
			logger.Warn("token encoding unavailable, estimating counts", "encoding", Encoding, "error", loadErr)
		}
		return Estimate{}
	}
	return loaded
}
