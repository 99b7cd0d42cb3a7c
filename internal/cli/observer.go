package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dimensionhq/neura/internal/fixloop"
	"github.com/dimensionhq/neura/internal/patch"
	"github.com/dimensionhq/neura/internal/ux"
)

// watchObserver prints loop progress. With text disabled it only drives
// the spinner.
type watchObserver struct {
	w        io.Writer
	text     bool
	checkCmd string
	spinner  *ux.Spinner
}

func newWatchObserver(w io.Writer, checkCmd string, text bool) *watchObserver {
	return &watchObserver{w: w, text: text, checkCmd: checkCmd, spinner: ux.NewSpinner(w)}
}

func (o *watchObserver) Observe(e fixloop.Event) {
	switch e.Kind {
	case fixloop.EventCheckStarted:
		o.spinner.Start(fmt.Sprintf("💻 Running `%s` ...", o.checkCmd))
	case fixloop.EventCheckFinished:
		o.spinner.Stop()
		if o.text && e.Total > 0 {
			fmt.Fprintf(o.w, "🔍 Found %d %s.\n", e.Total, plural(e.Total, "error", "errors"))
		}
	case fixloop.EventRequestStarted:
		o.spinner.Start("🐛 Debugging your issue ...")
	case fixloop.EventPlanReceived:
		o.spinner.Stop()
		if o.text {
			fmt.Fprintf(o.w, "📝 Prompt token count: %d\n", e.Result.PromptTokens)
		}
	case fixloop.EventEditApplied:
		if o.text {
			fmt.Fprintln(o.w, ux.Styles.Highlight.Render(fmt.Sprintf("> Editing %s, line %d", e.Edit.File, e.Edit.LineNumber)))
		}
	case fixloop.EventEditInvalid:
		if !o.text {
			break
		}
		if errors.Is(e.Err, patch.ErrInvalidText) {
			ux.Errorf(o.w, "Rejected edit: %v", e.Err)
		} else {
			ux.Errorf(o.w, "Invalid line number %d in %s", e.Edit.LineNumber, e.Edit.File)
		}
	case fixloop.EventSkipped:
		o.spinner.Stop()
		if o.text {
			ux.Warningf(o.w, "Skipped %s: %v", e.Diagnostic.File, e.Err)
		}
	case fixloop.EventReverifyStarted:
		o.spinner.Start(fmt.Sprintf("💻 Re-running `%s` ...", o.checkCmd))
	case fixloop.EventReverifyFinished:
		o.spinner.Stop()
	}
}
