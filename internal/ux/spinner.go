package ux

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// IsTerminal reports whether stream is a terminal. It accepts either end of
// stdio.
func IsTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Spinner animates a status message on a terminal. On anything else it
// stays silent so piped output and tests see only the final lines.
type Spinner struct {
	w       io.Writer
	enabled bool

	mu      sync.Mutex
	message string
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w, enabled: IsTerminal(w)}
}

func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running || !s.enabled {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

func (s *Spinner) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	frame := 0
	for {
		select {
		case <-stop:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r\033[K%s %s", Styles.Highlight.Render(spinnerFrames[frame]), msg)
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// Update changes the message without restarting the animation.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop clears the spinner line. Safe to call when not running.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
