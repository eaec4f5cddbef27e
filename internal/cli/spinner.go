package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a one-line status on a terminal while a blocking call
// runs. It stops when Stop is called or its context ends.
type spinner struct {
	w io.Writer

	mu  sync.Mutex
	msg string

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// startSpinner starts a spinner on stderr. Off a terminal it prints nothing.
func startSpinner(ctx context.Context, msg string) *spinner {
	return newSpinner(ctx, os.Stderr, msg, isatty.IsTerminal(os.Stderr.Fd()))
}

func newSpinner(ctx context.Context, w io.Writer, msg string, animate bool) *spinner {
	s := &spinner{
		w:       w,
		msg:     msg,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if !animate {
		close(s.stopped)
		return s
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.draw(spinnerFrames[i%len(spinnerFrames)])
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.stop:
			s.clear()
			return
		case <-ticker.C:
		}
	}
}

// Update replaces the message shown next to the spinner.
func (s *spinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// Stop ends the animation and clears the line. It is safe to call more than
// once.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
}
