package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on stderr while the storefront waits on
// the API. It only draws on a terminal so piped output stays clean.
type spinner struct {
	mu       sync.Mutex
	writer   io.Writer
	prefix   string
	interval time.Duration
	colorize bool
	frame    int
	active   bool
	done     chan struct{}
	exited   chan struct{}
}

func newSpinner(w io.Writer, prefix string) *spinner {
	return &spinner{
		writer:   w,
		prefix:   prefix,
		interval: 100 * time.Millisecond,
		colorize: isTerminal(w),
	}
}

func (s *spinner) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})

	go func(done, exited chan struct{}) {
		defer close(exited)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.mu.Unlock()
			}
		}
	}(s.done, s.exited)
}

// stop halts the animation and clears the line. It waits for the render
// goroutine so nothing is written after it returns.
func (s *spinner) stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	exited := s.exited
	s.mu.Unlock()

	<-exited
	fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", len(s.prefix)+4)+"\r")
}

func (s *spinner) render() {
	frame := spinnerFrames[s.frame%len(spinnerFrames)]
	s.frame++
	if s.colorize {
		frame = colorCyan + frame + colorReset
	}
	fmt.Fprintf(s.writer, "\r%s %s", frame, s.prefix)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
