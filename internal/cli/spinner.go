package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
)

// spinnerInterval is the time between spinner frames.
const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows a progress indicator on stderr until it is stopped or its
// context is cancelled.
type Spinner struct {
	message string
	out     io.Writer
	ticker  ticker.Ticker

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// newSpinnerWithContext creates a spinner that stops when ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return newSpinnerWithTicker(ctx, message, os.Stderr, ticker.New(spinnerInterval))
}

func newSpinnerWithTicker(ctx context.Context, message string, out io.Writer, t ticker.Ticker) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		out:     out,
		ticker:  t,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.ticker.Resume()
	go func() {
		defer close(s.stopped)
		defer s.ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.ticker.Ticks():
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s %s", StyleTitle.Render(spinnerFrames[i%len(spinnerFrames)]), s.message)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner context is done.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
