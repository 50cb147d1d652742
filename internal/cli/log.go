// Package cli implements the chainflow command-line interface.
//
// # Commands
//
//   - replay: lay out a recorded JSON-lines feed and write the result
//   - serve: run a live scene and publish it over HTTP
//   - watch: monitor a live feed and its layout passes in the terminal
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so long-running helpers can log progress.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lightningnetwork/lnd/clock"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation. It is not safe for
// concurrent use.
type progress struct {
	logger *log.Logger
	clock  clock.Clock
	start  time.Time
}

func newProgress(l *log.Logger, clk clock.Clock) *progress {
	return &progress{logger: l, clock: clk, start: clk.Now()}
}

// done logs the formatted message with the elapsed time rounded to the
// millisecond, e.g. "Replayed 750 items (1.234s)".
func (p *progress) done(format string, args ...any) {
	elapsed := p.clock.Now().Sub(p.start).Round(time.Millisecond)
	p.logger.Infof("%s (%s)", fmt.Sprintf(format, args...), elapsed)
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
