// Package cli implements the spangrid command-line interface.
//
// The commands pack item manifests into strips, drive the layout engine
// through scroll scripts, browse a strip interactively in the terminal, and
// serve the same operations over HTTP. The CLI is built using cobra, reads
// settings through viper, and logs via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - pack: Place every item and write SVG, PNG or JSON
//   - scroll: Run a scroll script and print the realized window per step
//   - browse: Scroll a strip interactively, restoring the saved anchor
//   - freespace: Show the free-space rectangles after N items
//   - anchors: Inspect the saved scroll anchors
//   - cache: Manage the layout and artifact cache
//   - serve: Run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --trace
// for per-item engine events. Loggers are passed through context.Context to
// allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/spangrid/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger: short timestamps, no caller, level as
// given.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times a multi-stage operation. Stages are logged at debug level
// with their own duration; done logs the total at info level.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// stage records the end of a named stage.
func (p *progress) stage(name string, keyvals ...any) {
	now := time.Now()
	kv := append([]any{"took", now.Sub(p.last).Round(time.Microsecond)}, keyvals...)
	p.logger.Debug(name, kv...)
	p.last = now
}

// done logs msg with the total elapsed time, e.g. "Packed 120 items elapsed=12ms".
func (p *progress) done(msg string, keyvals ...any) {
	kv := append([]any{"elapsed", time.Since(p.start).Round(time.Millisecond)}, keyvals...)
	p.logger.Info(msg, kv...)
}

type ctxKey struct{}

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
