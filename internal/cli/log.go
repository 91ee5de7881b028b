// Package cli implements the microperf command-line interface.
//
// The CLI is built on cobra. Every command shares one charmbracelet/log
// logger, which is also attached to the command context.
//
// # Commands
//
//   - generate: lay out one pattern and write it as DXF, SVG, JSON, PDF or PNG
//   - series: compose the patterns of a TOML series file onto one drawing
//   - inspect: summarise the layers and extent of a DXF file
//   - serve: run the HTTP API
//   - history: list recorded runs
//   - cache: clear or locate the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat keeps centiseconds so consecutive pipeline steps stay ordered.
const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
	})
}

// progress logs how long a step took, e.g. "Rendered dxf, svg (12ms)".
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg + " (" + elapsed.String() + ")")
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
