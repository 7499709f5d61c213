// Package logger provides the aggregation engine's structured logging:
// log/slog, with a colorized handler when stderr is a terminal and a
// plain text handler otherwise.
package logger

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New returns the package's default logger, selecting a tint color
// handler for an interactive terminal and a plain text handler
// otherwise.
func New(component string) *slog.Logger {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler).With(slog.String("component", component))
}

// Discard returns a logger that drops everything, for use in tests and
// library embeddings that supply their own logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
