package logger

import (
	"io"
	"log/slog"
)

// Discard drops every record. It is what components get when no logger is
// configured.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type Options struct {
	Debug  bool      // If false, all logging is discarded
	Output io.Writer // Destination when Debug is set
}

// New returns a text logger at debug level on opts.Output, or a discarding
// logger when debugging is off.
func New(opts Options) *slog.Logger {
	if !opts.Debug || opts.Output == nil {
		return Discard()
	}
	return slog.New(slog.NewTextHandler(opts.Output, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
