package codec

import "log/slog"

// Logger is the structured logging interface CodecFilter reports through.
// It is designed to be satisfied directly by *slog.Logger; applications
// that already standardize on slog need no adapter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger returns the process-wide slog default, used when a Filter
// is constructed without an explicit WithLogger option.
func defaultLogger() Logger {
	return slog.Default()
}
