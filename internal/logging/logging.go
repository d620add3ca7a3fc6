// Package logging builds the *slog.Logger cmd/codecfilterd hands to
// codec.NewFilter, optionally tee-ing to a rotating file sink. Grounded
// on firestige-Otus's internal/log package, which wraps
// gopkg.in/natefinch/lumberjack.v2 behind a slog handler; this module's
// core codec package never constructs one of these itself, it only
// consumes the resulting codec.Logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink configures optional log rotation, mirroring
// firestige-Otus's FileAppenderOpt field-for-field.
type FileSink struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a *slog.Logger — which satisfies codec.Logger directly —
// at the given level, writing to stderr and, if sink.Filename is set,
// additionally to a rotating file.
func New(level string, format string, sink *FileSink) *slog.Logger {
	var writer io.Writer = os.Stderr
	if sink != nil && sink.Filename != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   sink.Filename,
			MaxSize:    sink.MaxSizeMB,
			MaxBackups: sink.MaxBackups,
			MaxAge:     sink.MaxAgeDays,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
