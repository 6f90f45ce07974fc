// Package log provides structured logging setup for statkit. It configures
// Go's log/slog with a JSON handler, maps error attributes to stack traces
// via cockroachdb/errors, and bridges the statkit warning system onto a
// zerolog sink so that ConvergenceWarning and friends come out as structured
// events rather than free-form text.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs the statkit slog default logger at the given level.
// Valid levels are "debug", "info", "warn" and "error".
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level name into a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
