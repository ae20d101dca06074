// Package logging builds the structured loggers used by both binaries.
//
// Output goes to stderr through a tint handler; stdout is reserved for the
// MCP protocol in the server binary and for nothing at all in the batch CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "PACKDEF_LOG_LEVEL"

// ParseLevel maps debug, info, warn/warning and error to slog levels. Anything
// else, including the empty string, is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a tint-backed logger writing to w at level. Colour is disabled
// unless w is a terminal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(w),
	}))
}

// FromEnv returns a stderr logger at the level named by PACKDEF_LOG_LEVEL.
func FromEnv() *slog.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv(EnvLevel)))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
