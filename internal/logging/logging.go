// Package logging wires up the process-wide zerolog logger used by
// cmd/sssp-host and every internal package that takes a zerolog.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level, tagged with this host's ID so
// multi-host runs driven over a single terminal (loop transport, local
// integration tests) can still be told apart in the log stream.
//
// level accepts zerolog's usual names ("debug", "info", "warn", "error");
// an unrecognized name falls back to "info" rather than failing the run
// over a typo in a flag.
func New(level string, hostID uint32, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).
		Level(parsed).
		With().
		Timestamp().
		Uint32("host", hostID).
		Logger()
}

// ParseLevelOrDefault validates a --log-level flag value without building a
// logger, so cmd/sssp-host can reject a bad flag before any work starts.
func ParseLevelOrDefault(level string) (zerolog.Level, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("logging: invalid log level %q: %w", level, err)
	}
	return parsed, nil
}
