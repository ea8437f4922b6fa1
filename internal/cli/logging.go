package cli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation limits.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger builds the logger for a run. A log file takes precedence and
// receives JSON records; --debug alone logs text to stderr. The returned
// closer must be called once the run is done.
func newLogger(debug bool, file string, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	switch {
	case file != "":
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}

		return slog.New(slog.NewJSONHandler(rotating, opts)), rotating
	case debug:
		return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}
	default:
		return slog.New(slog.DiscardHandler), nopCloser{}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
