// Package sysutil holds process-level helpers used by cmd/server.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Anything else selects info.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ConfigureLogging sets the global level and builds the process logger,
// writing JSON to w or a console rendering when pretty is set. The logger
// becomes both log.Logger and the fallback for log.Ctx on contexts that
// carry none, so service code logs the same way inside and outside a
// request.
func ConfigureLogging(level string, pretty bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// FirstNonEmpty returns the first non-blank string from a variadic list.
// If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
