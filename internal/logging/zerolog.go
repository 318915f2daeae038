package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds a console-format zerolog logger for components that log
// through zerolog, such as the database and InfluxDB clients.
func NewZerolog(w io.Writer, level string, component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).Level(zerologLevel(level)).
		With().Timestamp().Str("component", component).Logger()
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
