// Package piggybank holds the globals shared by every package of the
// repository: the logger and the list of prometheus collectors.
//
// The logging level is read from the LLVL environment variable and defaults
// to info.
package piggybank

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(ParseLevel(os.Getenv(EnvLogLevel)))

// PromCollectors exposes the prometheus collectors of the packages. A
// component that wants its metrics to be served appends its collectors from
// an init function.
var PromCollectors []prometheus.Collector

// ParseLevel returns the zerolog level matching the name, or the default
// level if the name is unknown.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}
