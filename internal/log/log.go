// Package log provides structured, colored logging for ironledger.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for each subsystem.
var (
	Chain      zerolog.Logger
	Store      zerolog.Logger
	Hub        zerolog.Logger
	Dispatch   zerolog.Logger
	Bootstrap  zerolog.Logger
	Supervisor zerolog.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init configures the global logger and re-derives the component loggers
// from it. When jsonOutput is false, stdout gets a colored console writer;
// otherwise structured JSON.
func Init(level string, jsonOutput bool) error {
	if jsonOutput {
		Logger = NewJSONLogger(os.Stdout, level)
	} else {
		Logger = NewConsoleLogger(os.Stdout, level)
	}
	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    false,
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	Chain = Logger.With().Str("component", "chain").Logger()
	Store = Logger.With().Str("component", "store").Logger()
	Hub = Logger.With().Str("component", "hub").Logger()
	Dispatch = Logger.With().Str("component", "dispatch").Logger()
	Bootstrap = Logger.With().Str("component", "bootstrap").Logger()
	Supervisor = Logger.With().Str("component", "supervisor").Logger()
}

// WithComponent returns a logger tagged with an arbitrary component name,
// for callers that don't have a dedicated package-level logger.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug logs a debug message on the global logger.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info logs an info message on the global logger.
func Info() *zerolog.Event { return Logger.Info() }

// Warn logs a warning message on the global logger.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error logs an error message on the global logger.
func Error() *zerolog.Event { return Logger.Error() }

// Fatal logs a fatal message on the global logger and exits.
func Fatal() *zerolog.Event { return Logger.Fatal() }

// Benchmark returns a stop function that logs the elapsed duration under
// name when called.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
