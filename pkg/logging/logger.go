// Package logging builds the hclog loggers used by pwakit.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read by the logger factory.
const (
	EnvLogLevel = "PWAKIT_LOG_LEVEL"
	EnvJSONLog  = "PWAKIT_JSON_LOG"
)

// Prefix marks every text log line written by pwakit.
const Prefix = "🧩 "

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	logger, _ := NewLoggerWithWriter(name, level, output)
	return logger
}

// NewLoggerWithWriter is NewLogger that also returns the PrefixWriter behind
// text output, so a command can Flush it before exiting. The writer is nil in
// JSON mode.
func NewLoggerWithWriter(name string, level string, output io.Writer) (hclog.Logger, *PrefixWriter) {
	if output == nil {
		output = os.Stderr
	}

	// Determine if JSON format should be used
	jsonFormat := os.Getenv(EnvJSONLog) == "1"

	// Add prefix for non-JSON output
	var pw *PrefixWriter
	if !jsonFormat {
		pw = NewPrefixWriter(Prefix, output)
		output = pw
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts), pw
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv(EnvLogLevel)
	if level == "" {
		level = "warn" // Default to warn for production safety
	}
	return level
}

// ResolveLevel prefers an explicit flag value over the environment.
func ResolveLevel(flag string) string {
	if flag != "" {
		return flag
	}
	return GetLogLevel()
}
