// Package logger provides prefixed charmbracelet/log loggers so each
// subsystem can tag its output while respecting the global log level.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Default creates a prefixed logger on stderr that follows the global
// log level.
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}
