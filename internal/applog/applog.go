// Package applog wraps charmbracelet/log with the teacher's log-line
// vocabulary ([analyzing], [done], [cache hit]), ported from its
// log.Printf call sites onto a leveled structured logger.
package applog

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "djcore",
})

// SetLevel adjusts verbosity; level is one of "debug", "info", "warn",
// "error".
func SetLevel(level string) {
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
}

// Analyzing logs the start of a per-file analysis pass.
func Analyzing(path string) {
	logger.Info("[analyzing]", "path", path)
}

// Done logs a completed analysis.
func Done(path string, duration float64) {
	logger.Info("[done]", "path", path, "duration", duration)
}

// CacheHit logs a content-hash cache hit during a library scan.
func CacheHit(path string) {
	logger.Debug("[cache hit]", "path", path)
}

// Warn logs a partial-failure field (absorbed Optional, per §7).
func Warn(msg string, kv ...any) {
	logger.Warn(msg, kv...)
}

// Error logs a hard analysis failure.
func Error(msg string, kv ...any) {
	logger.Error(msg, kv...)
}
