// Package monitoring holds the process-wide diagnostic logger and the
// pipeline counters reported on the status and debug pages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the pipeline, the
// transport and the serial layer. It defaults to log.Printf but may be
// replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
