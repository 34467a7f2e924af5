package logging

import (
	"log/slog"
	"strings"
	"sync/atomic"
)

var traceEnabled atomic.Bool

// SetTrace switches per-request transport tracing on or off.
func SetTrace(on bool) {
	traceEnabled.Store(on)
}

// TraceDefault logs at DEBUG on the default logger when tracing is on.
func TraceDefault(msg string, args ...any) {
	if traceEnabled.Load() {
		slog.Debug(msg, args...)
	}
}

func isTraceLevel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "TRACE")
}
