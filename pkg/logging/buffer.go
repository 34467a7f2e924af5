package logging

import (
	"strings"
	"sync"
)

// captureSize is how many server log lines the capture ring keeps.
const captureSize = 64

// Ring keeps the most recent server log lines for the log API.
type Ring struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewRing creates a ring holding up to size lines.
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{lines: make([]string, size)}
}

// Capture receives the INFO+ server log.
var Capture = NewRing(captureSize)

// Write implements io.Writer. slog's text handler writes one record per call.
func (r *Ring) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return len(p), nil
}

// Last returns the most recent line, or "" when nothing was logged yet.
func (r *Ring) Last() string {
	tail := r.Tail(1)
	if len(tail) == 0 {
		return ""
	}
	return tail[0]
}

// Tail returns up to n lines, oldest first.
func (r *Ring) Tail(n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.lines)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]string, 0, n)
	start := r.next - n
	for i := 0; i < n; i++ {
		idx := (start + i + len(r.lines)) % len(r.lines)
		out = append(out, r.lines[idx])
	}
	return out
}
