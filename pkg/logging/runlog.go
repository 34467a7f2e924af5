package logging

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// runTimestamp is the ISO-8601 UTC layout with milliseconds used for run-log lines.
const runTimestamp = "2006-01-02T15:04:05.000Z07:00"

// RunLog is the ordered, timestamped diagnostic trail of one extraction run.
// It is safe for concurrent use.
type RunLog struct {
	mu    sync.Mutex
	runID string
	lines []string
	feed  *Feed
	now   func() time.Time
}

// NewRunLog creates an empty run log. feed may be nil.
func NewRunLog(runID string, feed *Feed) *RunLog {
	return &RunLog{runID: runID, feed: feed, now: time.Now}
}

// RunID returns the identifier of the run this log belongs to.
func (l *RunLog) RunID() string {
	return l.runID
}

// Add appends a formatted line prefixed with the current time.
func (l *RunLog) Add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s", l.now().UTC().Format(runTimestamp), msg)

	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()

	slog.Debug("run", "run_id", l.runID, "msg", msg)
	if l.feed != nil {
		l.feed.Publish(Line{RunID: l.runID, Text: line})
	}
}

// Reset clears the trail.
func (l *RunLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// Lines returns a copy of the trail.
func (l *RunLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of lines recorded so far.
func (l *RunLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}
