package logging

import (
	"log/slog"
	"sync"
)

// Line is one run-log line published on a Feed.
type Line struct {
	RunID string `json:"runId"`
	Text  string `json:"text"`
}

// Feed fans run-log lines out to live subscribers (the websocket stream).
// Slow subscribers lose lines rather than blocking the run.
type Feed struct {
	mu          sync.RWMutex
	subscribers []chan Line
}

// NewFeed creates a feed without subscribers.
func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe returns a channel that receives published lines.
// The channel should be drained to avoid dropped lines.
func (f *Feed) Subscribe(buffer int) <-chan Line {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Line, buffer)
	f.mu.Lock()
	f.subscribers = append(f.subscribers, ch)
	n := len(f.subscribers)
	f.mu.Unlock()
	slog.Debug("Run feed subscriber added", "total", n)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (f *Feed) Unsubscribe(ch <-chan Line) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(sub)
			slog.Debug("Run feed subscriber removed", "total", len(f.subscribers))
			return
		}
	}
}

// Publish sends a line to every subscriber without blocking.
func (f *Feed) Publish(l Line) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subscribers {
		select {
		case sub <- l:
		default:
			// Subscriber not keeping up, drop line
		}
	}
}

// Subscribers returns the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}
