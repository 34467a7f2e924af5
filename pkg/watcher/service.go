// Package watcher polls files for modification and reports changes.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Service watches a set of files for modification time changes.
// Files that do not exist are watched until they appear.
type Service struct {
	paths []string
	mu    sync.Mutex
	seen  map[string]time.Time
}

// NewService creates a watcher. The current modification times are the baseline, so
// only later changes are reported.
func NewService(paths ...string) *Service {
	s := &Service{
		paths: paths,
		seen:  make(map[string]time.Time),
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			s.seen[p] = info.ModTime()
		} else if os.IsNotExist(err) {
			slog.Debug("Watcher: file does not exist yet", "path", p)
		}
	}
	return s
}

// CheckChanged returns the files whose modification time changed since the last check,
// including files that appeared.
func (s *Service) CheckChanged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, p := range s.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if last, ok := s.seen[p]; ok && last.Equal(mod) {
			continue
		}
		s.seen[p] = mod
		changed = append(changed, p)
	}
	return changed
}

// Start polls every interval until ctx is cancelled and calls onChange for every
// changed file.
func (s *Service) Start(ctx context.Context, interval time.Duration, onChange func(ctx context.Context, path string)) {
	if len(s.paths) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range s.CheckChanged() {
				slog.Info("Watcher: file changed", "path", p)
				onChange(ctx, p)
			}
		}
	}
}
