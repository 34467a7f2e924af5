package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestService_CheckChanged(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "references.csv")
	later := filepath.Join(dir, "later.csv")

	if err := os.WriteFile(existing, []byte("name,locale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewService(existing, later)

	// 1. Baseline - nothing changed
	if got := s.CheckChanged(); len(got) != 0 {
		t.Errorf("Expected no changes, got %v", got)
	}

	// 2. Modify existing file
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(existing, future, future); err != nil {
		t.Fatal(err)
	}
	got := s.CheckChanged()
	if len(got) != 1 || got[0] != existing {
		t.Errorf("Expected [%s], got %v", existing, got)
	}

	// 3. Reported once
	if got := s.CheckChanged(); len(got) != 0 {
		t.Errorf("Expected change to be reported once, got %v", got)
	}

	// 4. New file appears
	if err := os.WriteFile(later, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got = s.CheckChanged()
	if len(got) != 1 || got[0] != later {
		t.Errorf("Expected [%s], got %v", later, got)
	}
}

func TestService_Start(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.csv")
	s := NewService(path)

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, 5*time.Millisecond, func(ctx context.Context, p string) {
			atomic.AddInt32(&calls, 1)
		})
		close(done)
	}()

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 change callback, got %d", calls)
	}
}

func TestService_StartWithoutPaths(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewService().Start(context.Background(), time.Millisecond, func(context.Context, string) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start without paths should return immediately")
	}
}
