package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	b := backoff{base: time.Second, max: 30 * time.Second, jitter: func() float64 { return 0 }}

	tests := []struct {
		name    string
		attempt int
		hint    time.Duration
		want    time.Duration
	}{
		{"First retry", 0, 0, time.Second},
		{"Second retry", 1, 0, 2 * time.Second},
		{"Third retry", 2, 0, 4 * time.Second},
		{"Capped", 10, 0, 30 * time.Second},
		{"Longer hint wins", 0, 5 * time.Second, 5 * time.Second},
		{"Shorter hint ignored", 2, time.Second, 4 * time.Second},
		{"Hint capped", 0, time.Hour, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.delay(tt.attempt, tt.hint); got != tt.want {
				t.Errorf("delay(%d, %v) = %v, want %v", tt.attempt, tt.hint, got, tt.want)
			}
		})
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := backoff{base: time.Second, max: time.Minute, jitter: func() float64 { return 1 }}
	if got := b.delay(0, 0); got != 1100*time.Millisecond {
		t.Errorf("delay with full jitter = %v, want 1.1s", got)
	}
}

func TestSleep_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := sleep(ctx, 10*time.Second); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("sleep() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep ignored the context deadline")
	}
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("sleep(0) = %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]time.Duration{
		"":                              0,
		"7":                             7 * time.Second,
		"-3":                            0,
		"soon":                          0,
		"Sun, 01 Mar 2026 12:00:30 GMT": 30 * time.Second,
		"Sun, 01 Mar 2026 11:00:00 GMT": 0,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in, now); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRetryAfterHeaderIsRecorded(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer svr.Close()

	_, err := New(nil, fastOptions(0)).PostWithHeaders(context.Background(), svr.URL, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", se.RetryAfter)
	}
}
