package request

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// backoff computes the pause before a retry: base * 2^attempt capped at max, plus up to
// 10% jitter. A longer Retry-After hint from the server wins, still capped at max.
type backoff struct {
	base   time.Duration
	max    time.Duration
	jitter func() float64
}

func newBackoff(base, ceiling time.Duration) backoff {
	return backoff{base: base, max: ceiling, jitter: rand.Float64}
}

func (b backoff) delay(attempt int, hint time.Duration) time.Duration {
	d := b.base
	for i := 0; i < attempt && d < b.max; i++ {
		d *= 2
	}
	if hint > d {
		d = hint
	}
	if d > b.max {
		d = b.max
	}
	return d + time.Duration(b.jitter()*0.1*float64(d))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
