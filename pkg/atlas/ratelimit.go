package atlas

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outgoing requests with a token bucket. One limiter is
// owned by each client instance and shared by all of its concurrent
// operations; it is never process-global.
type RateLimiter struct {
	tokens chan struct{}

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
	closed bool
}

// NewRateLimiter creates a limiter admitting rps requests per second with
// the given burst capacity. rps and burst must be positive.
func NewRateLimiter(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}

	if burst <= 0 {
		burst = 1
	}

	limiter := &RateLimiter{
		tokens: make(chan struct{}, burst),
		ticker: time.NewTicker(time.Second / time.Duration(rps)),
		stop:   make(chan struct{}),
	}

	// Fill the bucket initially
	for i := 0; i < burst; i++ {
		limiter.tokens <- struct{}{}
	}

	go limiter.refill()

	return limiter
}

func (l *RateLimiter) refill() {
	for {
		select {
		case <-l.ticker.C:
			select {
			case l.tokens <- struct{}{}:
			default:
				// Bucket is full
			}
		case <-l.stop:
			return
		}
	}
}

// Acquire blocks until pacing allows another request or ctx is cancelled.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the refill loop. Blocked Acquire calls unblock only through
// their context.
func (l *RateLimiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.closed = true
	l.ticker.Stop()
	close(l.stop)
}
