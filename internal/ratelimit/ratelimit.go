package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DomainLimiter enforces a minimum inter-request delay per registrable
// domain, process-wide. Concurrent scrapes of the same vendor queue behind
// each other instead of bursting against one host.
type DomainLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	jitter   bool

	mu   sync.Mutex
	last map[string]time.Time

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDomainLimiter(minDelay, maxDelay time.Duration) *DomainLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &DomainLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   true,
		last:     make(map[string]time.Time),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the per-domain delay since the previous request to the
// same host has elapsed, or the context is done.
func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	delay := l.calculateDelay()

	var wait time.Duration
	if prev, ok := l.last[host]; ok {
		elapsed := l.now().Sub(prev)
		if elapsed < delay {
			wait = delay - elapsed
		}
	}
	// Reserve the slot before sleeping so a concurrent caller for the same
	// host queues behind this request rather than alongside it.
	l.last[host] = l.now().Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

func (l *DomainLimiter) SetDelay(min, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minDelay = min
	l.maxDelay = max
	if l.maxDelay < l.minDelay {
		l.maxDelay = l.minDelay
	}
}

func (l *DomainLimiter) calculateDelay() time.Duration {
	if !l.jitter || l.minDelay == l.maxDelay {
		return l.minDelay
	}

	delta := l.maxDelay - l.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return l.minDelay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
