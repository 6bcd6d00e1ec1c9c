package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter
// Keeps requests to a single host apart by a minimum delay.
// Responsibilities:
// - Bookkeep each hostname's last request timestamp
// - Compute the remaining delay (base delay + jitter) for a hostname
// - Block a caller until that delay has elapsed, or its context ends
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
	Wait(ctx context.Context, host string) error
}

type ConcurrentRateLimiter struct {
	mu        sync.RWMutex
	rngMu     sync.Mutex
	baseDelay time.Duration
	jitter    time.Duration
	lastFetch map[string]time.Time
	rng       *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		lastFetch: make(map[string]time.Time),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Mark the given host lastFetch to time.Now()
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastFetch[host] = time.Now()
}

// computeJitter returns a pseudo-random duration in [0, max).
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return time.Duration(r.rng.Int63n(int64(max)))
}

// ResolveDelay returns how long a caller must still wait before hitting host.
// FinalDelay = BaseDelay + Jitter, minus the time elapsed since the last fetch.
// Hosts never marked resolve to zero.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	last, exists := r.lastFetch[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists {
		return 0
	}

	finalDelay := base + r.computeJitter(jitter)

	elapsed := time.Since(last)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until host may be fetched again.
// The caller's slot is reserved under the lock before sleeping, so concurrent
// callers for one host are spaced by the delay instead of leaving together.
// A cancelled wait gives its slot back if no later caller reserved after it.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	next, prev, hadPrev := r.reserve(host)

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.release(host, next, prev, hadPrev)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve books the earliest allowed fetch time for host and records it as
// the host's last fetch. lastFetch may therefore lie in the future.
func (r *ConcurrentRateLimiter) reserve(host string) (next, prev time.Time, hadPrev bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	next = now
	prev, hadPrev = r.lastFetch[host]
	if hadPrev {
		allowed := prev.Add(r.baseDelay + r.computeJitter(r.jitter))
		if allowed.After(now) {
			next = allowed
		}
	}
	r.lastFetch[host] = next
	return next, prev, hadPrev
}

func (r *ConcurrentRateLimiter) release(host string, reserved, prev time.Time, hadPrev bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastFetch[host].Equal(reserved) {
		return
	}
	if hadPrev {
		r.lastFetch[host] = prev
	} else {
		delete(r.lastFetch, host)
	}
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

// LastFetchAt reports when host was last marked, if ever.
func (r *ConcurrentRateLimiter) LastFetchAt(host string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	last, ok := r.lastFetch[host]
	return last, ok
}
