package lookup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"github.com/rohmanhakim/dogbreeds/internal/breed/cache"
	"github.com/rohmanhakim/dogbreeds/internal/metadata"
	"golang.org/x/sync/singleflight"
)

/*
CachingLookup

Responsibilities:
- Memoize successful sub-breed lookups, keyed by the normalized breed name
- Never memoize failures: a failed breed is asked again on the next lookup
- Count every call made to the wrapped Source
- Allow at most one in-flight Source call per normalized key

The wrapped Source always receives the caller's original spelling, not the
cache key. Failures are returned exactly as the Source produced them.
*/

var ErrInvalidArgument = errors.New("invalid argument")

var _ breed.Source = (*CachingLookup)(nil)

type CachingLookup struct {
	source    breed.Source
	cache     cache.Cache
	inflight  singleflight.Group
	callsMade atomic.Int64
	sink      metadata.MetadataSink
}

type Option func(*CachingLookup)

// WithCache stores results in c instead of a fresh in-memory cache.
// c must be empty and must not be shared with another CachingLookup.
func WithCache(c cache.Cache) Option {
	return func(l *CachingLookup) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithSink reports every lookup to sink. The default drops them.
func WithSink(sink metadata.MetadataSink) Option {
	return func(c *CachingLookup) {
		if sink != nil {
			c.sink = sink
		}
	}
}

func New(source breed.Source, opts ...Option) (*CachingLookup, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source must not be nil", ErrInvalidArgument)
	}

	c := &CachingLookup{
		source: source,
		cache:  cache.NewMemoryCache(),
		sink:   &metadata.NoopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubBreeds returns the sub-breeds of name. The returned slice belongs to
// the caller; changing it never affects later lookups.
//
// Concurrent lookups for the same normalized name share one Source call
// and its outcome. Lookups for different names do not wait on each other.
func (c *CachingLookup) SubBreeds(ctx context.Context, name string) ([]string, error) {
	start := time.Now()
	key := breed.Normalize(name)

	if list, ok := c.cache.Get(key); ok {
		c.record(name, key, metadata.OutcomeHit, list, start)
		return list, nil
	}

	// led is only set by the caller whose function runs; joined callers
	// report the shared outcome themselves.
	led := false
	v, err, _ := c.inflight.Do(key, func() (any, error) {
		led = true
		return c.resolve(ctx, name, key, start)
	})
	if err != nil {
		if !led {
			c.record(name, key, metadata.OutcomeShared, nil, start)
		}
		return nil, err
	}

	list := slices.Clone(v.([]string))
	if !led {
		c.record(name, key, metadata.OutcomeShared, list, start)
	}
	return list, nil
}

// resolve runs inside the key's flight. The cache is checked again because
// an earlier flight may have stored the key after our first check.
func (c *CachingLookup) resolve(ctx context.Context, name, key string, start time.Time) ([]string, error) {
	if list, ok := c.cache.Get(key); ok {
		c.record(name, key, metadata.OutcomeHit, list, start)
		return list, nil
	}

	c.callsMade.Add(1)
	list, err := c.source.SubBreeds(ctx, name)
	if err != nil {
		c.record(name, key, metadata.OutcomeFailure, nil, start)
		return nil, err
	}

	c.cache.Put(key, list)
	stored, _ := c.cache.Get(key)
	c.record(name, key, metadata.OutcomeMiss, stored, start)
	return stored, nil
}

// CallsMade returns how many times the wrapped Source has been called,
// failed calls included.
func (c *CachingLookup) CallsMade() int {
	return int(c.callsMade.Load())
}

// Cached reports whether name currently resolves from the cache.
func (c *CachingLookup) Cached(name string) bool {
	return c.cache.Contains(breed.Normalize(name))
}

func (c *CachingLookup) record(name, key string, outcome metadata.LookupOutcome, list []string, start time.Time) {
	event := metadata.LookupEvent{
		Breed:    name,
		Key:      key,
		Outcome:  outcome,
		Duration: time.Since(start),
	}
	if list == nil {
		event.Failed = true
	} else {
		event.SubBreeds = len(list)
		event.Digest = metadata.ListDigest(list)
	}
	c.sink.RecordLookup(event)
}
