package lookup_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"github.com/rohmanhakim/dogbreeds/internal/lookup"
	"github.com/rohmanhakim/dogbreeds/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource blocks every call until release is closed and counts calls per breed.
type gatedSource struct {
	release chan struct{}
	started chan string
	calls   atomic.Int64
	fail    bool
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		release: make(chan struct{}),
		started: make(chan string, 100),
	}
}

func (g *gatedSource) SubBreeds(ctx context.Context, name string) ([]string, error) {
	g.calls.Add(1)
	g.started <- name
	<-g.release
	if g.fail {
		return nil, breed.NotFound(name)
	}
	return []string{"afghan", "basset"}, nil
}

func TestSubBreeds_ConcurrentSameKeySingleCall(t *testing.T) {
	src := newGatedSource()
	l := newLookup(t, src)

	const callers = 50
	var wg sync.WaitGroup
	results := make([][]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "hound"
			if i%2 == 0 {
				name = " HOUND "
			}
			results[i], errs[i] = l.SubBreeds(context.Background(), name)
		}(i)
	}

	select {
	case <-src.started:
	case <-time.After(5 * time.Second):
		t.Fatal("source was never called")
	}
	close(src.release)
	wg.Wait()

	assert.Equal(t, int64(1), src.calls.Load())
	assert.Equal(t, 1, l.CallsMade())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"afghan", "basset"}, results[i])
	}

	// Every caller got its own slice.
	results[0][0] = "poodle"
	assert.Equal(t, "afghan", results[1][0])
}

func TestSubBreeds_ConcurrentFailuresAreNotCached(t *testing.T) {
	src := newGatedSource()
	src.fail = true
	l := newLookup(t, src)

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.SubBreeds(context.Background(), "cat")
			assert.ErrorIs(t, err, breed.ErrNotFound)
		}()
	}

	<-src.started
	close(src.release)
	wg.Wait()

	made := l.CallsMade()
	assert.GreaterOrEqual(t, made, 1)
	assert.LessOrEqual(t, made, callers)
	assert.Equal(t, int64(made), src.calls.Load())
	assert.False(t, l.Cached("cat"))

	_, err := l.SubBreeds(context.Background(), "cat")
	assert.ErrorIs(t, err, breed.ErrNotFound)
	assert.Equal(t, made+1, l.CallsMade())
}

// crossSource lets "hound" finish only once "cat" has started, which
// deadlocks if lookups for different keys are serialized.
type crossSource struct {
	catStarted chan struct{}
}

func (c *crossSource) SubBreeds(ctx context.Context, name string) ([]string, error) {
	switch breed.Normalize(name) {
	case "hound":
		select {
		case <-c.catStarted:
			return []string{"afghan"}, nil
		case <-time.After(5 * time.Second):
			return nil, &breed.BreedError{Breed: name, Cause: breed.ErrCauseNetworkFailure, Message: "serialized"}
		}
	case "cat":
		close(c.catStarted)
		return nil, breed.NotFound(name)
	}
	return nil, breed.NotFound(name)
}

func TestSubBreeds_DifferentKeysRunInParallel(t *testing.T) {
	src := &crossSource{catStarted: make(chan struct{})}
	l := newLookup(t, src)

	var wg sync.WaitGroup
	var houndErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, houndErr = l.SubBreeds(context.Background(), "hound")
	}()

	time.Sleep(10 * time.Millisecond)
	_, catErr := l.SubBreeds(context.Background(), "cat")
	wg.Wait()

	assert.ErrorIs(t, catErr, breed.ErrNotFound)
	require.NoError(t, houndErr)
	assert.Equal(t, 2, l.CallsMade())
}

func TestSubBreeds_CounterMatchesRecordedCalls(t *testing.T) {
	sink := &recordingSink{}
	src := newGatedSource()
	close(src.release)
	go func() {
		for range src.started {
		}
	}()
	l := newLookup(t, src, lookup.WithSink(sink))

	var wg sync.WaitGroup
	names := []string{"hound", "Hound", "terrier", "TERRIER ", "spaniel", "hound"}
	for i := 0; i < 20; i++ {
		for _, n := range names {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				_, _ = l.SubBreeds(context.Background(), n)
			}(n)
		}
	}
	wg.Wait()
	close(src.started)

	calls := 0
	for _, o := range sink.outcomes() {
		if o == metadata.OutcomeMiss || o == metadata.OutcomeFailure {
			calls++
		}
	}
	assert.Equal(t, 3, l.CallsMade())
	assert.Equal(t, l.CallsMade(), calls)
	assert.Equal(t, int64(3), src.calls.Load())
}

func TestSubBreeds_EveryConcurrentCallerIsRecorded(t *testing.T) {
	for _, fail := range []bool{false, true} {
		sink := &recordingSink{}
		src := newGatedSource()
		src.fail = fail
		l := newLookup(t, src, lookup.WithSink(sink))

		const callers = 12
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.SubBreeds(context.Background(), "Hound")
			}()
		}

		<-src.started
		// give the other callers time to join the running flight
		time.Sleep(20 * time.Millisecond)
		close(src.release)
		wg.Wait()

		outcomes := sink.outcomes()
		require.Len(t, outcomes, callers)

		calls := 0
		for _, o := range outcomes {
			switch o {
			case metadata.OutcomeMiss, metadata.OutcomeFailure:
				calls++
			case metadata.OutcomeHit, metadata.OutcomeShared:
			default:
				t.Errorf("unexpected outcome %q", o)
			}
		}
		assert.Equal(t, l.CallsMade(), calls)
		assert.Contains(t, outcomes, metadata.OutcomeShared)
	}
}
