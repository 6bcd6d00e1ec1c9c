package lookup_test

import (
	"context"
	"sync"

	"github.com/rohmanhakim/dogbreeds/internal/metadata"
	"github.com/stretchr/testify/mock"
)

// sourceMock is a testify mock for breed.Source
type sourceMock struct {
	mock.Mock
}

func (s *sourceMock) SubBreeds(ctx context.Context, breed string) ([]string, error) {
	args := s.Called(ctx, breed)
	var list []string
	if args.Get(0) != nil {
		list = args.Get(0).([]string)
	}
	return list, args.Error(1)
}

// recordingSink keeps every lookup event for assertions.
type recordingSink struct {
	metadata.NoopSink
	mu     sync.Mutex
	events []metadata.LookupEvent
}

func (r *recordingSink) RecordLookup(event metadata.LookupEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) outcomes() []metadata.LookupOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]metadata.LookupOutcome, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Outcome)
	}
	return out
}
