package metadata

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/rohmanhakim/dogbreeds/internal/build"
	"github.com/rohmanhakim/dogbreeds/pkg/hashutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

/*
Metadata is write-only: nothing recorded here may influence a lookup.

The Recorder turns events into structured apex/log entries and
OpenTelemetry counters. Without a configured MeterProvider the global
(no-op by default) provider is used.
*/

const instrumentationName = "github.com/rohmanhakim/dogbreeds/internal/metadata"

type MetadataSink interface {
	RecordLookup(event LookupEvent)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
	)

	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
}

type instruments struct {
	lookups metric.Int64Counter
	fetches metric.Int64Counter
	errors  metric.Int64Counter
}

type Recorder struct {
	component     string
	logger        log.Interface
	meterProvider metric.MeterProvider
	instruments   instruments
}

type RecorderOption func(*Recorder)

// WithLogger replaces the global apex logger.
func WithLogger(logger log.Interface) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMeterProvider(mp metric.MeterProvider) RecorderOption {
	return func(r *Recorder) {
		r.meterProvider = mp
	}
}

func NewRecorder(component string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		component: component,
		logger:    log.Log,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.meterProvider == nil {
		r.meterProvider = otel.GetMeterProvider()
	}
	r.instruments = newInstruments(r.meterProvider)
	return r
}

func newInstruments(mp metric.MeterProvider) instruments {
	meter := mp.Meter(instrumentationName, metric.WithInstrumentationVersion(build.Version))

	var inst instruments
	var err error

	inst.lookups, err = meter.Int64Counter(
		"dogbreeds.lookup.count",
		metric.WithDescription("Number of sub-breed lookups by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	inst.fetches, err = meter.Int64Counter(
		"dogbreeds.fetch.count",
		metric.WithDescription("Number of HTTP requests sent to the breed API"),
	)
	if err != nil {
		otel.Handle(err)
	}

	inst.errors, err = meter.Int64Counter(
		"dogbreeds.error.count",
		metric.WithDescription("Number of recorded errors by cause"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return inst
}

func (r *Recorder) RecordLookup(event LookupEvent) {
	fields := log.Fields{
		"component":   r.component,
		"breed":       event.Breed,
		"key":         event.Key,
		"outcome":     string(event.Outcome),
		"duration_ms": event.Duration.Milliseconds(),
	}
	if !event.Failed && event.Outcome != OutcomeFailure {
		fields["sub_breeds"] = event.SubBreeds
		if event.Digest != "" {
			fields["digest"] = event.Digest
		}
	}
	r.logger.WithFields(fields).Debug("lookup")

	if r.instruments.lookups != nil {
		r.instruments.lookups.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("outcome", string(event.Outcome))))
	}
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
	r.logger.WithFields(log.Fields{
		"component":    r.component,
		"url":          fetchUrl,
		"http_status":  httpStatus,
		"content_type": contentType,
		"duration_ms":  duration.Milliseconds(),
	}).Debug("fetch")

	if r.instruments.fetches != nil {
		r.instruments.fetches.Add(context.Background(), 1,
			metric.WithAttributes(attribute.Int("http_status", httpStatus)))
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	fields := log.Fields{
		"component":   r.component,
		"package":     packageName,
		"cause":       cause.String(),
		"observed_at": observedAt.Format(time.RFC3339Nano),
		"error":       details,
	}
	for _, a := range attrs {
		fields[string(a.Key)] = a.Value
	}
	r.logger.WithFields(fields).Warn(action)

	if r.instruments.errors != nil {
		r.instruments.errors.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("cause", cause.String())))
	}
}

// ListDigest returns the blake3 digest recorded alongside lookup events.
// An empty string is returned if hashing fails; metadata never fails a lookup.
func ListDigest(subBreeds []string) string {
	digest, err := hashutil.HashStrings(subBreeds, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return ""
	}
	return digest
}

// NoopSink implements MetadataSink and drops every event.
// Components (or tests) inject either a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordLookup(event LookupEvent) {}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}
