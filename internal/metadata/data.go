package metadata

import "time"

/*
LookupOutcome classifies a single CachingLookup call.

  - OutcomeHit: served from the cache, no source call.
  - OutcomeMiss: the source was called and succeeded; the result is now cached.
  - OutcomeFailure: the source was called and failed; nothing was cached.
  - OutcomeShared: the call joined another caller's in-flight source call
    and received its outcome. A shared failure carries no sub-breeds.

Miss and failure events together match the number of source calls.
*/
type LookupOutcome string

const (
	OutcomeHit     LookupOutcome = "hit"
	OutcomeMiss    LookupOutcome = "miss"
	OutcomeFailure LookupOutcome = "failure"
	OutcomeShared  LookupOutcome = "shared"
)

type LookupEvent struct {
	Breed     string
	Key       string
	Outcome   LookupOutcome
	SubBreeds int
	Digest    string
	Duration  time.Duration
	// Failed is set when no sub-breeds were returned; always true for
	// OutcomeFailure, and for an OutcomeShared whose flight failed.
	Failed bool
}

/*
ErrorCause is a closed classification used only for observability.
It must never drive retry or control-flow decisions.
If a failure does not clearly match a defined cause, CauseUnknown is used.
*/
type ErrorCause int

const (
	CauseUnknown ErrorCause = iota
	// Transport failure or remote unavailability.
	CauseNetworkFailure
	// The remote answered, but the payload could not be used.
	CauseContentInvalid
	// The remote, or a local table, does not know the breed.
	CauseNotFound
	// Waiting for the politeness delay was cut short.
	CausePolicyDisallow
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseNotFound:
		return "not_found"
	case CausePolicyDisallow:
		return "policy_disallow"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrBreed      AttributeKey = "breed"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrMessage    AttributeKey = "message"
)
