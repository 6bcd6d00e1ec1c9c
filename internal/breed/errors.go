package breed

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/dogbreeds/pkg/failure"
)

// ErrNotFound is the single error kind of a breed lookup.
var ErrNotFound = errors.New("breed not found")

type BreedErrorCause string

const (
	ErrCauseUnknownBreed          BreedErrorCause = "unknown breed"
	ErrCauseInvalidBreed          BreedErrorCause = "invalid breed name"
	ErrCauseNetworkFailure        BreedErrorCause = "network issues"
	ErrCauseUnexpectedStatus      BreedErrorCause = "unexpected http status"
	ErrCauseReadResponseBodyError BreedErrorCause = "failed to read response body"
	ErrCauseMalformedResponse     BreedErrorCause = "malformed response"
	ErrCauseRateLimitWait         BreedErrorCause = "interrupted while waiting for rate limit"
)

// BreedError reports why a breed could not be resolved. Cause is kept for
// diagnostics only; every BreedError is an ErrNotFound.
type BreedError struct {
	Breed     string
	Message   string
	Retryable bool
	Cause     BreedErrorCause
}

func (e *BreedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("breed error: %s: %q", e.Cause, e.Breed)
	}
	return fmt.Sprintf("breed error: %s: %q: %s", e.Cause, e.Breed, e.Message)
}

func (e *BreedError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *BreedError) IsRetryable() bool {
	return e.Retryable
}

// Is collapses every cause into the ErrNotFound kind.
func (e *BreedError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds the plain "breed does not exist" error.
func NotFound(breed string) *BreedError {
	return &BreedError{
		Breed:     breed,
		Retryable: false,
		Cause:     ErrCauseUnknownBreed,
	}
}
