package breed

import "context"

// Source resolves a breed name to its sub-breed names.
//
// Implementations report every failure (unknown breed, invalid name,
// transport error, malformed response, timeout) as a *BreedError, so that
// errors.Is(err, ErrNotFound) holds for all of them. Callers cannot tell a
// missing breed from a transient failure and must not try to.
type Source interface {
	SubBreeds(ctx context.Context, breed string) ([]string, error)
}
