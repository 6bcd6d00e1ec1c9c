package cache

// Cache defines the port for sub-breed list storage, keyed by a
// normalized breed name.
//
// Implementations own the stored lists: Put keeps its own copy and Get
// hands out a fresh copy, so no caller can mutate a stored entry.
type Cache interface {
	// Get returns a copy of the list stored under key and true, or nil and
	// false when key is absent. It never modifies cache state.
	Get(key string) ([]string, bool)

	// Put stores a copy of value under key, replacing any previous entry.
	Put(key string, value []string)

	// Contains reports whether key is stored.
	Contains(key string) bool
}
