package breed

import "strings"

// Normalize maps equivalent spellings of a breed name to a single key:
// surrounding whitespace is trimmed and letters are lower-cased.
// Casing does not depend on the process locale. The empty string is a
// valid input and normalizes to itself.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
