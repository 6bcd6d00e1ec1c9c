package urlutil

import (
	"net/url"
	"strings"
)

// APIRoot returns the canonical form of an API base URL, so that every
// spelling of the same root produces the same request URLs:
//   - scheme and host are lowercased
//   - the default port of the scheme is dropped
//   - trailing slashes are removed from the path, the root path included
//   - query and fragment are removed
//
// The input is never modified. APIRoot(APIRoot(u)) == APIRoot(u).
func APIRoot(base url.URL) url.URL {
	root := base

	root.Scheme = strings.ToLower(root.Scheme)
	root.Host = HostKey(root)

	root.Path = strings.TrimRight(root.Path, "/")
	root.RawPath = ""

	root.Fragment = ""
	root.RawFragment = ""
	root.RawQuery = ""
	root.ForceQuery = false

	return root
}

// HostKey is the lowercased host of u without the scheme's default port.
// Per-host bookkeeping, such as politeness delays, is keyed by it.
func HostKey(u url.URL) string {
	host := strings.ToLower(u.Host)
	port := u.Port()
	if port == "" {
		return host
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return strings.ToLower(u.Hostname())
	}
	return host
}
