package rules

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// matchHost reports whether the host of rawURL matches the fetch pattern.
// Patterns are either exact host names ("docs.go.dev") or wildcards of the
// form "*.example.com", which match any subdomain but not the bare domain.
// Comparison is case-insensitive and ignores ports.
func matchHost(pattern, rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	pattern = strings.ToLower(pattern)

	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		// Subdomain match requires a non-empty prefix
		return strings.HasSuffix(host, "."+suffix)
	}
	return host == pattern
}

// validateHostPattern rejects fetch patterns that are neither a plain host
// name nor a "*.suffix" wildcard.
func validateHostPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty host pattern")
	}
	rest := strings.TrimPrefix(pattern, "*.")
	if rest == "" || strings.ContainsAny(rest, "*/ ") {
		return fmt.Errorf("host pattern must be a host name or *.suffix wildcard")
	}
	return nil
}

// hostOf extracts the lowercase host from a URL, stripping any port.
// Returns "" if the URL cannot be parsed or has no host.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Host
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}
