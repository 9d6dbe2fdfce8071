// Package allowlist decides which UDP destinations the relay may send to.
//
// Patterns are either exact host strings or dotted prefixes written in
// CIDR-like notation ("10.0.0.0/24"). The prefix form compares whole
// dot-separated segments only: every segment of the network part except the
// last must equal the matching leading segment of the candidate. The network
// part needs at least three segments and the candidate exactly four, so
// "10.0.0.evil.example" is not inside "10.0.0.0/24". The suffix after '/' is
// not interpreted, so only /24 style prefixes behave as their notation
// suggests.
package allowlist

import "strings"

const (
	minNetworkSegments = 3
	hostSegments       = 4
)

// IsAllowed reports whether host is permitted by patterns.
// A nil pattern list allows every host.
func IsAllowed(host string, patterns []string) bool {
	if patterns == nil {
		return true
	}
	for _, p := range patterns {
		if Match(p, host) {
			return true
		}
	}
	return false
}

// Match reports whether a single pattern matches host.
// Malformed patterns never match.
func Match(pattern, host string) bool {
	if pattern == host {
		return true
	}

	network, _, ok := strings.Cut(pattern, "/")
	if !ok || strings.Contains(pattern[len(network)+1:], "/") {
		return false
	}

	netParts := strings.Split(network, ".")
	if len(netParts) < minNetworkSegments {
		return false
	}
	prefix := netParts[:len(netParts)-1]

	hostParts := strings.Split(host, ".")
	if len(hostParts) != hostSegments || len(prefix) > hostSegments {
		return false
	}

	for i, seg := range prefix {
		if seg == "" || hostParts[i] != seg {
			return false
		}
	}
	return true
}

// Parse splits a comma-separated pattern list, trimming whitespace around
// each entry. Empty entries are dropped. The result is never nil, so a list
// that was configured but holds no usable entry denies every host.
func Parse(csv string) []string {
	out := []string{}
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
