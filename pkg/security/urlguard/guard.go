// Package urlguard validates navigation targets against an SSRF policy.
// Every URL the browser is asked to load, the start URL and each in-plan
// navigation, must pass Guard.Validate first.
package urlguard

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError reports why a URL was refused.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsafe URL %q: %s", e.URL, e.Reason)
}

// localHosts are loopback names resolvers commonly map to the local machine.
var localHosts = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"ip6-localhost":         {},
	"ip6-loopback":          {},
	"0.0.0.0":               {},
	"::1":                   {},
}

// metadataHosts are cloud instance metadata endpoints.
var metadataHosts = map[string]struct{}{
	"169.254.169.254":          {},
	"metadata.google.internal": {},
}

// reservedPrefixes are ranges not covered by the netip predicates that must
// never be reachable: shared address space, documentation, benchmarking,
// IETF protocol assignments, "this network" and the class E block.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("fc00::/7"),
}

// Guard holds an optional domain allow-list.
type Guard struct {
	exact    []string
	patterns []glob.Glob
}

// New creates a Guard. Allow-list entries may carry a scheme or path, which
// are ignored. Entries containing '*' are glob patterns over dot-separated
// labels, so "*.example.com" matches one label and "**.example.com" any
// number. With no entries every public domain is allowed.
func New(allowedDomains ...string) (*Guard, error) {
	g := &Guard{}
	for _, raw := range allowedDomains {
		entry := normalizeEntry(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "*") {
			pattern, err := glob.Compile(entry, '.')
			if err != nil {
				return nil, fmt.Errorf("invalid allow-list pattern %q: %w", raw, err)
			}
			g.patterns = append(g.patterns, pattern)
			continue
		}
		g.exact = append(g.exact, entry)
	}
	return g, nil
}

// Validate is a convenience wrapper that builds a Guard and reports whether
// rawURL passes it. Invalid allow-list patterns reject everything.
func Validate(rawURL string, allowedDomains ...string) bool {
	g, err := New(allowedDomains...)
	if err != nil {
		return false
	}
	return g.IsAllowed(rawURL)
}

// IsAllowed reports whether rawURL passes Validate.
func (g *Guard) IsAllowed(rawURL string) bool {
	return g.Validate(rawURL) == nil
}

// HasAllowList reports whether the guard restricts domains.
func (g *Guard) HasAllowList() bool {
	return g != nil && (len(g.exact) > 0 || len(g.patterns) > 0)
}

// Validate returns a *ValidationError when rawURL is not a safe navigation
// target.
func (g *Guard) Validate(rawURL string) error {
	reject := func(reason string) error {
		return &ValidationError{URL: rawURL, Reason: reason}
	}

	if strings.TrimSpace(rawURL) == "" {
		return reject("empty URL")
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return reject("malformed URL")
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return reject(fmt.Sprintf("scheme %q is not allowed", u.Scheme))
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return reject("missing hostname")
	}

	if isLocalHost(host) {
		return reject("loopback hostname")
	}
	if _, ok := metadataHosts[host]; ok || strings.HasPrefix(host, "metadata.") {
		return reject("cloud metadata endpoint")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if reason := blockedAddr(addr); reason != "" {
			return reject(reason)
		}
		if g.HasAllowList() && !g.matchesAddr(addr) {
			return reject("IP address is not in the allow-list")
		}
		return nil
	}

	if looksNumeric(host) {
		// Browsers resolve forms like 2130706433 or 0x7f.1 to IPv4 addresses.
		return reject("ambiguous numeric hostname")
	}

	if g.HasAllowList() && !g.matches(host) {
		return reject(fmt.Sprintf("domain %q is not in the allow-list", host))
	}
	return nil
}

// matchesAddr requires an exact allow-list entry for IP literals, so
// "3.4" never admits "1.2.3.4".
func (g *Guard) matchesAddr(addr netip.Addr) bool {
	for _, entry := range g.exact {
		if a, err := netip.ParseAddr(strings.Trim(entry, "[]")); err == nil && a.Unmap() == addr.Unmap() {
			return true
		}
	}
	return false
}

func (g *Guard) matches(host string) bool {
	for _, entry := range g.exact {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	for _, pattern := range g.patterns {
		if pattern.Match(host) {
			return true
		}
	}
	return false
}

func isLocalHost(host string) bool {
	if _, ok := localHosts[host]; ok {
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

// blockedAddr returns a reason when addr is not publicly routable.
func blockedAddr(addr netip.Addr) string {
	addr = addr.WithZone("").Unmap()
	switch {
	case addr.IsUnspecified():
		return "unspecified address"
	case addr.IsLoopback():
		return "loopback address"
	case addr.IsPrivate():
		return "private address"
	case addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast():
		return "link-local address"
	case addr.IsMulticast(), addr.IsInterfaceLocalMulticast():
		return "multicast address"
	}
	for _, prefix := range reservedPrefixes {
		if prefix.Contains(addr) {
			return "reserved address range"
		}
	}
	return ""
}

// looksNumeric reports whether every label is a decimal, octal or hex number.
func looksNumeric(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return false
		}
		digits := label
		if strings.HasPrefix(label, "0x") {
			digits = label[2:]
			if digits == "" {
				return true
			}
			for _, r := range digits {
				if !strings.ContainsRune("0123456789abcdef", r) {
					return false
				}
			}
			continue
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func normalizeEntry(raw string) string {
	entry := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(entry, "://"); i >= 0 {
		entry = entry[i+3:]
	}
	if i := strings.IndexAny(entry, "/?#"); i >= 0 {
		entry = entry[:i]
	}
	if i := strings.LastIndex(entry, ":"); i >= 0 && !strings.Contains(entry, "]") && strings.Count(entry, ":") == 1 {
		entry = entry[:i]
	}
	entry = strings.TrimPrefix(entry, ".")
	return strings.TrimSuffix(entry, ".")
}
