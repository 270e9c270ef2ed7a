package core

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// MatchesPattern reports whether hostname is covered by pattern.
// A "*."-prefixed pattern matches the base domain and any subdomain.
// Any other pattern is treated as a glob over the whole hostname:
// '*' matches zero or more characters, '?' matches exactly one.
// Matching is case-insensitive.
func MatchesPattern(pattern, hostname string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if pattern == "" || hostname == "" {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		domain := strings.TrimPrefix(pattern, "*.")
		return hostname == domain || strings.HasSuffix(hostname, "."+domain)
	}

	re, err := PatternToRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(hostname)
}

// PatternToRegexp compiles a rule pattern into an anchored, case-insensitive
// hostname regexp using the same translation as MatchesPattern. Shared by the
// matcher and the PAC builder so both layers decide identically.
func PatternToRegexp(pattern string) (*regexp.Regexp, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	var expr string
	if strings.HasPrefix(pattern, "*.") {
		domain := strings.TrimPrefix(pattern, "*.")
		expr = `^(.*\.)?` + regexp.QuoteMeta(domain) + `$`
	} else {
		expr = "^" + globToRegexp(pattern) + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	return re, nil
}

func globToRegexp(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// NormalizeToWildcard generalizes a hostname into a reusable rule pattern:
// for hostnames with three or more labels the leftmost label becomes "*"
// ("www.example.com" -> "*.example.com"). Hostnames with two labels or
// fewer, and literal IP addresses, are returned unchanged.
func NormalizeToWildcard(hostname string) string {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return hostname
	}
	if net.ParseIP(strings.Trim(hostname, "[]")) != nil {
		return hostname
	}

	labels := strings.Split(hostname, ".")
	if len(labels) < 3 {
		return hostname
	}
	return "*." + strings.Join(labels[1:], ".")
}

// isLoopbackHost reports whether host names the local machine. Loopback
// targets are never worth tracking or proxying.
func isLoopbackHost(host string) bool {
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
