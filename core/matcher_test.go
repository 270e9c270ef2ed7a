package core

import "testing"

func TestMatchesPatternWildcard(t *testing.T) {
	cases := []struct {
		pattern  string
		hostname string
		want     bool
	}{
		{"*.example.com", "a.example.com", true},
		{"*.example.com", "example.com", true},
		{"*.example.com", "a.b.example.com", true},
		{"*.example.com", "notexample.com", false},
		{"*.example.com", "example.com.evil.net", false},
		{"*.example.com", "A.EXAMPLE.COM", true},
	}
	for _, c := range cases {
		if got := MatchesPattern(c.pattern, c.hostname); got != c.want {
			t.Errorf("MatchesPattern(%q, %q) = %v, want %v", c.pattern, c.hostname, got, c.want)
		}
	}
}

func TestMatchesPatternGlob(t *testing.T) {
	cases := []struct {
		pattern  string
		hostname string
		want     bool
	}{
		{"example.com", "example.com", true},
		{"example.com", "sub.example.com", false},
		{"example.com", "example.comx", false},
		{"ex*.com", "example.com", true},
		{"ex*.com", "exam.org", false},
		{"a?.example.com", "a1.example.com", true},
		{"a?.example.com", "a12.example.com", false},
		{"EXAMPLE.com", "example.COM", true},
		{"", "example.com", false},
	}
	for _, c := range cases {
		if got := MatchesPattern(c.pattern, c.hostname); got != c.want {
			t.Errorf("MatchesPattern(%q, %q) = %v, want %v", c.pattern, c.hostname, got, c.want)
		}
	}
}

func TestNormalizeToWildcard(t *testing.T) {
	cases := []struct {
		hostname string
		want     string
	}{
		{"www.example.com", "*.example.com"},
		{"a.b.example.com", "*.b.example.com"},
		{"example.com", "example.com"},
		{"localhost", "localhost"},
		{"192.168.1.1", "192.168.1.1"},
		{"::1", "::1"},
		{"[2001:db8::1]", "[2001:db8::1]"},
		{"WWW.Example.COM", "*.example.com"},
	}
	for _, c := range cases {
		if got := NormalizeToWildcard(c.hostname); got != c.want {
			t.Errorf("NormalizeToWildcard(%q) = %q, want %q", c.hostname, got, c.want)
		}
	}
}

func TestIsLoopbackHost(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"app.localhost", true},
		{"127.0.0.1", true},
		{"[::1]", true},
		{"example.com", false},
		{"10.0.0.1", false},
	}
	for _, c := range cases {
		if got := isLoopbackHost(c.host); got != c.want {
			t.Errorf("isLoopbackHost(%q) = %v, want %v", c.host, got, c.want)
		}
	}
}
