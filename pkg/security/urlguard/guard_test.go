package urlguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejects(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   \t"},
		{"file scheme", "file:///etc/passwd"},
		{"javascript scheme", "javascript:alert(1)"},
		{"ftp scheme", "ftp://example.com/file"},
		{"no scheme", "example.com/form"},
		{"missing host", "http:///path"},
		{"localhost", "http://localhost/x"},
		{"localhost uppercase with port", "http://LOCALHOST:8080/"},
		{"localhost trailing dot", "http://localhost./"},
		{"localhost subdomain", "http://api.localhost/"},
		{"localhost.localdomain", "http://localhost.localdomain/"},
		{"ip6-localhost", "http://ip6-localhost/"},
		{"ip6-loopback", "http://ip6-loopback/"},
		{"loopback v4", "http://127.0.0.1/"},
		{"loopback v4 range", "http://127.8.9.10/"},
		{"unspecified", "http://0.0.0.0/"},
		{"bracketed v6 loopback", "http://[::1]/"},
		{"v4-mapped loopback", "http://[::ffff:127.0.0.1]/"},
		{"metadata ip", "http://169.254.169.254/latest/meta-data/"},
		{"metadata google", "http://metadata.google.internal/computeMetadata/v1/"},
		{"metadata prefix", "http://metadata.internal.example/"},
		{"private 10", "http://10.0.0.5/"},
		{"private 172", "https://172.16.3.4/"},
		{"private 192", "http://192.168.1.1/admin"},
		{"link-local", "http://169.254.10.10/"},
		{"link-local v6", "http://[fe80::1]/"},
		{"multicast", "http://224.0.0.1/"},
		{"multicast v6", "http://[ff02::1]/"},
		{"cgnat", "http://100.64.1.1/"},
		{"this network", "http://0.1.2.3/"},
		{"documentation", "http://192.0.2.10/"},
		{"benchmark", "http://198.18.0.1/"},
		{"class e", "http://240.1.1.1/"},
		{"ipv6 documentation", "http://[2001:db8::1]/"},
		{"unique local v6", "http://[fd00::1]/"},
		{"decimal encoded ip", "http://2130706433/"},
		{"hex encoded ip", "http://0x7f.0x0.0x0.0x1/"},
		{"userinfo trick", "http://example.com@127.0.0.1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(tt.url)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.url, verr.URL)
			assert.NotEmpty(t, verr.Reason)
			assert.False(t, g.IsAllowed(tt.url))
		})
	}
}

func TestValidateAcceptsPublic(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	for _, u := range []string{
		"https://example.com/form",
		"http://example.com",
		"HTTPS://Example.COM/path?q=1",
		"https://8.8.8.8/",
		"https://[2606:4700:4700::1111]/",
		"https://localhost-reviews.com/",
	} {
		assert.NoError(t, g.Validate(u), u)
	}
}

func TestAllowList(t *testing.T) {
	g, err := New("https://Example.com/some/path")
	require.NoError(t, err)
	assert.True(t, g.HasAllowList())

	assert.True(t, g.IsAllowed("https://example.com"))
	assert.True(t, g.IsAllowed("https://sub.example.com"))
	assert.True(t, g.IsAllowed("https://a.b.EXAMPLE.com/x"))
	assert.False(t, g.IsAllowed("https://evil.com"))
	assert.False(t, g.IsAllowed("https://notexample.com"))
	assert.False(t, g.IsAllowed("https://example.com.evil.com"))
	assert.False(t, g.IsAllowed("https://8.8.8.8/"))

	// the allow-list never overrides the address checks
	assert.False(t, g.IsAllowed("http://localhost/"))
}

func TestAllowListIPLiteralsMatchExactly(t *testing.T) {
	g, err := New("3.4", "example.com", "93.184.216.34")
	require.NoError(t, err)

	assert.False(t, g.IsAllowed("http://1.2.3.4/"), "no subdomain rule for addresses")
	assert.False(t, g.IsAllowed("http://8.8.8.8/"))
	assert.True(t, g.IsAllowed("http://93.184.216.34/"))
	assert.True(t, g.IsAllowed("http://[::ffff:93.184.216.34]/"))
}

func TestAllowListGlob(t *testing.T) {
	g, err := New("*.pharmacy.test", "portal.*.health.test")
	require.NoError(t, err)

	assert.True(t, g.IsAllowed("https://refill.pharmacy.test/"))
	assert.False(t, g.IsAllowed("https://a.b.pharmacy.test/"))
	assert.False(t, g.IsAllowed("https://pharmacy.test/"))
	assert.True(t, g.IsAllowed("https://portal.eu.health.test/"))
	assert.False(t, g.IsAllowed("https://portal.health.test/"))
}

func TestPackageValidate(t *testing.T) {
	assert.False(t, Validate("http://localhost/x"))
	assert.False(t, Validate("http://127.0.0.1/"))
	assert.False(t, Validate("file:///etc/passwd"))
	assert.False(t, Validate("http://169.254.169.254/latest/meta-data/"))
	assert.False(t, Validate("http://10.0.0.5/"))
	assert.True(t, Validate("https://example.com/form"))
	assert.True(t, Validate("https://sub.example.com", "example.com"))
	assert.False(t, Validate("https://evil.com", "example.com"))
}

func TestNormalizeEntry(t *testing.T) {
	assert.Equal(t, "example.com", normalizeEntry(" HTTPS://Example.com:443/path "))
	assert.Equal(t, "example.com", normalizeEntry(".example.com."))
	assert.Equal(t, "", normalizeEntry("   "))
}
