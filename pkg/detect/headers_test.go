package detect

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingSecurityHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Security-Policy", "default-src 'self'")
	h.Set("X-Content-Type-Options", "nosniff")

	missing := MissingSecurityHeaders(h, true)

	names := make([]string, 0, len(missing))
	for _, sh := range missing {
		names = append(names, sh.Name)
	}
	assert.Contains(t, names, "Strict-Transport-Security")
	assert.Contains(t, names, "X-Frame-Options")
	assert.NotContains(t, names, "Content-Security-Policy")
	assert.NotContains(t, names, "X-Content-Type-Options")
}

func TestMissingSecurityHeaders_HSTSOnlyOverTLS(t *testing.T) {
	missing := MissingSecurityHeaders(http.Header{}, false)
	for _, sh := range missing {
		assert.NotEqual(t, "Strict-Transport-Security", sh.Name,
			"HSTS is meaningless on plain http and must not be reported")
	}
}

func TestMissingSecurityHeaders_AllPresent(t *testing.T) {
	h := http.Header{}
	for _, sh := range RequiredSecurityHeaders() {
		h.Set(sh.Name, "value")
	}
	assert.Empty(t, MissingSecurityHeaders(h, true))
}

func TestRequiredSecurityHeaders_CSPIsHigh(t *testing.T) {
	for _, sh := range RequiredSecurityHeaders() {
		if sh.Name == "Content-Security-Policy" {
			assert.Equal(t, "high", sh.Severity)
			return
		}
	}
	t.Fatal("CSP missing from the required header set")
}

func TestDisclosureHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Server", "Apache/2.2.34 (Unix)")
	h.Set("X-Powered-By", "PHP/5.6.40")

	leaks := DisclosureHeaders(h)
	require.Len(t, leaks, 2)
	assert.Contains(t, leaks, "Server: Apache/2.2.34 (Unix)")
	assert.Contains(t, leaks, "X-Powered-By: PHP/5.6.40")
}

func TestDisclosureHeaders_BareProductTolerated(t *testing.T) {
	h := http.Header{}
	h.Set("Server", "nginx")
	assert.Empty(t, DisclosureHeaders(h))

	h.Set("Server", "nginx/1.14.0")
	assert.Len(t, DisclosureHeaders(h), 1)
}

func TestPermissiveCORS(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed string
		creds   string
		want    bool
	}{
		{name: "wildcard with credentials", allowed: "*", creds: "true", want: true},
		{name: "reflected origin with credentials", origin: "https://evil.example.com", allowed: "https://evil.example.com", creds: "true", want: true},
		{name: "reflected origin without credentials", origin: "https://evil.example.com", allowed: "https://evil.example.com", want: true},
		{name: "null origin allowed", origin: "null", allowed: "null", want: true},
		{name: "wildcard without credentials", allowed: "*", want: false},
		{name: "fixed trusted origin", origin: "https://evil.example.com", allowed: "https://app.example.com", creds: "true", want: false},
		{name: "no cors headers", origin: "https://evil.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.allowed != "" {
				h.Set("Access-Control-Allow-Origin", tt.allowed)
			}
			if tt.creds != "" {
				h.Set("Access-Control-Allow-Credentials", tt.creds)
			}
			got, _ := PermissiveCORS(h, tt.origin)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissiveCORS_DetailNamesCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", "https://evil.example.com")

	_, detail := PermissiveCORS(h, "https://evil.example.com")
	assert.NotContains(t, detail, "credentials")

	h.Set("Access-Control-Allow-Credentials", "true")
	_, detail = PermissiveCORS(h, "https://evil.example.com")
	assert.Contains(t, detail, "credentials")
}
