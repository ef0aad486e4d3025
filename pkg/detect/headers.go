// pkg/detect/headers.go
package detect

import (
	"net/http"
	"strings"
)

// SecurityHeader describes one response header the misconfiguration module
// expects on every target, with the severity of its absence.
type SecurityHeader struct {
	Name        string
	Severity    string
	Description string
	// TLSOnly limits the check to https targets.
	TLSOnly bool
}

// RequiredSecurityHeaders is the checked header set, ordered by severity.
func RequiredSecurityHeaders() []SecurityHeader {
	return []SecurityHeader{
		{
			Name:        "Strict-Transport-Security",
			Severity:    "medium",
			Description: "enforces HTTPS on returning visitors",
			TLSOnly:     true,
		},
		{
			Name:        "Content-Security-Policy",
			Severity:    "high",
			Description: "restricts script and resource origins",
		},
		{
			Name:        "X-Frame-Options",
			Severity:    "medium",
			Description: "prevents clickjacking via framing",
		},
		{
			Name:        "X-Content-Type-Options",
			Severity:    "low",
			Description: "disables MIME type sniffing",
		},
		{
			Name:        "Referrer-Policy",
			Severity:    "low",
			Description: "limits referrer leakage to third parties",
		},
		{
			Name:        "Permissions-Policy",
			Severity:    "low",
			Description: "restricts powerful browser features",
		},
	}
}

// MissingSecurityHeaders returns the required headers absent from h.
// isTLS gates TLS-only checks such as HSTS.
func MissingSecurityHeaders(h http.Header, isTLS bool) []SecurityHeader {
	var missing []SecurityHeader
	for _, sh := range RequiredSecurityHeaders() {
		if sh.TLSOnly && !isTLS {
			continue
		}
		if h.Get(sh.Name) == "" {
			missing = append(missing, sh)
		}
	}
	return missing
}

// disclosureHeaders leak server implementation detail when present.
var disclosureHeaders = []string{
	"Server",
	"X-Powered-By",
	"X-AspNet-Version",
	"X-AspNetMvc-Version",
	"X-Runtime",
}

// DisclosureHeaders returns headers present in h that reveal server
// software or framework versions, as "Name: value" strings. A bare product
// name in Server without a version is tolerated.
func DisclosureHeaders(h http.Header) []string {
	var leaks []string
	for _, name := range disclosureHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		if name == "Server" && !strings.ContainsAny(v, "/0123456789") {
			continue
		}
		leaks = append(leaks, name+": "+v)
	}
	return leaks
}

// PermissiveCORS reports whether the CORS response headers reflect an
// arbitrary origin or allow the null origin. Reflection fires with or
// without credentials; the detail names credentials when they are allowed
// so callers can escalate severity. A bare wildcard without credentials is
// tolerated: it is an explicit public-resource declaration, and browsers
// refuse credentialed wildcard responses anyway.
func PermissiveCORS(h http.Header, sentOrigin string) (bool, string) {
	allowOrigin := h.Get("Access-Control-Allow-Origin")
	allowCreds := strings.EqualFold(h.Get("Access-Control-Allow-Credentials"), "true")

	switch {
	case allowOrigin == "*" && allowCreds:
		return true, "Access-Control-Allow-Origin: * with credentials"
	case sentOrigin != "" && allowOrigin == sentOrigin && allowCreds:
		return true, "reflects arbitrary Origin " + sentOrigin + " with credentials"
	case sentOrigin != "" && allowOrigin == sentOrigin && sentOrigin == "null":
		return true, "allows the null origin"
	case sentOrigin != "" && allowOrigin == sentOrigin:
		return true, "reflects arbitrary Origin " + sentOrigin
	}
	return false, ""
}
