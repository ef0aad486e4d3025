// pkg/detect/page.go
package detect

import (
	"regexp"
	"strings"
)

// loginFormPattern matches a password input field, the strongest signal a
// page is a login form.
var loginFormPattern = regexp.MustCompile(`(?i)<input[^>]+type\s*=\s*["']?password["']?`)

// loginKeywords back up the form check on pages that render login UIs via
// script.
var loginKeywords = []string{
	"sign in",
	"log in",
	"login",
	"username",
	"forgot password",
	"remember me",
}

// IsLoginPage reports whether body renders a login form. A password input
// is sufficient on its own; otherwise at least two keywords are required
// so a page merely linking to "Login" does not match.
func IsLoginPage(body string) bool {
	if loginFormPattern.MatchString(body) {
		return true
	}
	lower := strings.ToLower(body)
	hits := 0
	for _, kw := range loginKeywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// Library is a client-side JavaScript library reference extracted from a
// page, with the version string when one is recoverable.
type Library struct {
	Name    string
	Version string
	// Deprecated marks libraries that are unmaintained regardless of
	// version.
	Deprecated bool
}

// libraryPattern pairs a library name with the regexp extracting its
// version from script src attributes or inline banners.
type libraryPattern struct {
	name       string
	pattern    *regexp.Regexp
	deprecated bool
}

var libraryPatterns = []libraryPattern{
	{name: "jquery", pattern: regexp.MustCompile(`(?i)jquery[.-]?(\d+\.\d+(?:\.\d+)?)`)},
	{name: "angularjs", pattern: regexp.MustCompile(`(?i)angular(?:js)?[/.-](\d+\.\d+(?:\.\d+)?)`)},
	{name: "react", pattern: regexp.MustCompile(`(?i)react[/.-](\d+\.\d+(?:\.\d+)?)`)},
	{name: "vue", pattern: regexp.MustCompile(`(?i)vue[/.-](\d+\.\d+(?:\.\d+)?)`)},
	{name: "bootstrap", pattern: regexp.MustCompile(`(?i)bootstrap[/.-](\d+\.\d+(?:\.\d+)?)`)},
	{name: "moment", pattern: regexp.MustCompile(`(?i)moment(?:\.min)?[/.-](\d+\.\d+(?:\.\d+)?)`)},
	{name: "prototype.js", pattern: regexp.MustCompile(`(?i)prototype[/.-](\d+\.\d+(?:\.\d+)?)`), deprecated: true},
	{name: "mootools", pattern: regexp.MustCompile(`(?i)mootools[/.-](\d+\.\d+(?:\.\d+)?)`), deprecated: true},
}

// deprecatedMarkers match libraries flagged even without a version.
var deprecatedMarkers = map[string]string{
	"prototype.js": "prototype.js",
	"mootools":     "mootools",
	"yui":          "yui-min.js",
	"bower":        "bower_components/",
}

// ExtractLibraries scans HTML for referenced JavaScript libraries and their
// versions. Each library is reported once, keyed by name.
func ExtractLibraries(body string) []Library {
	seen := make(map[string]bool)
	var libs []Library

	for _, lp := range libraryPatterns {
		m := lp.pattern.FindStringSubmatch(body)
		if m == nil || seen[lp.name] {
			continue
		}
		seen[lp.name] = true
		libs = append(libs, Library{Name: lp.name, Version: m[1], Deprecated: lp.deprecated})
	}

	lower := strings.ToLower(body)
	for name, marker := range deprecatedMarkers {
		if seen[name] || !strings.Contains(lower, marker) {
			continue
		}
		seen[name] = true
		libs = append(libs, Library{Name: name, Deprecated: true})
	}
	return libs
}

// scriptSrcPattern captures <script> and stylesheet <link> tags with their
// src/href, so SRI coverage can be checked per tag.
var (
	scriptTagPattern = regexp.MustCompile(`(?is)<script\b[^>]*\bsrc\s*=\s*["']([^"']+)["'][^>]*>`)
	linkTagPattern   = regexp.MustCompile(`(?is)<link\b[^>]*\bhref\s*=\s*["']([^"']+)["'][^>]*>`)
	integrityAttr    = regexp.MustCompile(`(?i)\bintegrity\s*=`)
	stylesheetRel    = regexp.MustCompile(`(?i)\brel\s*=\s*["']?stylesheet`)
)

// MissingSRIResources returns the URLs of externally hosted scripts and
// stylesheets referenced without a Subresource Integrity attribute.
// targetHost scopes "external": same-host and relative references are
// exempt.
func MissingSRIResources(body, targetHost string) []string {
	var missing []string
	for _, m := range scriptTagPattern.FindAllStringSubmatch(body, -1) {
		if isExternalRef(m[1], targetHost) && !integrityAttr.MatchString(m[0]) {
			missing = append(missing, m[1])
		}
	}
	for _, m := range linkTagPattern.FindAllStringSubmatch(body, -1) {
		if !stylesheetRel.MatchString(m[0]) {
			continue
		}
		if isExternalRef(m[1], targetHost) && !integrityAttr.MatchString(m[0]) {
			missing = append(missing, m[1])
		}
	}
	return missing
}

func isExternalRef(ref, targetHost string) bool {
	lower := strings.ToLower(ref)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "//") {
		return false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(lower, "https://"), "http://"), "//")
	host := rest
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	return !strings.EqualFold(host, targetHost)
}

// debugEndpointMarkers distinguish a live debug/trace endpoint from an
// ordinary page served at a debug-looking path.
var debugEndpointMarkers = []string{
	"goroutine profile",
	"/debug/pprof",
	"cmdline",
	"heap profile",
	"Types of profiles available",
	"activeProfiles",
	"propertySources",
	"Error Log for",
	"DEBUG = True",
	"memstats",
}

// DetectDebugEndpoint reports whether body looks like an exposed debug,
// profiling or log viewer endpoint.
func DetectDebugEndpoint(body string) (bool, string) {
	for _, m := range debugEndpointMarkers {
		if strings.Contains(body, m) {
			return true, m
		}
	}
	return false, ""
}
