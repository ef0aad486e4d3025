// pkg/detect/content.go
package detect

import (
	"regexp"
	"strings"
)

// DetectPathTraversal reports whether body looks like the contents of a
// sensitive file leaked through a traversal payload. A bare "root:x:"
// without the uid 0 suffix must be accompanied by a shell path so pages
// merely mentioning the string do not match.
func DetectPathTraversal(body string) (bool, string) {
	if strings.Contains(body, "root:x:0:0:") {
		return true, "root:x:0:0:"
	}
	if strings.Contains(body, "root:x:") && strings.Contains(body, "/bin/") {
		return true, "root:x:"
	}
	if strings.Contains(body, "[extensions]") && strings.Contains(body, "[fonts]") {
		return true, "[extensions]"
	}
	if strings.Contains(body, "; for 16-bit app support") {
		return true, "; for 16-bit app support"
	}
	return false, ""
}

// DetectCommandInjection reports whether body contains one of the output
// indicators paired with the executed payload, e.g. "uid=" for id.
func DetectCommandInjection(body string, indicators []string) (bool, string) {
	for _, ind := range indicators {
		if strings.Contains(body, ind) {
			return true, ind
		}
	}
	return false, ""
}

// directoryListingMarkers are emitted by autoindex pages of the common
// servers (Apache, nginx, IIS, Python http.server).
var directoryListingMarkers = []string{
	"Index of /",
	"<title>Index of",
	"Directory Listing For",
	"Directory listing for",
	"[To Parent Directory]",
	"Parent Directory</a>",
}

// DetectDirectoryListing reports whether body is a server-generated
// directory index page.
func DetectDirectoryListing(body string) (bool, string) {
	for _, m := range directoryListingMarkers {
		if strings.Contains(body, m) {
			return true, m
		}
	}
	return false, ""
}

// verboseErrorPatterns match stack traces and framework debug pages that
// leak implementation detail to the client.
var verboseErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*at [\w$.]+\([\w$.]+\.java:\d+\)`),
	regexp.MustCompile(`(?m)^\s*File "[^"]+", line \d+`),
	regexp.MustCompile(`(?i)traceback \(most recent call last\)`),
	regexp.MustCompile(`(?i)fatal error:.*on line \d+`),
	regexp.MustCompile(`(?i)warning:.*\.php on line \d+`),
	regexp.MustCompile(`(?i)stack trace:`),
	regexp.MustCompile(`(?i)whitelabel error page`),
	regexp.MustCompile(`(?i)an unhandled exception occurred`),
	regexp.MustCompile(`(?i)django.*DEBUG = True`),
	regexp.MustCompile(`(?i)<title>\s*(runtime )?error\s*</title>`),
	regexp.MustCompile(`goroutine \d+ \[running\]`),
}

// DetectVerboseError reports whether body exposes a stack trace or debug
// error page and returns the matched fragment.
func DetectVerboseError(body string) (bool, string) {
	if body == "" {
		return false, ""
	}
	for _, p := range verboseErrorPatterns {
		if m := p.FindString(body); m != "" {
			return true, m
		}
	}
	return false, ""
}

// deserializationErrorPatterns match errors thrown while parsing attacker
// supplied serialized objects. Seeing one means user input reaches a
// deserializer.
var deserializationErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)unserialize\(\).*error`),
	regexp.MustCompile(`(?i)java\.io\.invalidclassexception`),
	regexp.MustCompile(`(?i)java\.io\.streamcorruptedexception`),
	regexp.MustCompile(`(?i)java\.lang\.classnotfoundexception`),
	regexp.MustCompile(`(?i)objectinputstream`),
	regexp.MustCompile(`(?i)pickle\.unpicklingerror`),
	regexp.MustCompile(`(?i)could not deserialize`),
	regexp.MustCompile(`(?i)deserialization (of|failed|error)`),
	regexp.MustCompile(`(?i)newtonsoft\.json\.jsonserializationexception`),
	regexp.MustCompile(`(?i)__wakeup|__destruct.*error`),
	regexp.MustCompile(`(?i)marshal data too short`),
}

// DetectDeserializationError reports whether body contains a
// deserialization failure signature.
func DetectDeserializationError(body string) (bool, string) {
	if body == "" {
		return false, ""
	}
	for _, p := range deserializationErrorPatterns {
		if m := p.FindString(body); m != "" {
			return true, m
		}
	}
	return false, ""
}

// internalResourceMarkers are strings only an internal or metadata service
// would return. Their appearance after an SSRF payload means the server
// fetched the attacker-chosen URL.
var internalResourceMarkers = []string{
	"ami-id",
	"instance-id",
	"iam/security-credentials",
	"computeMetadata",
	"metadata.google.internal",
	"root:x:0:0:",
	"redis_version",
	"+PONG",
	"SSH-2.0",
}

// DetectInternalResource reports whether body contains content from an
// internal service or cloud metadata endpoint.
func DetectInternalResource(body string) (bool, string) {
	for _, m := range internalResourceMarkers {
		if strings.Contains(body, m) {
			return true, m
		}
	}
	return false, ""
}

// xssReflectionVariants returns the forms a payload may take when echoed
// back executably: verbatim, double-quote swapped, and with quotes entity
// encoded while the tags stay intact. A payload whose angle brackets were
// entity-encoded is escaped output and intentionally not listed.
func xssReflectionVariants(payload string) []string {
	return []string{
		payload,
		strings.ReplaceAll(payload, "'", `"`),
		strings.ReplaceAll(payload, "'", "&#39;"),
		strings.ReplaceAll(payload, `"`, "&quot;"),
	}
}

// DetectReflectedXSS reports whether payload appears in body in an
// executable form.
func DetectReflectedXSS(body, payload string) bool {
	for _, v := range xssReflectionVariants(payload) {
		if strings.Contains(body, v) {
			return true
		}
	}
	return false
}
