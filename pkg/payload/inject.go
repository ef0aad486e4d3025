// pkg/payload/inject.go
// Package payload builds probe URLs by injecting attack payloads into a
// target, and carries the fixed payload catalogs the category test modules
// iterate.
package payload

import (
	"fmt"
	"net/url"
	"strings"
)

// defaultParam is the query parameter appended when the target URL carries
// no parameters of its own.
const defaultParam = "q"

// Inject substitutes payload into the target URL and returns a
// syntactically valid absolute probe URL.
//
// Strategy: when the URL already has query parameters, the value of the
// first parameter (in raw query order) is replaced; otherwise a generic
// parameter is appended. Re-encoding through url.Values guarantees the
// result parses even when the payload contains quotes, angle brackets,
// semicolons, ampersands or percent signs.
func Inject(targetURL, payload string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("parse target %q: %w", targetURL, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("target %q is not absolute", targetURL)
	}

	q := u.Query()
	param := firstParam(u.RawQuery)
	if param == "" {
		param = defaultParam
	}
	q.Set(param, payload)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// InjectPath replaces the target's path with the given path, keeping
// scheme and host. Used for forced browsing and fixed-path probes.
func InjectPath(targetURL, path string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("parse target %q: %w", targetURL, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("target %q is not absolute", targetURL)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// firstParam returns the name of the first parameter in raw query order,
// or "" when the query is empty. url.Values loses ordering, so the raw
// query is inspected directly.
func firstParam(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pair := rawQuery
	if idx := strings.IndexByte(pair, '&'); idx >= 0 {
		pair = pair[:idx]
	}
	if idx := strings.IndexByte(pair, '='); idx >= 0 {
		pair = pair[:idx]
	}
	if pair == "" {
		return ""
	}
	name, err := url.QueryUnescape(pair)
	if err != nil {
		return pair
	}
	return name
}

// Limit caps a payload list at max entries. Zero or negative max returns
// the list unchanged. Modules apply the scan's MaxPayloads option through
// this helper so every catalog is bounded the same way.
func Limit[T any](list []T, max int) []T {
	if max <= 0 || len(list) <= max {
		return list
	}
	return list[:max]
}
