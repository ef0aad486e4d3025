// pkg/detect/version.go
package detect

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// minimumLibraryVersions maps library names to the oldest release without
// widely known vulnerabilities. Anything older is flagged by the vulnerable
// components module.
var minimumLibraryVersions = map[string]string{
	"jquery":    "3.5.0",
	"angularjs": "1.8.0",
	"react":     "16.14.0",
	"vue":       "2.6.14",
	"bootstrap": "4.6.2",
	"moment":    "2.29.2",
}

// IsVersionOutdated reports whether the named library at the given version
// is older than the known-safe floor. Unknown libraries and unparsable
// versions return false; absence of data is never evidence.
func IsVersionOutdated(name, version string) bool {
	floor, ok := minimumLibraryVersions[strings.ToLower(name)]
	if !ok || version == "" {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	min, err := semver.NewVersion(floor)
	if err != nil {
		return false
	}
	return v.LessThan(min)
}

// MinimumVersion returns the known-safe floor for a library, or "" when the
// library is not tracked.
func MinimumVersion(name string) string {
	return minimumLibraryVersions[strings.ToLower(name)]
}

// serverBannerFloors maps lowercased Server header product tokens to the
// oldest release line still receiving fixes.
var serverBannerFloors = map[string]string{
	"apache": "2.4.50",
	"nginx":  "1.20.0",
	"php":    "8.0.0",
}

// ParseServerBanner splits a Server or X-Powered-By header value into
// product and version, e.g. "Apache/2.2.34 (Unix)" into ("apache",
// "2.2.34"). Version is "" when the banner hides it.
func ParseServerBanner(banner string) (string, string) {
	banner = strings.TrimSpace(banner)
	if banner == "" {
		return "", ""
	}
	token := banner
	if idx := strings.IndexAny(token, " ("); idx >= 0 {
		token = token[:idx]
	}
	product, version, found := strings.Cut(token, "/")
	product = strings.ToLower(product)
	if !found {
		return product, ""
	}
	return product, version
}

// IsServerOutdated reports whether a Server banner advertises a product
// release older than its supported floor.
func IsServerOutdated(banner string) (bool, string) {
	product, version := ParseServerBanner(banner)
	floor, ok := serverBannerFloors[product]
	if !ok || version == "" {
		return false, ""
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, ""
	}
	min, err := semver.NewVersion(floor)
	if err != nil {
		return false, ""
	}
	if v.LessThan(min) {
		return true, product + "/" + version
	}
	return false, ""
}
