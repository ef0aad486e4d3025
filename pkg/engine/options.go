// pkg/engine/options.go
package engine

import (
	"fmt"
	"net/url"
	"time"
)

// ConfigurationError is fatal: the scan never starts when options fail
// validation. It is the only error RunScan returns before a report exists.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid scan configuration: %s: %s", e.Field, e.Reason)
}

// AuthCredentials carries optional auth material sent with every probe.
// Bearer takes precedence when both are set.
type AuthCredentials struct {
	BearerToken   string
	BasicUser     string
	BasicPassword string
}

// ScanOptions is the immutable configuration for one scan.
type ScanOptions struct {
	// TargetURL is the absolute HTTP(S) URL to probe. Required.
	TargetURL string
	// Headers are extra headers added to every probe request.
	Headers map[string]string
	// Auth is optional bearer/basic auth material.
	Auth AuthCredentials
	// RequestTimeout bounds a single probe request.
	RequestTimeout time.Duration
	// ScanTimeout bounds the whole scan; on expiry the partial report is
	// returned, never an error.
	ScanTimeout time.Duration
	// MaxPayloads caps how many payloads a module tries per check, bounding
	// scan duration. Zero means the full catalog.
	MaxPayloads int
	// FollowRedirects controls whether probe requests follow 3xx responses.
	FollowRedirects bool
	// Concurrency is the category worker pool size. Zero selects the
	// default (one worker per category).
	Concurrency int
}

// Defaults applied by Validate for unset duration fields.
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultScanTimeout    = 5 * time.Minute
	DefaultMaxPayloads    = 8
)

// Validate checks the target URL and normalizes unset fields. An unparsable
// or non-absolute target is a ConfigurationError, not a per-module error.
func (o *ScanOptions) Validate() error {
	if o.TargetURL == "" {
		return &ConfigurationError{Field: "target_url", Reason: "required"}
	}
	u, err := url.Parse(o.TargetURL)
	if err != nil {
		return &ConfigurationError{Field: "target_url", Reason: err.Error()}
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return &ConfigurationError{Field: "target_url", Reason: fmt.Sprintf("must be an absolute http(s) URL, got %q", o.TargetURL)}
	}
	if u.Host == "" {
		return &ConfigurationError{Field: "target_url", Reason: "missing host"}
	}

	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ScanTimeout <= 0 {
		o.ScanTimeout = DefaultScanTimeout
	}
	if o.MaxPayloads < 0 {
		return &ConfigurationError{Field: "max_payloads", Reason: "must not be negative"}
	}
	if o.MaxPayloads == 0 {
		o.MaxPayloads = DefaultMaxPayloads
	}
	if o.Concurrency < 0 {
		return &ConfigurationError{Field: "concurrency", Reason: "must not be negative"}
	}
	return nil
}

// IsTLS reports whether the target uses https. Validate must have passed.
func (o ScanOptions) IsTLS() bool {
	u, err := url.Parse(o.TargetURL)
	return err == nil && u.Scheme == "https"
}
