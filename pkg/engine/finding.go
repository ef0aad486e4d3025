// pkg/engine/finding.go
// Package engine provides the core scan orchestration: the finding model,
// the category module registry, the scan context handed to test modules,
// and the orchestrator that drives a full OWASP Top-10 scan.
package engine

import (
	"fmt"
	"slices"
)

// Category identifies an OWASP Top-10 (2021) weakness class.
type Category string

const (
	CategoryBrokenAccessControl Category = "A01"
	CategoryCryptoFailures      Category = "A02"
	CategoryInjection           Category = "A03"
	CategoryInsecureDesign      Category = "A04"
	CategoryMisconfiguration    Category = "A05"
	CategoryVulnComponents      Category = "A06"
	CategoryAuthFailures        Category = "A07"
	CategoryIntegrityFailures   Category = "A08"
	CategoryLoggingFailures     Category = "A09"
	CategorySSRF                Category = "A10"
)

// AllCategories returns the fixed category list in scan order (A01 -> A10).
// The orchestrator iterates this slice, so report ordering is deterministic
// when timing allows.
func AllCategories() []Category {
	return []Category{
		CategoryBrokenAccessControl,
		CategoryCryptoFailures,
		CategoryInjection,
		CategoryInsecureDesign,
		CategoryMisconfiguration,
		CategoryVulnComponents,
		CategoryAuthFailures,
		CategoryIntegrityFailures,
		CategoryLoggingFailures,
		CategorySSRF,
	}
}

// String returns the category identifier (e.g. "A03").
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is one of the ten fixed identifiers.
func (c Category) IsValid() bool {
	return slices.Contains(AllCategories(), c)
}

// Title returns the official 2021 name of the category.
func (c Category) Title() string {
	switch c {
	case CategoryBrokenAccessControl:
		return "Broken Access Control"
	case CategoryCryptoFailures:
		return "Cryptographic Failures"
	case CategoryInjection:
		return "Injection"
	case CategoryInsecureDesign:
		return "Insecure Design"
	case CategoryMisconfiguration:
		return "Security Misconfiguration"
	case CategoryVulnComponents:
		return "Vulnerable and Outdated Components"
	case CategoryAuthFailures:
		return "Identification and Authentication Failures"
	case CategoryIntegrityFailures:
		return "Software and Data Integrity Failures"
	case CategoryLoggingFailures:
		return "Security Logging and Monitoring Failures"
	case CategorySSRF:
		return "Server-Side Request Forgery"
	default:
		return "Unknown"
	}
}

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Score returns a numeric weight for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, unknown=0.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// Confidence expresses how certain the engine is that a finding is a true
// positive.
type Confidence string

const (
	// ConfidenceConfirmed means a heuristic matched an unambiguous signature,
	// e.g. a verbatim reflected payload.
	ConfidenceConfirmed Confidence = "confirmed"
	// ConfidenceFirm means the pattern is strongly suggestive but could have
	// false positives.
	ConfidenceFirm Confidence = "firm"
	// ConfidenceTentative marks advisory findings where manual verification
	// is recommended.
	ConfidenceTentative Confidence = "tentative"
)

// IsValid reports whether c is a recognized confidence level.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceConfirmed, ConfidenceFirm, ConfidenceTentative:
		return true
	}
	return false
}

func (c Confidence) String() string {
	return string(c)
}

// evidenceExcerptLimit bounds the response excerpt stored on a finding so
// reports stay small and full sensitive payloads never land in storage.
const evidenceExcerptLimit = 500

// Evidence records the probe that produced a finding: the request issued,
// the payload used, and a truncated excerpt of the response.
type Evidence struct {
	// Location is the URL (or URL+header) the probe was sent to. It is part
	// of the finding dedup key.
	Location string `json:"location"`
	// Method is the HTTP method of the probe request.
	Method string `json:"method,omitempty"`
	// Payload is the injected payload string, empty for passive checks.
	Payload string `json:"payload,omitempty"`
	// StatusCode of the probe response, 0 if no response was received.
	StatusCode int `json:"status_code,omitempty"`
	// ResponseExcerpt holds at most 500 characters of the response body.
	ResponseExcerpt string `json:"response_excerpt,omitempty"`
}

// Excerpt truncates a response body to the evidence excerpt limit.
func Excerpt(body string) string {
	if len(body) > evidenceExcerptLimit {
		return body[:evidenceExcerptLimit]
	}
	return body
}

// Finding is one detected or suspected weakness.
type Finding struct {
	Category    Category   `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
	Evidence    Evidence   `json:"evidence"`
	Remediation string     `json:"remediation,omitempty"`
	References  []string   `json:"references,omitempty"`
	CWE         string     `json:"cwe,omitempty"`
	CVSS        float64    `json:"cvss,omitempty"`
}

// DedupKey builds the natural dedup key: category, title and evidence
// location. Two findings with the same key describe the same weakness.
func (f Finding) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", f.Category, f.Title, f.Evidence.Location)
}

// Validate checks the invariants every finding must hold before it is
// accepted into a report.
func (f Finding) Validate() error {
	if !f.Category.IsValid() {
		return fmt.Errorf("finding %q has invalid category %q", f.Title, f.Category)
	}
	if f.Title == "" {
		return fmt.Errorf("finding in category %s has empty title", f.Category)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("finding %q has invalid severity %q", f.Title, f.Severity)
	}
	if !f.Confidence.IsValid() {
		return fmt.Errorf("finding %q has invalid confidence %q", f.Title, f.Confidence)
	}
	return nil
}
