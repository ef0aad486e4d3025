package scanexec

import (
	"time"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

// Params defines the input required to initiate a scan run.
type Params struct {
	// Target is the raw target as given on the command line. It is
	// normalized before the scan starts.
	Target string

	// Headers are extra headers sent with every probe request.
	Headers map[string]string

	// Auth credentials applied to every probe request.
	BearerToken   string
	BasicUser     string
	BasicPassword string

	RequestTimeout  time.Duration
	ScanTimeout     time.Duration
	MaxPayloads     int
	Concurrency     int
	FollowRedirects bool

	// Preflight enables the reachability check before scanning.
	Preflight bool
}

// scanOptions maps Params onto the engine's scan options. The target is
// filled in after normalization.
func (p Params) scanOptions(target string) engine.ScanOptions {
	return engine.ScanOptions{
		TargetURL: target,
		Headers:   p.Headers,
		Auth: engine.AuthCredentials{
			BearerToken:   p.BearerToken,
			BasicUser:     p.BasicUser,
			BasicPassword: p.BasicPassword,
		},
		RequestTimeout:  p.RequestTimeout,
		ScanTimeout:     p.ScanTimeout,
		MaxPayloads:     p.MaxPayloads,
		Concurrency:     p.Concurrency,
		FollowRedirects: p.FollowRedirects,
	}
}

// Exit codes for the scan command.
const (
	// ExitClean means the scan completed without critical or high findings.
	ExitClean = 0

	// ExitFindings means at least one critical or high severity finding
	// was recorded.
	ExitFindings = 1

	// ExitError means the scan could not run: bad configuration or an
	// unreachable target.
	ExitError = 2
)

// Result is the outcome of one scan run.
type Result struct {
	ScanID string

	// Report is the frozen scan report.
	Report *engine.Report

	// ExitCode is the process exit code the report maps to.
	ExitCode int
}
