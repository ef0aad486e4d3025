// pkg/engine/scancontext.go
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tenprobe/tenprobe/pkg/httpx"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// ScanContext is the per-scan environment handed to every test module. It
// carries the target, the shared HTTP client, the report sink, and a
// module-scoped logger, so modules never hold global state.
type ScanContext struct {
	opts   ScanOptions
	client *httpx.Client
	report *Report
	logger zerolog.Logger
}

// NewScanContext assembles a scan context. The orchestrator builds one per
// scan and rebinds the logger per module.
func NewScanContext(opts ScanOptions, client *httpx.Client, report *Report, logger zerolog.Logger) *ScanContext {
	return &ScanContext{opts: opts, client: client, report: report, logger: logger}
}

// Options returns the scan's immutable configuration.
func (sc *ScanContext) Options() ScanOptions { return sc.opts }

// Target returns the base target URL.
func (sc *ScanContext) Target() string { return sc.opts.TargetURL }

// Logger returns the module-scoped logger.
func (sc *ScanContext) Logger() zerolog.Logger { return sc.logger }

// MakeRequest issues one probe request through the shared client.
func (sc *ScanContext) MakeRequest(ctx context.Context, rawURL string, opts httpx.RequestOptions) (*httpx.Response, error) {
	return sc.client.Do(ctx, rawURL, opts)
}

// Get issues a GET probe against rawURL with no extra options.
func (sc *ScanContext) Get(ctx context.Context, rawURL string) (*httpx.Response, error) {
	return sc.client.Do(ctx, rawURL, httpx.RequestOptions{})
}

// InjectPayload builds a probe URL with the payload substituted into the
// target's query string.
func (sc *ScanContext) InjectPayload(p string) (string, error) {
	return payload.Inject(sc.opts.TargetURL, p)
}

// ProbeURL builds a probe URL for a fixed path on the target host.
func (sc *ScanContext) ProbeURL(path string) (string, error) {
	return payload.InjectPath(sc.opts.TargetURL, path)
}

// MaxPayloads returns the per-check payload cap from the scan options.
func (sc *ScanContext) MaxPayloads() int { return sc.opts.MaxPayloads }

// AddFinding records a finding on the report. Duplicates (same category,
// title and location) are dropped; the return value reports whether the
// finding was kept.
func (sc *ScanContext) AddFinding(f Finding) bool {
	if err := f.Validate(); err != nil {
		sc.logger.Warn().Err(err).Str("title", f.Title).Msg("Rejected malformed finding")
		return false
	}
	if added := sc.report.Add(f); added {
		sc.logger.Info().
			Str("category", string(f.Category)).
			Str("severity", string(f.Severity)).
			Str("title", f.Title).
			Msg("Finding recorded")
		return true
	}
	return false
}

// AddWarning records a non-fatal module failure on the report.
func (sc *ScanContext) AddWarning(category Category, module, message string) {
	sc.report.AddWarning(ModuleWarning{Category: category, Module: module, Message: message})
	sc.logger.Warn().Str("category", string(category)).Str("module", module).Msg(message)
}

// withLogger returns a copy of the context bound to a different logger.
// The orchestrator uses it to scope logs per module.
func (sc *ScanContext) withLogger(logger zerolog.Logger) *ScanContext {
	clone := *sc
	clone.logger = logger
	return &clone
}
