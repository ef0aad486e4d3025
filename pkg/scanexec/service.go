// Package scanexec runs the scan pipeline end to end: target
// normalization, the optional reachability preflight, orchestrator
// execution, and persistence of the finished report.
package scanexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/netutil"
	"github.com/tenprobe/tenprobe/pkg/storage"
)

// UnreachableError reports that the preflight check could not reach the
// target host. It maps to ExitError.
type UnreachableError struct {
	Target string
	Err    error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("preflight failed for %s: %v", e.Target, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

type orchestrator interface {
	Run(ctx context.Context) (*engine.Report, error)
	ScanID() string
}

type preflighter interface {
	Check(ctx context.Context, target string) error
}

// Service wires the orchestrator to storage and progress reporting.
type Service struct {
	orchestratorFactory func(engine.ScanOptions, ...engine.OrchestratorOption) (orchestrator, error)
	preflightFactory    func(timeout time.Duration) preflighter
	progressSink        engine.ProgressFunc
	storage             storage.Backend
}

// NewService builds a Service with default dependencies.
func NewService() *Service {
	return &Service{
		orchestratorFactory: func(opts engine.ScanOptions, optFns ...engine.OrchestratorOption) (orchestrator, error) {
			return engine.NewOrchestrator(opts, optFns...)
		},
		preflightFactory: func(timeout time.Duration) preflighter {
			return netutil.NewPreflight(timeout)
		},
	}
}

// WithProgressSink attaches a sink to receive module lifecycle events.
func (s *Service) WithProgressSink(sink engine.ProgressFunc) *Service {
	s.progressSink = sink
	return s
}

// WithStorage attaches a storage backend for persisting scan results.
func (s *Service) WithStorage(backend storage.Backend) *Service {
	s.storage = backend
	return s
}

// WithOrchestratorFactory replaces orchestrator construction, used by tests.
func (s *Service) WithOrchestratorFactory(factory func(engine.ScanOptions, ...engine.OrchestratorOption) (orchestrator, error)) *Service {
	s.orchestratorFactory = factory
	return s
}

// WithPreflightFactory replaces preflight construction, used by tests.
func (s *Service) WithPreflightFactory(factory func(timeout time.Duration) preflighter) *Service {
	s.preflightFactory = factory
	return s
}

// Run executes one scan. Configuration and reachability errors are
// returned before any probe is sent; once the orchestrator starts, Run
// always produces a Result with a frozen report.
func (s *Service) Run(ctx context.Context, params Params) (*Result, error) {
	target, err := netutil.NormalizeTarget(params.Target)
	if err != nil {
		return nil, &engine.ConfigurationError{Field: "target", Reason: err.Error()}
	}

	if params.Preflight {
		pf := s.preflightFactory(params.RequestTimeout)
		if err := pf.Check(ctx, target); err != nil {
			return nil, &UnreachableError{Target: target, Err: err}
		}
	}

	scanID := uuid.New().String()
	startTime := time.Now()

	optFns := []engine.OrchestratorOption{engine.WithScanID(scanID)}
	if s.progressSink != nil {
		optFns = append(optFns, engine.WithProgressSink(s.progressSink))
	}

	orc, err := s.orchestratorFactory(params.scanOptions(target), optFns...)
	if err != nil {
		return nil, err
	}

	s.createScanRecord(ctx, scanID, target, startTime)

	report, runErr := orc.Run(ctx)
	if runErr != nil {
		s.failScanRecord(ctx, scanID, runErr, startTime)
		return nil, fmt.Errorf("scan run: %w", runErr)
	}

	s.persistReport(ctx, scanID, report, startTime)

	return &Result{
		ScanID:   scanID,
		Report:   report,
		ExitCode: exitCodeFor(report),
	}, nil
}

// exitCodeFor maps a frozen report to the scan command's exit code.
// Critical and high findings fail the run so CI pipelines can gate on it.
func exitCodeFor(report *engine.Report) int {
	switch report.HighestSeverity() {
	case engine.SeverityCritical, engine.SeverityHigh:
		return ExitFindings
	default:
		return ExitClean
	}
}

// createScanRecord registers the scan in storage before it runs. Storage
// failures degrade to a warning; the scan itself continues.
func (s *Service) createScanRecord(ctx context.Context, scanID, target string, startTime time.Time) {
	if s.storage == nil {
		return
	}

	metadata := &storage.ScanMetadata{
		ID:        scanID,
		Target:    target,
		Status:    string(storage.StatusRunning),
		StartedAt: startTime,
	}

	if err := s.storage.Scans().Create(ctx, metadata); err != nil {
		log.Warn().
			Str("component", "scanexec").
			Str("scan_id", scanID).
			Err(err).
			Msg("Failed to create scan record, continuing without persistence")
		return
	}

	log.Debug().
		Str("component", "scanexec").
		Str("scan_id", scanID).
		Msg("Created scan record in storage")
}

// failScanRecord marks the scan failed when the orchestrator could not run.
func (s *Service) failScanRecord(ctx context.Context, scanID string, runErr error, startTime time.Time) {
	if s.storage == nil {
		return
	}

	status := string(storage.StatusFailed)
	errMsg := runErr.Error()
	completedAt := time.Now()
	duration := int(completedAt.Sub(startTime).Seconds())

	updates := storage.ScanUpdates{
		Status:       &status,
		ErrorMessage: &errMsg,
		CompletedAt:  &completedAt,
		Duration:     &duration,
	}

	if err := s.storage.Scans().Update(ctx, scanID, updates); err != nil {
		log.Warn().
			Str("component", "scanexec").
			Str("scan_id", scanID).
			Err(err).
			Msg("Failed to update scan record")
	}
}

// persistReport stores the frozen report and finding stream, then updates
// the scan record with final counts.
func (s *Service) persistReport(ctx context.Context, scanID string, report *engine.Report, startTime time.Time) {
	if s.storage == nil {
		return
	}

	scans := s.storage.Scans()

	if data, err := json.MarshalIndent(report, "", "  "); err == nil {
		if err := scans.WriteData(ctx, scanID, storage.DataTypeReport, bytes.NewReader(data)); err != nil {
			log.Warn().
				Str("component", "scanexec").
				Str("scan_id", scanID).
				Err(err).
				Msg("Failed to persist scan report")
		}
	}

	var findingLines bytes.Buffer
	enc := json.NewEncoder(&findingLines)
	for _, f := range report.Findings {
		// Encode adds the trailing newline, giving one finding per line
		if err := enc.Encode(f); err != nil {
			log.Warn().
				Str("component", "scanexec").
				Str("scan_id", scanID).
				Err(err).
				Msg("Failed to encode finding")
		}
	}
	if findingLines.Len() > 0 {
		if err := scans.AppendData(ctx, scanID, storage.DataTypeFindings, findingLines.Bytes()); err != nil {
			log.Warn().
				Str("component", "scanexec").
				Str("scan_id", scanID).
				Err(err).
				Msg("Failed to persist findings")
		}
	}

	counts := findingCounts(report)
	status := string(storage.StatusCompleted)
	completedAt := time.Now()
	duration := int(completedAt.Sub(startTime).Seconds())
	truncated := report.Truncated

	updates := storage.ScanUpdates{
		Status:       &status,
		CompletedAt:  &completedAt,
		Duration:     &duration,
		Truncated:    &truncated,
		FindingCount: &counts,
	}

	if err := scans.Update(ctx, scanID, updates); err != nil {
		log.Warn().
			Str("component", "scanexec").
			Str("scan_id", scanID).
			Err(err).
			Msg("Failed to update scan record")
		return
	}

	log.Debug().
		Str("component", "scanexec").
		Str("scan_id", scanID).
		Int("findings", counts.Total()).
		Msg("Persisted scan report")
}

// findingCounts tallies the report's findings by severity.
func findingCounts(report *engine.Report) storage.FindingCounts {
	bySeverity := report.CountBySeverity()
	return storage.FindingCounts{
		Critical: bySeverity[engine.SeverityCritical],
		High:     bySeverity[engine.SeverityHigh],
		Medium:   bySeverity[engine.SeverityMedium],
		Low:      bySeverity[engine.SeverityLow],
		Info:     bySeverity[engine.SeverityInfo],
	}
}
