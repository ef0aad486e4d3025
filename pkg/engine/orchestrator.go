// pkg/engine/orchestrator.go
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tenprobe/tenprobe/pkg/httpx"
)

// ModuleState describes a module's position in its lifecycle, reported
// through progress events.
type ModuleState int

const (
	ModuleStarted ModuleState = iota
	ModuleCompleted
	ModuleFailed
	ModuleSkipped
)

// String returns the string representation of the ModuleState value.
func (s ModuleState) String() string {
	return [...]string{"started", "completed", "failed", "skipped"}[s]
}

// ProgressEvent notifies a sink about module lifecycle transitions while a
// scan runs. Sinks must not block: events are delivered synchronously from
// worker goroutines.
type ProgressEvent struct {
	ScanID   string
	Category Category
	Module   string
	State    ModuleState
	Findings int
	Err      error
}

// ProgressFunc receives progress events. A nil sink disables reporting.
type ProgressFunc func(ProgressEvent)

// Orchestrator runs every registered test module against one target with
// bounded concurrency and a global deadline.
type Orchestrator struct {
	opts     ScanOptions
	scanID   string
	client   *httpx.Client
	progress ProgressFunc
	logger   zerolog.Logger
}

// OrchestratorOption customizes orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithScanID fixes the scan identifier instead of generating one.
func WithScanID(id string) OrchestratorOption {
	return func(o *Orchestrator) { o.scanID = id }
}

// WithProgressSink registers a sink for module lifecycle events.
func WithProgressSink(fn ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithHTTPClient overrides the probe client. Tests use it to point the
// orchestrator at fixture servers with custom transport settings.
func WithHTTPClient(c *httpx.Client) OrchestratorOption {
	return func(o *Orchestrator) { o.client = c }
}

// NewOrchestrator validates the scan options and prepares a run. A
// validation failure is returned as a ConfigurationError before any
// network traffic happens.
func NewOrchestrator(opts ScanOptions, optFns ...OrchestratorOption) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	orc := &Orchestrator{opts: opts}
	for _, fn := range optFns {
		fn(orc)
	}
	if orc.scanID == "" {
		orc.scanID = uuid.NewString()
	}
	if orc.client == nil {
		orc.client = httpx.NewClient(httpx.Config{
			Timeout:            opts.RequestTimeout,
			FollowRedirects:    opts.FollowRedirects,
			InsecureSkipVerify: true,
			Headers:            opts.Headers,
			BearerToken:        opts.Auth.BearerToken,
			BasicUser:          opts.Auth.BasicUser,
			BasicPassword:      opts.Auth.BasicPassword,
		})
	}
	orc.logger = log.With().Str("component", "Orchestrator").Str("scan_id", orc.scanID).Logger()
	return orc, nil
}

// ScanID returns the identifier assigned to this run.
func (o *Orchestrator) ScanID() string { return o.scanID }

// Run executes all registered modules in category order under the global
// scan timeout. It always returns a frozen report: when the deadline
// expires or ctx is canceled the report carries the findings collected so
// far and is marked truncated. Run never returns an error for individual
// module failures; those become warnings on the report.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	categories := RegisteredCategories()
	if len(categories) == 0 {
		return nil, fmt.Errorf("no test modules registered")
	}

	scanCtx, cancel := context.WithTimeout(ctx, o.opts.ScanTimeout)
	defer cancel()

	report := NewReport(o.scanID, o.opts.TargetURL)
	base := NewScanContext(o.opts, o.client, report, o.logger)

	workers := o.opts.Concurrency
	if workers <= 0 || workers > len(categories) {
		workers = len(categories)
	}

	o.logger.Info().
		Str("target", o.opts.TargetURL).
		Int("modules", len(categories)).
		Int("workers", workers).
		Dur("timeout", o.opts.ScanTimeout).
		Msg("Scan started")

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, category := range categories {
		// Once the deadline is hit, remaining modules are skipped rather
		// than queued against a dead context.
		if scanCtx.Err() != nil {
			o.skipModule(report, category)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-scanCtx.Done():
			o.skipModule(report, category)
			continue
		}

		wg.Add(1)
		go func(category Category) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runModule(scanCtx, base, report, category)
		}(category)
	}

	wg.Wait()

	completed := scanCtx.Err() == nil
	report.Freeze(completed)

	o.logger.Info().
		Int("findings", len(report.Findings)).
		Int("warnings", len(report.Warnings)).
		Bool("completed", completed).
		Dur("duration", report.Duration).
		Msg("Scan finished")

	return report, nil
}

// runModule executes a single category module with panic isolation. A
// panicking module is downgraded to a warning so the other categories
// still run.
func (o *Orchestrator) runModule(ctx context.Context, base *ScanContext, report *Report, category Category) {
	factory, ok := ModuleFor(category)
	if !ok {
		return
	}
	mod := factory()
	meta := mod.Metadata()

	logger := o.logger.With().Str("module", meta.Name).Str("category", string(category)).Logger()
	sc := base.withLogger(logger)

	o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: meta.Name, State: ModuleStarted})
	before := report.Len()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Module panicked")
			report.AddWarning(ModuleWarning{
				Category: category,
				Module:   meta.Name,
				Message:  fmt.Sprintf("panic: %v", r),
			})
			o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: meta.Name, State: ModuleFailed, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	err := mod.Run(ctx, sc)
	found := report.Len() - before

	switch {
	case err != nil && ctx.Err() != nil:
		// Deadline or cancellation surfaced through the module; the
		// truncation flag on the report already records it.
		logger.Debug().Dur("elapsed", time.Since(start)).Msg("Module interrupted by scan deadline")
		o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: meta.Name, State: ModuleFailed, Findings: found, Err: ctx.Err()})
	case err != nil:
		report.AddWarning(ModuleWarning{Category: category, Module: meta.Name, Message: err.Error()})
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Module failed")
		o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: meta.Name, State: ModuleFailed, Findings: found, Err: err})
	default:
		logger.Debug().Int("findings", found).Dur("elapsed", time.Since(start)).Msg("Module completed")
		o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: meta.Name, State: ModuleCompleted, Findings: found})
	}
}

func (o *Orchestrator) skipModule(report *Report, category Category) {
	name := string(category)
	if f, ok := ModuleFor(category); ok {
		name = f().Metadata().Name
	}
	report.AddWarning(ModuleWarning{Category: category, Module: name, Message: "skipped: scan deadline exceeded"})
	o.emit(ProgressEvent{ScanID: o.scanID, Category: category, Module: name, State: ModuleSkipped})
}

func (o *Orchestrator) emit(ev ProgressEvent) {
	if o.progress != nil {
		o.progress(ev)
	}
}
