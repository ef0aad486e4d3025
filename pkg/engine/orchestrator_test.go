package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

// eventRecorder collects progress events from concurrent workers.
type eventRecorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *eventRecorder) sink() ProgressFunc {
	return func(ev ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	}
}

func (r *eventRecorder) byState(state ModuleState) []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ProgressEvent
	for _, ev := range r.events {
		if ev.State == state {
			out = append(out, ev)
		}
	}
	return out
}

func addStubFinding(sc *ScanContext, category Category, title string, severity Severity) {
	sc.AddFinding(Finding{
		Category:   category,
		Title:      title,
		Severity:   severity,
		Confidence: ConfidenceFirm,
		Evidence:   Evidence{Location: sc.Target()},
	})
}

func TestNewOrchestrator_InvalidOptions(t *testing.T) {
	_, err := NewOrchestrator(ScanOptions{TargetURL: "not a url at all://"})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewOrchestrator_AssignsScanID(t *testing.T) {
	orc, err := NewOrchestrator(ScanOptions{TargetURL: "https://app.example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, orc.ScanID())

	fixed, err := NewOrchestrator(ScanOptions{TargetURL: "https://app.example.com"}, WithScanID("scan-42"))
	require.NoError(t, err)
	assert.Equal(t, "scan-42", fixed.ScanID())
}

func TestOrchestrator_Run_NoModulesRegistered(t *testing.T) {
	swapRegistry(t)

	orc, err := NewOrchestrator(ScanOptions{TargetURL: "https://app.example.com"})
	require.NoError(t, err)

	_, err = orc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no test modules registered")
}

func TestOrchestrator_Run_CollectsFindings(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategoryInjection, "SQL Injection", SeverityCritical)
		return nil
	}))
	RegisterModule(CategoryMisconfiguration, stubFactory(CategoryMisconfiguration, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategoryMisconfiguration, "Missing CSP", SeverityMedium)
		return nil
	}))

	rec := &eventRecorder{}
	orc, err := NewOrchestrator(
		ScanOptions{TargetURL: "https://app.example.com"},
		WithScanID("scan-1"),
		WithProgressSink(rec.sink()),
	)
	require.NoError(t, err)

	report, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Completed)
	assert.False(t, report.Truncated)
	assert.Equal(t, "scan-1", report.ScanID)
	require.Len(t, report.Findings, 2)
	// Category order: A03 before A05
	assert.Equal(t, "SQL Injection", report.Findings[0].Title)
	assert.Equal(t, "Missing CSP", report.Findings[1].Title)

	assert.Len(t, rec.byState(ModuleStarted), 2)
	completed := rec.byState(ModuleCompleted)
	require.Len(t, completed, 2)
	for _, ev := range completed {
		assert.Equal(t, "scan-1", ev.ScanID)
		assert.Equal(t, 1, ev.Findings)
	}
}

func TestOrchestrator_Run_ModuleErrorBecomesWarning(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategorySSRF, stubFactory(CategorySSRF, func(ctx context.Context, sc *ScanContext) error {
		return errors.New("probe transport broke")
	}))
	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategoryInjection, "SQL Injection", SeverityCritical)
		return nil
	}))

	rec := &eventRecorder{}
	orc, err := NewOrchestrator(
		ScanOptions{TargetURL: "https://app.example.com"},
		WithProgressSink(rec.sink()),
	)
	require.NoError(t, err)

	report, err := orc.Run(context.Background())
	require.NoError(t, err)

	// The failing module never blocks the others
	assert.True(t, report.Completed)
	assert.Len(t, report.Findings, 1)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, CategorySSRF, report.Warnings[0].Category)
	assert.Contains(t, report.Warnings[0].Message, "probe transport broke")

	failed := rec.byState(ModuleFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, CategorySSRF, failed[0].Category)
}

func TestOrchestrator_Run_ModulePanicIsIsolated(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryCryptoFailures, stubFactory(CategoryCryptoFailures, func(ctx context.Context, sc *ScanContext) error {
		panic("nil map write")
	}))
	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategoryInjection, "SQL Injection", SeverityCritical)
		return nil
	}))

	orc, err := NewOrchestrator(ScanOptions{TargetURL: "https://app.example.com"})
	require.NoError(t, err)

	report, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Completed)
	assert.Len(t, report.Findings, 1)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, CategoryCryptoFailures, report.Warnings[0].Category)
	assert.Contains(t, report.Warnings[0].Message, "panic: nil map write")
}

func TestOrchestrator_Run_TimeoutTruncatesReport(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryBrokenAccessControl, stubFactory(CategoryBrokenAccessControl, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategoryBrokenAccessControl, "Exposed admin panel", SeverityHigh)
		<-ctx.Done()
		return ctx.Err()
	}))
	RegisterModule(CategorySSRF, stubFactory(CategorySSRF, func(ctx context.Context, sc *ScanContext) error {
		addStubFinding(sc, CategorySSRF, "SSRF", SeverityHigh)
		return nil
	}))

	rec := &eventRecorder{}
	orc, err := NewOrchestrator(
		ScanOptions{
			TargetURL:   "https://app.example.com",
			ScanTimeout: 100 * time.Millisecond,
			Concurrency: 1,
		},
		WithProgressSink(rec.sink()),
	)
	require.NoError(t, err)

	report, err := orc.Run(context.Background())
	require.NoError(t, err)

	// The blocking A01 module held the only worker slot past the deadline,
	// so A10 never ran and the partial report is marked truncated.
	assert.False(t, report.Completed)
	assert.True(t, report.Truncated)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "Exposed admin panel", report.Findings[0].Title)

	var skippedWarning bool
	for _, w := range report.Warnings {
		if w.Category == CategorySSRF {
			assert.Contains(t, w.Message, "skipped")
			skippedWarning = true
		}
	}
	assert.True(t, skippedWarning, "the unreached module must be recorded as skipped")
	assert.NotEmpty(t, rec.byState(ModuleSkipped))
}

func TestOrchestrator_Run_CancellationTruncates(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, func(ctx context.Context, sc *ScanContext) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	orc, err := NewOrchestrator(ScanOptions{TargetURL: "https://app.example.com"})
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report, err := orc.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Truncated)
}

func TestScanContext_AddFinding_LogsAndDedupes(t *testing.T) {
	report := NewReport("scan-1", "https://app.example.com")
	sc := NewScanContext(ScanOptions{TargetURL: "https://app.example.com"}, nil, report, testLogger())

	f := Finding{
		Category:   CategoryInjection,
		Title:      "SQL Injection",
		Severity:   SeverityCritical,
		Confidence: ConfidenceConfirmed,
		Evidence:   Evidence{Location: "https://app.example.com/?q=%27"},
	}
	assert.True(t, sc.AddFinding(f))
	assert.False(t, sc.AddFinding(f))

	invalid := f
	invalid.Severity = "urgent"
	assert.False(t, sc.AddFinding(invalid))

	assert.Equal(t, 1, report.Len())
}

func TestScanContext_ProbeHelpers(t *testing.T) {
	sc := NewScanContext(ScanOptions{TargetURL: "https://app.example.com/search?q=test", MaxPayloads: 3}, nil, NewReport("scan-1", ""), testLogger())

	injected, err := sc.InjectPayload("' OR 1=1--")
	require.NoError(t, err)
	assert.Contains(t, injected, "q=")
	assert.NotEqual(t, sc.Target(), injected)

	probe, err := sc.ProbeURL("/.git/config")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/.git/config", probe)

	assert.Equal(t, 3, sc.MaxPayloads())
}
