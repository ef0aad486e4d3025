// pkg/engine/report.go
package engine

import (
	"sort"
	"sync"
	"time"
)

// ModuleWarning records a non-fatal module execution error surfaced on the
// scan metadata. A warning never aborts the scan.
type ModuleWarning struct {
	Category Category `json:"category"`
	Module   string   `json:"module"`
	Message  string   `json:"message"`
}

// Report is the ordered collection of findings for one scan.
//
// Lifecycle: created empty at scan start, appended to by modules while the
// scan runs, frozen once the scan completes or times out. The orchestrator
// owns the report exclusively for the duration of the scan; callers receive
// it only after freeze. Appends are synchronized since category workers
// complete concurrently.
type Report struct {
	ScanID    string          `json:"scan_id"`
	Target    string          `json:"target"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Completed bool            `json:"completed"`
	Truncated bool            `json:"truncated"`
	Findings  []Finding       `json:"findings"`
	Warnings  []ModuleWarning `json:"warnings,omitempty"`

	mu     sync.Mutex
	seen   map[string]struct{}
	frozen bool
}

// NewReport creates an empty, unfrozen report for the given target.
func NewReport(scanID, target string) *Report {
	return &Report{
		ScanID:    scanID,
		Target:    target,
		StartedAt: time.Now().UTC(),
		Findings:  []Finding{},
		seen:      make(map[string]struct{}),
	}
}

// Add appends a finding unless the report is frozen, the finding violates
// an invariant, or an identical (category, title, location) finding was
// already recorded. It reports whether the finding was accepted.
func (r *Report) Add(f Finding) bool {
	if err := f.Validate(); err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return false
	}
	key := f.DedupKey()
	if _, dup := r.seen[key]; dup {
		return false
	}
	r.seen[key] = struct{}{}
	r.Findings = append(r.Findings, f)
	return true
}

// AddWarning attaches a non-fatal module error to the scan metadata.
func (r *Report) AddWarning(w ModuleWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.Warnings = append(r.Warnings, w)
}

// Freeze marks the report read-only, records the final duration, and sorts
// findings by category then descending severity so output is deterministic.
// completed is false when the scan was cut short by timeout or cancellation.
func (r *Report) Freeze(completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.frozen = true
	r.Completed = completed
	r.Truncated = !completed
	r.Duration = time.Since(r.StartedAt)

	sort.SliceStable(r.Findings, func(i, j int) bool {
		if r.Findings[i].Category != r.Findings[j].Category {
			return r.Findings[i].Category < r.Findings[j].Category
		}
		return r.Findings[i].Severity.Score() > r.Findings[j].Severity.Score()
	})
}

// Len returns the number of findings collected so far.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Findings)
}

// HighestSeverity returns the most severe level present in the report, or
// an empty severity when there are no findings.
func (r *Report) HighestSeverity() Severity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var top Severity
	for _, f := range r.Findings {
		if f.Severity.Score() > top.Score() {
			top = f.Severity
		}
	}
	return top
}

// CountBySeverity tallies findings per severity level.
func (r *Report) CountBySeverity() map[Severity]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[Severity]int, 5)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
