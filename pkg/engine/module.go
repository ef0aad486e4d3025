// pkg/engine/module.go
package engine

import "context"

// ModuleMetadata holds descriptive information for a test module.
type ModuleMetadata struct {
	// Category is the OWASP category the module covers. One module per
	// category.
	Category Category
	// Name is the short machine name, e.g. "injection".
	Name string
	// Description says what the module probes for.
	Description string
	// Version of the module implementation.
	Version string
	// Passive modules only inspect responses already fetched for the base
	// target and send no attack payloads.
	Passive bool
}

// Module is a self-contained vulnerability test for one OWASP category.
// Implementations must be stateless across runs: every scan gets a fresh
// instance from the factory.
type Module interface {
	// Metadata returns descriptive information about the module.
	Metadata() ModuleMetadata

	// Run executes the module's checks against the scan target. Findings
	// and warnings go through the ScanContext; the returned error is
	// reserved for failures that abort the whole module (it becomes a
	// ModuleWarning, never a finding).
	Run(ctx context.Context, sc *ScanContext) error
}
