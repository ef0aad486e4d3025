// pkg/modules/design.go
package modules

import (
	"context"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

// InsecureDesignModule covers A04. Design flaws are not observable from
// single black-box probes, so the module emits one informational advisory
// pointing at threat modeling instead of pretending to test the category.
type InsecureDesignModule struct {
	meta engine.ModuleMetadata
}

func newInsecureDesignModule() *InsecureDesignModule {
	return &InsecureDesignModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryInsecureDesign,
			Name:        "insecure-design",
			Version:     "0.1.0",
			Description: "Emits an advisory; design review cannot be automated externally.",
			Passive:     true,
		},
	}
}

// Metadata returns the module's metadata.
func (m *InsecureDesignModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run records the A04 advisory. No probes are sent.
func (m *InsecureDesignModule) Run(_ context.Context, sc *engine.ScanContext) error {
	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryInsecureDesign,
		Title:       "Design Review Recommended",
		Description: "Insecure design weaknesses (missing rate limits, trust boundary violations, business logic abuse) cannot be verified by external probing. Review the application's threat model manually.",
		Severity:    engine.SeverityInfo,
		Confidence:  engine.ConfidenceTentative,
		Evidence:    engine.Evidence{Location: sc.Target()},
		Remediation: "Establish a secure development lifecycle with threat modeling and abuse-case testing.",
		References:  []string{"https://owasp.org/Top10/A04_2021-Insecure_Design/"},
	})
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryInsecureDesign, func() engine.Module {
		return newInsecureDesignModule()
	})
}
