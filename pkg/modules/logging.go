// pkg/modules/logging.go
package modules

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// LoggingFailuresModule covers A09. Logging and monitoring cannot be
// verified from outside, so the module emits an advisory and additionally
// probes conventional debug endpoints that should never be public.
type LoggingFailuresModule struct {
	meta engine.ModuleMetadata
}

func newLoggingFailuresModule() *LoggingFailuresModule {
	return &LoggingFailuresModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryLoggingFailures,
			Name:        "logging-failures",
			Version:     "0.1.0",
			Description: "Emits a monitoring advisory and probes for exposed debug endpoints.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *LoggingFailuresModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run records the advisory and probes debug paths.
func (m *LoggingFailuresModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryLoggingFailures,
		Title:       "Logging Coverage Not Verifiable",
		Description: "Whether security events are logged, retained and monitored cannot be determined by external probing. Verify audit logging and alerting internally.",
		Severity:    engine.SeverityInfo,
		Confidence:  engine.ConfidenceTentative,
		Evidence:    engine.Evidence{Location: sc.Target()},
		References:  []string{"https://owasp.org/Top10/A09_2021-Security_Logging_and_Monitoring_Failures/"},
	})

	for _, path := range payload.Limit(payload.DebugPaths(), sc.MaxPayloads()) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		probeURL, err := sc.ProbeURL(path)
		if err != nil {
			return err
		}
		resp, err := sc.Get(ctx, probeURL)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			continue
		}
		if hit, marker := detect.DetectDebugEndpoint(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryLoggingFailures,
				Title:       "Exposed Debug Endpoint",
				Description: fmt.Sprintf("The path %s serves debug or trace output publicly (matched %q).", path, marker),
				Severity:    engine.SeverityMedium,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Restrict debug, profiling and log endpoints to internal networks or remove them from production.",
				References:  []string{"https://owasp.org/Top10/A09_2021-Security_Logging_and_Monitoring_Failures/"},
				CWE:         "CWE-215",
			})
			return nil
		}
	}
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryLoggingFailures, func() engine.Module {
		return newLoggingFailuresModule()
	})
}
