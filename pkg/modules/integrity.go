// pkg/modules/integrity.go
package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// IntegrityFailuresModule covers A08: insecure deserialization probing and
// missing Subresource Integrity on externally hosted assets.
type IntegrityFailuresModule struct {
	meta engine.ModuleMetadata
}

func newIntegrityFailuresModule() *IntegrityFailuresModule {
	return &IntegrityFailuresModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryIntegrityFailures,
			Name:        "integrity-failures",
			Version:     "0.1.0",
			Description: "Probes deserialization handling and checks SRI coverage of external assets.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *IntegrityFailuresModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A08 checks.
func (m *IntegrityFailuresModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	if err := m.checkDeserialization(ctx, sc); err != nil {
		return err
	}
	return m.checkSubresourceIntegrity(ctx, sc)
}

func (m *IntegrityFailuresModule) checkDeserialization(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.Deserialization(), sc.MaxPayloads()) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		probeURL, err := sc.InjectPayload(p)
		if err != nil {
			return err
		}
		resp, err := sc.Get(ctx, probeURL)
		if err != nil {
			continue
		}
		if hit, signature := detect.DetectDeserializationError(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryIntegrityFailures,
				Title:       "Insecure Deserialization",
				Description: fmt.Sprintf("A serialized-object payload triggered a deserialization error (%q), indicating user input reaches a deserializer.", signature),
				Severity:    engine.SeverityHigh,
				Confidence:  engine.ConfidenceFirm,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Never deserialize untrusted data; use data-only formats with strict schemas.",
				References:  []string{"https://owasp.org/Top10/A08_2021-Software_and_Data_Integrity_Failures/"},
				CWE:         "CWE-502",
			})
			return nil
		}
	}
	return nil
}

func (m *IntegrityFailuresModule) checkSubresourceIntegrity(ctx context.Context, sc *engine.ScanContext) error {
	resp, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}

	host := ""
	if u, err := url.Parse(sc.Target()); err == nil {
		host = u.Host
	}

	missing := detect.MissingSRIResources(resp.Body, host)
	if len(missing) == 0 {
		return nil
	}
	if len(missing) > 5 {
		missing = missing[:5]
	}

	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryIntegrityFailures,
		Title:       "Missing Subresource Integrity",
		Description: fmt.Sprintf("%d externally hosted scripts or stylesheets load without an integrity attribute, e.g. %s. A compromised CDN can inject arbitrary code.", len(missing), missing[0]),
		Severity:    engine.SeverityMedium,
		Confidence:  engine.ConfidenceConfirmed,
		Evidence: engine.Evidence{
			Location:        sc.Target(),
			Method:          http.MethodGet,
			StatusCode:      resp.StatusCode,
			ResponseExcerpt: strings.Join(missing, "\n"),
		},
		Remediation: "Add integrity and crossorigin attributes to third-party script and stylesheet tags.",
		References:  []string{"https://owasp.org/Top10/A08_2021-Software_and_Data_Integrity_Failures/"},
		CWE:         "CWE-353",
	})
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryIntegrityFailures, func() engine.Module {
		return newIntegrityFailuresModule()
	})
}
