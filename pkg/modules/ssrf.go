// pkg/modules/ssrf.go
package modules

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// dnsProbeHost is a hostname that cannot resolve publicly. A resolution
// error echoed for it proves the server attempted an outbound fetch of an
// attacker-chosen URL.
const dnsProbeHost = "tenprobe-ssrf-canary.invalid"

// SSRFModule covers A10: fetching loopback, cloud metadata, and file URIs
// through a URL-accepting parameter, plus a weaker outbound-resolution
// signal.
type SSRFModule struct {
	meta engine.ModuleMetadata
}

func newSSRFModule() *SSRFModule {
	return &SSRFModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategorySSRF,
			Name:        "ssrf",
			Version:     "0.1.0",
			Description: "Probes for server-side request forgery against internal and metadata endpoints.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *SSRFModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A10 checks, stopping at the first confirmed internal
// fetch.
func (m *SSRFModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.SSRF(), sc.MaxPayloads()) {
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
		if hit, marker := detect.DetectInternalResource(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategorySSRF,
				Title:       "Server-Side Request Forgery",
				Description: fmt.Sprintf("The server fetched the attacker-supplied URL %s and returned internal content (matched %q).", p, marker),
				Severity:    engine.SeverityCritical,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Validate outbound URLs against an allow-list and block link-local, loopback and file schemes.",
				References:  []string{"https://owasp.org/Top10/A10_2021-Server-Side_Request_Forgery_%28SSRF%29/"},
				CWE:         "CWE-918",
				CVSS:        9.1,
			})
			return nil
		}
	}

	return m.checkOutboundResolution(ctx, sc)
}

// checkOutboundResolution injects an unresolvable canary hostname. When
// the response echoes a resolution failure for it, the server attempted an
// outbound fetch, a weaker SSRF signal than leaked internal content.
func (m *SSRFModule) checkOutboundResolution(ctx context.Context, sc *engine.ScanContext) error {
	canary := "http://" + dnsProbeHost + "/"
	probeURL, err := sc.InjectPayload(canary)
	if err != nil {
		return err
	}
	resp, err := sc.Get(ctx, probeURL)
	if err != nil {
		return nil
	}

	echoesHost := strings.Contains(resp.Body, dnsProbeHost)
	resolutionError := strings.Contains(strings.ToLower(resp.Body), "no such host") ||
		strings.Contains(strings.ToLower(resp.Body), "name or service not known") ||
		strings.Contains(strings.ToLower(resp.Body), "getaddrinfo")

	if echoesHost && resolutionError {
		sc.AddFinding(engine.Finding{
			Category:    engine.CategorySSRF,
			Title:       "Outbound Request Behavior",
			Description: "The server attempted to resolve an attacker-supplied hostname, indicating a URL parameter triggers server-side fetches. Internal content exposure was not confirmed.",
			Severity:    engine.SeverityMedium,
			Confidence:  engine.ConfidenceTentative,
			Evidence: engine.Evidence{
				Location:        probeURL,
				Method:          http.MethodGet,
				Payload:         canary,
				StatusCode:      resp.StatusCode,
				ResponseExcerpt: engine.Excerpt(resp.Body),
			},
			Remediation: "Restrict server-side fetches to validated, allow-listed destinations.",
			References:  []string{"https://owasp.org/Top10/A10_2021-Server-Side_Request_Forgery_%28SSRF%29/"},
			CWE:         "CWE-918",
		})
	}
	return nil
}

func init() {
	engine.RegisterModule(engine.CategorySSRF, func() engine.Module {
		return newSSRFModule()
	})
}
