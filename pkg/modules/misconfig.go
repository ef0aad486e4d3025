// pkg/modules/misconfig.go
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

// invalidResourcePath is a path that should not exist; its error response
// is inspected for stack traces.
const invalidResourcePath = "/tenprobe-error-probe-00000000"

// MisconfigurationModule covers A05: missing security headers, version
// disclosure, directory listings, and verbose error pages.
type MisconfigurationModule struct {
	meta engine.ModuleMetadata
}

func newMisconfigurationModule() *MisconfigurationModule {
	return &MisconfigurationModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryMisconfiguration,
			Name:        "misconfiguration",
			Version:     "0.1.0",
			Description: "Checks security headers, server disclosure, directory listings, and verbose errors.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *MisconfigurationModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A05 checks.
func (m *MisconfigurationModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	resp, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}

	m.checkSecurityHeaders(sc, resp.Header, resp.StatusCode)
	m.checkDisclosureHeaders(sc, resp.Header, resp.StatusCode)

	if err := m.checkDirectoryListing(ctx, sc); err != nil {
		return err
	}
	return m.checkVerboseErrors(ctx, sc)
}

func (m *MisconfigurationModule) checkSecurityHeaders(sc *engine.ScanContext, h http.Header, status int) {
	missing := detect.MissingSecurityHeaders(h, sc.Options().IsTLS())
	if len(missing) == 0 {
		return
	}

	// One finding for the whole set; its severity is the worst missing
	// header's.
	top := engine.SeverityLow
	names := make([]string, 0, len(missing))
	for _, sh := range missing {
		names = append(names, sh.Name)
		if sev := engine.Severity(sh.Severity); sev.Score() > top.Score() {
			top = sev
		}
	}

	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryMisconfiguration,
		Title:       "Missing Security Headers",
		Description: "The response lacks the following security headers: " + strings.Join(names, ", ") + ".",
		Severity:    top,
		Confidence:  engine.ConfidenceConfirmed,
		Evidence: engine.Evidence{
			Location:   sc.Target(),
			Method:     http.MethodGet,
			StatusCode: status,
		},
		Remediation: "Configure the web server or framework to send the standard security response headers.",
		References:  []string{"https://owasp.org/Top10/A05_2021-Security_Misconfiguration/"},
		CWE:         "CWE-693",
	})
}

func (m *MisconfigurationModule) checkDisclosureHeaders(sc *engine.ScanContext, h http.Header, status int) {
	leaks := detect.DisclosureHeaders(h)
	if len(leaks) == 0 {
		return
	}
	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryMisconfiguration,
		Title:       "Server Version Disclosure",
		Description: "Response headers reveal server software versions: " + strings.Join(leaks, "; ") + ".",
		Severity:    engine.SeverityLow,
		Confidence:  engine.ConfidenceConfirmed,
		Evidence: engine.Evidence{
			Location:        sc.Target(),
			Method:          http.MethodGet,
			StatusCode:      status,
			ResponseExcerpt: strings.Join(leaks, "\n"),
		},
		Remediation: "Suppress or genericize Server and X-Powered-By style headers.",
		References:  []string{"https://owasp.org/Top10/A05_2021-Security_Misconfiguration/"},
		CWE:         "CWE-200",
	})
}

func (m *MisconfigurationModule) checkDirectoryListing(ctx context.Context, sc *engine.ScanContext) error {
	for _, path := range payload.Limit(payload.ListingPaths(), sc.MaxPayloads()) {
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
		if hit, marker := detect.DetectDirectoryListing(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryMisconfiguration,
				Title:       "Directory Listing Enabled",
				Description: fmt.Sprintf("The path %s returns a server-generated file index (matched %q).", path, marker),
				Severity:    engine.SeverityMedium,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Disable automatic directory indexes in the web server configuration.",
				References:  []string{"https://owasp.org/Top10/A05_2021-Security_Misconfiguration/"},
				CWE:         "CWE-548",
			})
		}
	}
	return nil
}

func (m *MisconfigurationModule) checkVerboseErrors(ctx context.Context, sc *engine.ScanContext) error {
	probes := make([]string, 0, 2)
	if u, err := sc.ProbeURL(invalidResourcePath); err == nil {
		probes = append(probes, u)
	}
	if u, err := sc.InjectPayload(`'"<invalid>`); err == nil {
		probes = append(probes, u)
	}

	for _, probeURL := range probes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := sc.Get(ctx, probeURL)
		if err != nil {
			continue
		}
		if hit, fragment := detect.DetectVerboseError(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryMisconfiguration,
				Title:       "Verbose Error Messages",
				Description: fmt.Sprintf("An invalid request produced a debug error page (matched %q), leaking implementation detail.", fragment),
				Severity:    engine.SeverityMedium,
				Confidence:  engine.ConfidenceFirm,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Disable debug error pages in production and return generic error responses.",
				References:  []string{"https://owasp.org/Top10/A05_2021-Security_Misconfiguration/"},
				CWE:         "CWE-209",
			})
			return nil
		}
	}
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryMisconfiguration, func() engine.Module {
		return newMisconfigurationModule()
	})
}
