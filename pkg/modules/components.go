// pkg/modules/components.go
package modules

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/httpx"
)

// VulnComponentsModule covers A06: outdated client-side JavaScript
// libraries, deprecated libraries, and outdated server software banners.
// The module is passive: it only inspects the base page.
type VulnComponentsModule struct {
	meta engine.ModuleMetadata
}

func newVulnComponentsModule() *VulnComponentsModule {
	return &VulnComponentsModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryVulnComponents,
			Name:        "vulnerable-components",
			Version:     "0.1.0",
			Description: "Flags outdated or deprecated client libraries and stale server banners.",
			Passive:     true,
		},
	}
}

// Metadata returns the module's metadata.
func (m *VulnComponentsModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run fetches the base page once and inspects it for component evidence.
func (m *VulnComponentsModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	resp, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}

	for _, lib := range detect.ExtractLibraries(resp.Body) {
		switch {
		case lib.Deprecated:
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryVulnComponents,
				Title:       "Deprecated JavaScript Library",
				Description: fmt.Sprintf("The page loads %s, which is unmaintained and should be replaced regardless of version.", lib.Name),
				Severity:    engine.SeverityMedium,
				Confidence:  engine.ConfidenceFirm,
				Evidence: engine.Evidence{
					Location:        sc.Target() + "#" + lib.Name,
					Method:          http.MethodGet,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: lib.Name + " " + lib.Version,
				},
				Remediation: "Migrate to a maintained library with an active security process.",
				References:  []string{"https://owasp.org/Top10/A06_2021-Vulnerable_and_Outdated_Components/"},
				CWE:         "CWE-1104",
			})
		case detect.IsVersionOutdated(lib.Name, lib.Version):
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryVulnComponents,
				Title:       "Outdated JavaScript Library",
				Description: fmt.Sprintf("The page loads %s %s, older than the known-safe %s release.", lib.Name, lib.Version, detect.MinimumVersion(lib.Name)),
				Severity:    engine.SeverityMedium,
				Confidence:  engine.ConfidenceFirm,
				Evidence: engine.Evidence{
					Location:        sc.Target() + "#" + lib.Name,
					Method:          http.MethodGet,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: lib.Name + " " + lib.Version,
				},
				Remediation: "Upgrade the library to its latest stable release.",
				References:  []string{"https://owasp.org/Top10/A06_2021-Vulnerable_and_Outdated_Components/"},
				CWE:         "CWE-1395",
			})
		}
	}

	m.checkServerBanner(sc, resp)
	return nil
}

func (m *VulnComponentsModule) checkServerBanner(sc *engine.ScanContext, resp *httpx.Response) {
	for _, header := range []string{"Server", "X-Powered-By"} {
		banner := resp.HeaderValue(header)
		outdated, detail := detect.IsServerOutdated(banner)
		if !outdated {
			continue
		}
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryVulnComponents,
			Title:       "Outdated Server Software",
			Description: fmt.Sprintf("The %s header advertises %s, a release line no longer receiving fixes.", header, detail),
			Severity:    engine.SeverityHigh,
			Confidence:  engine.ConfidenceFirm,
			Evidence: engine.Evidence{
				Location:        sc.Target(),
				Method:          http.MethodGet,
				StatusCode:      resp.StatusCode,
				ResponseExcerpt: header + ": " + banner,
			},
			Remediation: "Upgrade the server software to a supported release.",
			References:  []string{"https://owasp.org/Top10/A06_2021-Vulnerable_and_Outdated_Components/"},
			CWE:         "CWE-1104",
		})
		return
	}
}

func init() {
	engine.RegisterModule(engine.CategoryVulnComponents, func() engine.Module {
		return newVulnComponentsModule()
	})
}
