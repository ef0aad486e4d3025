// pkg/modules/access.go
// Package modules contains the ten OWASP Top-10 (2021) test modules, one
// per category. Each module registers itself with the engine from init, so
// importing this package for side effects arms the full scan.
package modules

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/httpx"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// AccessControlModule covers A01: path traversal, forced browsing of admin
// paths, and permissive CORS policies.
type AccessControlModule struct {
	meta engine.ModuleMetadata
}

func newAccessControlModule() *AccessControlModule {
	return &AccessControlModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryBrokenAccessControl,
			Name:        "access-control",
			Version:     "0.1.0",
			Description: "Probes for path traversal, exposed admin paths, and permissive CORS.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *AccessControlModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A01 checks in order: traversal, forced browsing, CORS.
// Each check stops at its first confirmed hit.
func (m *AccessControlModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	if err := m.checkPathTraversal(ctx, sc); err != nil {
		return err
	}
	if err := m.checkForcedBrowsing(ctx, sc); err != nil {
		return err
	}
	return m.checkCORS(ctx, sc)
}

func (m *AccessControlModule) checkPathTraversal(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.PathTraversal(), sc.MaxPayloads()) {
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
		if hit, marker := detect.DetectPathTraversal(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryBrokenAccessControl,
				Title:       "Path Traversal Vulnerability",
				Description: fmt.Sprintf("A traversal payload returned sensitive file content (matched %q).", marker),
				Severity:    engine.SeverityHigh,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Canonicalize and validate file paths server-side; never build filesystem paths from user input.",
				References:  []string{"https://owasp.org/Top10/A01_2021-Broken_Access_Control/"},
				CWE:         "CWE-22",
			})
			return nil
		}
	}
	return nil
}

func (m *AccessControlModule) checkForcedBrowsing(ctx context.Context, sc *engine.ScanContext) error {
	for _, path := range payload.Limit(payload.AdminPaths(), sc.MaxPayloads()) {
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
		// A login page guarding the path means access control is in place.
		if resp.StatusCode != http.StatusOK || detect.IsLoginPage(resp.Body) {
			continue
		}
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryBrokenAccessControl,
			Title:       "Exposed Administrative Path",
			Description: fmt.Sprintf("The path %s is reachable without authentication.", path),
			Severity:    engine.SeverityMedium,
			Confidence:  engine.ConfidenceFirm,
			Evidence: engine.Evidence{
				Location:        probeURL,
				Method:          http.MethodGet,
				StatusCode:      resp.StatusCode,
				ResponseExcerpt: engine.Excerpt(resp.Body),
			},
			Remediation: "Require authentication for administrative interfaces or remove them from production hosts.",
			References:  []string{"https://owasp.org/Top10/A01_2021-Broken_Access_Control/"},
			CWE:         "CWE-425",
		})
	}
	return nil
}

func (m *AccessControlModule) checkCORS(ctx context.Context, sc *engine.ScanContext) error {
	for _, origin := range payload.CORSOrigins() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := sc.MakeRequest(ctx, sc.Target(), httpx.RequestOptions{
			Headers: map[string]string{"Origin": origin},
		})
		if err != nil {
			continue
		}
		hit, detail := detect.PermissiveCORS(resp.Header, origin)
		if !hit {
			continue
		}
		severity := engine.SeverityMedium
		if strings.Contains(detail, "credentials") {
			severity = engine.SeverityHigh
		}
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryBrokenAccessControl,
			Title:       "Permissive CORS Policy",
			Description: "The server " + detail + ", allowing cross-origin reads from untrusted sites.",
			Severity:    severity,
			Confidence:  engine.ConfidenceConfirmed,
			Evidence: engine.Evidence{
				Location:   sc.Target(),
				Method:     http.MethodGet,
				Payload:    "Origin: " + origin,
				StatusCode: resp.StatusCode,
			},
			Remediation: "Allow-list trusted origins explicitly and never combine wildcard or reflected origins with credentials.",
			References:  []string{"https://owasp.org/Top10/A01_2021-Broken_Access_Control/"},
			CWE:         "CWE-942",
		})
		return nil
	}
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryBrokenAccessControl, func() engine.Module {
		return newAccessControlModule()
	})
}
