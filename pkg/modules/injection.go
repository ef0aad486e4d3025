// pkg/modules/injection.go
package modules

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// InjectionModule covers A03: SQL injection, reflected XSS, and command
// injection. Each sub-check stops at its first confirmed hit so a
// vulnerable parameter yields exactly one finding per weakness.
type InjectionModule struct {
	meta engine.ModuleMetadata
}

func newInjectionModule() *InjectionModule {
	return &InjectionModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryInjection,
			Name:        "injection",
			Version:     "0.1.0",
			Description: "Probes for SQL injection, reflected XSS, and command injection.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *InjectionModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A03 sub-checks in order of severity.
func (m *InjectionModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	if err := m.checkSQLInjection(ctx, sc); err != nil {
		return err
	}
	if err := m.checkReflectedXSS(ctx, sc); err != nil {
		return err
	}
	return m.checkCommandInjection(ctx, sc)
}

func (m *InjectionModule) checkSQLInjection(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.SQLi(), sc.MaxPayloads()) {
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
		if hit, signature := detect.DetectSQLError(resp.Body); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryInjection,
				Title:       "SQL Injection",
				Description: fmt.Sprintf("Injected input triggered a database error (%q), indicating user input reaches a SQL statement.", signature),
				Severity:    engine.SeverityCritical,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Use parameterized queries or prepared statements; never concatenate user input into SQL.",
				References:  []string{"https://owasp.org/Top10/A03_2021-Injection/"},
				CWE:         "CWE-89",
				CVSS:        9.8,
			})
			return nil
		}
	}
	return nil
}

func (m *InjectionModule) checkReflectedXSS(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.XSS(), sc.MaxPayloads()) {
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
		if detect.DetectReflectedXSS(resp.Body, p) {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryInjection,
				Title:       "Reflected Cross-Site Scripting",
				Description: "A script payload was echoed back in executable form, so attacker-controlled markup runs in victims' browsers.",
				Severity:    engine.SeverityHigh,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Encode all user input on output for its HTML context and deploy a Content-Security-Policy.",
				References:  []string{"https://owasp.org/Top10/A03_2021-Injection/"},
				CWE:         "CWE-79",
				CVSS:        6.1,
			})
			return nil
		}
	}
	return nil
}

func (m *InjectionModule) checkCommandInjection(ctx context.Context, sc *engine.ScanContext) error {
	for _, p := range payload.Limit(payload.CommandInjections(), sc.MaxPayloads()) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		probeURL, err := sc.InjectPayload(p.Value)
		if err != nil {
			return err
		}
		resp, err := sc.Get(ctx, probeURL)
		if err != nil {
			continue
		}
		if hit, indicator := detect.DetectCommandInjection(resp.Body, p.Indicators); hit {
			sc.AddFinding(engine.Finding{
				Category:    engine.CategoryInjection,
				Title:       "Command Injection",
				Description: fmt.Sprintf("Shell metacharacter input produced command output (matched %q), so user input reaches a system shell.", indicator),
				Severity:    engine.SeverityCritical,
				Confidence:  engine.ConfidenceConfirmed,
				Evidence: engine.Evidence{
					Location:        probeURL,
					Method:          http.MethodGet,
					Payload:         p.Value,
					StatusCode:      resp.StatusCode,
					ResponseExcerpt: engine.Excerpt(resp.Body),
				},
				Remediation: "Avoid invoking shells with user input; use safe process APIs with argument arrays and strict allow-lists.",
				References:  []string{"https://owasp.org/Top10/A03_2021-Injection/"},
				CWE:         "CWE-78",
				CVSS:        9.8,
			})
			return nil
		}
	}
	return nil
}

func init() {
	engine.RegisterModule(engine.CategoryInjection, func() engine.Module {
		return newInjectionModule()
	})
}
