// pkg/modules/authfail.go
package modules

import (
	"context"
	"net/http"

	"github.com/tenprobe/tenprobe/pkg/detect"
	"github.com/tenprobe/tenprobe/pkg/engine"
)

// AuthFailuresModule covers A07: a password-policy advisory, session
// fixation across successive requests, and session cookie attribute
// hygiene.
type AuthFailuresModule struct {
	meta engine.ModuleMetadata
}

func newAuthFailuresModule() *AuthFailuresModule {
	return &AuthFailuresModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryAuthFailures,
			Name:        "auth-failures",
			Version:     "0.1.0",
			Description: "Checks session cookie handling and emits a password-policy advisory.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *AuthFailuresModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A07 checks against two baseline requests.
func (m *AuthFailuresModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryAuthFailures,
		Title:       "Password Policy Not Verifiable",
		Description: "Password strength and credential stuffing defenses cannot be tested without a registration or login workflow. Verify rate limiting, MFA and breached-password checks manually.",
		Severity:    engine.SeverityInfo,
		Confidence:  engine.ConfidenceTentative,
		Evidence:    engine.Evidence{Location: sc.Target()},
		References:  []string{"https://owasp.org/Top10/A07_2021-Identification_and_Authentication_Failures/"},
	})

	first, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}
	second, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}

	firstCookie := detect.ExtractSessionCookie(first.Cookies)
	secondCookie := detect.ExtractSessionCookie(second.Cookies)
	if firstCookie == nil {
		return nil
	}

	if secondCookie != nil && firstCookie.Name == secondCookie.Name && firstCookie.Value == secondCookie.Value && firstCookie.Value != "" {
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryAuthFailures,
			Title:       "Potential Session Fixation",
			Description: "Two successive unauthenticated requests received the identical session cookie value \"" + firstCookie.Name + "\". Reusing pre-authentication session identifiers enables fixation attacks.",
			Severity:    engine.SeverityMedium,
			Confidence:  engine.ConfidenceTentative,
			Evidence: engine.Evidence{
				Location:        sc.Target(),
				Method:          http.MethodGet,
				StatusCode:      second.StatusCode,
				ResponseExcerpt: "Set-Cookie: " + firstCookie.Name + "=<redacted>",
			},
			Remediation: "Issue a fresh session identifier on every authentication boundary.",
			References:  []string{"https://owasp.org/Top10/A07_2021-Identification_and_Authentication_Failures/"},
			CWE:         "CWE-384",
		})
	}

	m.checkCookieAttributes(sc, firstCookie, first.StatusCode)
	return nil
}

func (m *AuthFailuresModule) checkCookieAttributes(sc *engine.ScanContext, cookie *detect.SessionCookie, status int) {
	var missing []string
	if !cookie.HTTPOnly {
		missing = append(missing, "HttpOnly")
	}
	if sc.Options().IsTLS() && !cookie.Secure {
		missing = append(missing, "Secure")
	}
	if len(missing) == 0 {
		return
	}

	description := "The session cookie \"" + cookie.Name + "\" is set without the " + missing[0]
	if len(missing) == 2 {
		description += " and " + missing[1]
	}
	description += " attribute."

	sc.AddFinding(engine.Finding{
		Category:    engine.CategoryAuthFailures,
		Title:       "Session Cookie Missing Attributes",
		Description: description,
		Severity:    engine.SeverityMedium,
		Confidence:  engine.ConfidenceConfirmed,
		Evidence: engine.Evidence{
			Location:        sc.Target(),
			Method:          http.MethodGet,
			StatusCode:      status,
			ResponseExcerpt: "Set-Cookie: " + cookie.Name + "=<redacted>",
		},
		Remediation: "Set HttpOnly and Secure on all session cookies and consider SameSite.",
		References:  []string{"https://owasp.org/Top10/A07_2021-Identification_and_Authentication_Failures/"},
		CWE:         "CWE-1004",
	})
}

func init() {
	engine.RegisterModule(engine.CategoryAuthFailures, func() engine.Module {
		return newAuthFailuresModule()
	})
}
