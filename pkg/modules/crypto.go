// pkg/modules/crypto.go
package modules

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/payload"
)

// hstsMinMaxAge is 180 days, below which an HSTS policy is considered weak.
const hstsMinMaxAge = 15552000

// CryptoFailuresModule covers A02: plaintext transport, weak or missing
// HSTS, and credentials embedded in the target URL.
type CryptoFailuresModule struct {
	meta engine.ModuleMetadata
}

func newCryptoFailuresModule() *CryptoFailuresModule {
	return &CryptoFailuresModule{
		meta: engine.ModuleMetadata{
			Category:    engine.CategoryCryptoFailures,
			Name:        "crypto-failures",
			Version:     "0.1.0",
			Description: "Checks transport security, HSTS policy, and sensitive data in URLs.",
		},
	}
}

// Metadata returns the module's metadata.
func (m *CryptoFailuresModule) Metadata() engine.ModuleMetadata { return m.meta }

// Run executes the A02 checks. The transport and URL checks need no
// network probe at all.
func (m *CryptoFailuresModule) Run(ctx context.Context, sc *engine.ScanContext) error {
	m.checkSensitiveURL(sc)

	if !sc.Options().IsTLS() {
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryCryptoFailures,
			Title:       "Insecure Transport",
			Description: "The target is served over plaintext HTTP; all traffic including credentials and session tokens is exposed in transit.",
			Severity:    engine.SeverityHigh,
			Confidence:  engine.ConfidenceConfirmed,
			Evidence:    engine.Evidence{Location: sc.Target()},
			Remediation: "Serve the application exclusively over HTTPS and redirect HTTP to HTTPS.",
			References:  []string{"https://owasp.org/Top10/A02_2021-Cryptographic_Failures/"},
			CWE:         "CWE-319",
		})
		// HSTS is meaningless over plaintext.
		return nil
	}

	return m.checkHSTS(ctx, sc)
}

func (m *CryptoFailuresModule) checkSensitiveURL(sc *engine.ScanContext) {
	lower := strings.ToLower(sc.Target())
	for _, kw := range payload.SensitiveURLKeywords() {
		if !strings.Contains(lower, kw) {
			continue
		}
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryCryptoFailures,
			Title:       "Sensitive Data in URL",
			Description: "The target URL carries the sensitive parameter \"" + strings.TrimSuffix(kw, "=") + "\"; URLs are logged by servers, proxies and browser history.",
			Severity:    engine.SeverityHigh,
			Confidence:  engine.ConfidenceConfirmed,
			Evidence:    engine.Evidence{Location: sc.Target(), Payload: kw},
			Remediation: "Move credentials and tokens out of query strings into headers or request bodies.",
			References:  []string{"https://owasp.org/Top10/A02_2021-Cryptographic_Failures/"},
			CWE:         "CWE-598",
		})
		return
	}
}

func (m *CryptoFailuresModule) checkHSTS(ctx context.Context, sc *engine.ScanContext) error {
	resp, err := sc.Get(ctx, sc.Target())
	if err != nil {
		return err
	}

	hsts := resp.HeaderValue("Strict-Transport-Security")
	switch {
	case hsts == "":
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryCryptoFailures,
			Title:       "Missing HSTS Policy",
			Description: "The HTTPS target does not send Strict-Transport-Security, leaving returning visitors open to protocol downgrade.",
			Severity:    engine.SeverityMedium,
			Confidence:  engine.ConfidenceConfirmed,
			Evidence: engine.Evidence{
				Location:   sc.Target(),
				Method:     http.MethodGet,
				StatusCode: resp.StatusCode,
			},
			Remediation: "Send Strict-Transport-Security with a max-age of at least 180 days.",
			References:  []string{"https://owasp.org/Top10/A02_2021-Cryptographic_Failures/"},
			CWE:         "CWE-319",
		})
	case hstsMaxAge(hsts) < hstsMinMaxAge:
		sc.AddFinding(engine.Finding{
			Category:    engine.CategoryCryptoFailures,
			Title:       "Weak HSTS Policy",
			Description: "The Strict-Transport-Security max-age is below 180 days, weakening downgrade protection.",
			Severity:    engine.SeverityLow,
			Confidence:  engine.ConfidenceConfirmed,
			Evidence: engine.Evidence{
				Location:        sc.Target(),
				Method:          http.MethodGet,
				StatusCode:      resp.StatusCode,
				ResponseExcerpt: "Strict-Transport-Security: " + hsts,
			},
			Remediation: "Raise the HSTS max-age to at least 15552000 seconds.",
			References:  []string{"https://owasp.org/Top10/A02_2021-Cryptographic_Failures/"},
			CWE:         "CWE-319",
		})
	}
	return nil
}

// hstsMaxAge extracts the max-age directive value, or 0 when absent or
// unparsable.
func hstsMaxAge(policy string) int {
	for _, directive := range strings.Split(policy, ";") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		if v, found := strings.CutPrefix(directive, "max-age="); found {
			age, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0
			}
			return age
		}
	}
	return 0
}

func init() {
	engine.RegisterModule(engine.CategoryCryptoFailures, func() engine.Module {
		return newCryptoFailuresModule()
	})
}
