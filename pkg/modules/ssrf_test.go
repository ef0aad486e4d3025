// pkg/modules/ssrf_test.go
package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

func TestSSRFModule_InternalContentLeak(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A vulnerable fetcher that returns cloud metadata for the
		// link-local address.
		if strings.Contains(r.URL.Query().Get("q"), "169.254.169.254") {
			fmt.Fprint(w, "ami-id\nami-launch-index\nhostname\niam/security-credentials/")
			return
		}
		fmt.Fprint(w, "<html><body>Fetched.</body></html>")
	}))
	defer srv.Close()

	sc, report := newTestScanContext(t, srv.URL)
	require.NoError(t, newSSRFModule().Run(context.Background(), sc))

	require.Len(t, report.Findings, 1)
	f := findingByTitle(t, report, "Server-Side Request Forgery")
	assert.Equal(t, engine.SeverityCritical, f.Severity)
	assert.Equal(t, engine.ConfidenceConfirmed, f.Confidence)
	assert.Equal(t, "CWE-918", f.CWE)
	assert.Contains(t, f.Evidence.Payload, "169.254.169.254")
}

func TestSSRFModule_OutboundResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if strings.Contains(q, dnsProbeHost) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintf(w, "fetch failed: Get %q: dial tcp: lookup %s: no such host", q, dnsProbeHost)
			return
		}
		fmt.Fprint(w, "<html><body>Fetched.</body></html>")
	}))
	defer srv.Close()

	sc, report := newTestScanContext(t, srv.URL)
	require.NoError(t, newSSRFModule().Run(context.Background(), sc))

	require.Len(t, report.Findings, 1)
	f := findingByTitle(t, report, "Outbound Request Behavior")
	assert.Equal(t, engine.SeverityMedium, f.Severity)
	assert.Equal(t, engine.ConfidenceTentative, f.Confidence)
}

func TestSSRFModule_CleanTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Static page</body></html>")
	}))
	defer srv.Close()

	sc, report := newTestScanContext(t, srv.URL)
	require.NoError(t, newSSRFModule().Run(context.Background(), sc))
	assert.Empty(t, report.Findings)
}
