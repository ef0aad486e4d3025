// pkg/modules/logging_test.go
package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

func TestLoggingFailuresModule_AdvisoryOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html><body>Shop</body></html>")
	}))
	defer srv.Close()

	sc, report := newTestScanContext(t, srv.URL)
	require.NoError(t, newLoggingFailuresModule().Run(context.Background(), sc))

	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, "Logging Coverage Not Verifiable", f.Title)
	assert.Equal(t, engine.SeverityInfo, f.Severity)
}

func TestLoggingFailuresModule_ExposedDebugEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html><body>Shop</body></html>")
	})
	mux.HandleFunc("/debug/pprof/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Types of profiles available:\ngoroutine profile: total 12\nheap profile: 4")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sc, report := newTestScanContext(t, srv.URL)
	require.NoError(t, newLoggingFailuresModule().Run(context.Background(), sc))

	require.Len(t, report.Findings, 2)
	f := findingByTitle(t, report, "Exposed Debug Endpoint")
	assert.Equal(t, engine.SeverityMedium, f.Severity)
	assert.Contains(t, f.Description, "/debug/pprof/")
}
