// pkg/modules/modules_test.go
package modules

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/httpx"
)

// newTestScanContext wires a scan context against the given target URL,
// usually an httptest server. Options go through Validate so modules see
// the same defaults a real scan would.
func newTestScanContext(t *testing.T, target string) (*engine.ScanContext, *engine.Report) {
	t.Helper()

	opts := engine.ScanOptions{
		TargetURL:      target,
		RequestTimeout: 5 * time.Second,
	}
	require.NoError(t, opts.Validate())

	client := httpx.NewClient(httpx.Config{
		Timeout:            5 * time.Second,
		InsecureSkipVerify: true,
	})
	report := engine.NewReport("scan-test", target)
	return engine.NewScanContext(opts, client, report, zerolog.Nop()), report
}

func findingTitles(r *engine.Report) []string {
	titles := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		titles = append(titles, f.Title)
	}
	return titles
}

// findingByTitle fails the test when no finding with the given title was
// recorded.
func findingByTitle(t *testing.T, r *engine.Report, title string) engine.Finding {
	t.Helper()
	for _, f := range r.Findings {
		if f.Title == title {
			return f
		}
	}
	require.Failf(t, "finding not recorded", "want %q, have %v", title, findingTitles(r))
	return engine.Finding{}
}
