// cmd/tenprobe/commands/scan.go
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/cmd/tenprobe/internal/bind"
	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/output"
	"github.com/tenprobe/tenprobe/pkg/scanexec"
	"github.com/tenprobe/tenprobe/pkg/storage"
)

func newScanCommand() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:     "scan <target>",
		Short:   "Scan a web application for OWASP Top 10 vulnerabilities",
		GroupID: groupScan,
		Long: `Scan runs every registered test module against the target and prints
a report of the findings. A bare hostname is scanned over HTTPS.

The exit code reflects the result: 0 for a clean scan, 1 when critical
or high severity findings were recorded, 2 when the scan could not run.`,
		Example: `  tenprobe scan https://staging.example.com
  tenprobe scan app.example.com -H "X-API-Key: secret" --bearer-token $TOKEN
  tenprobe scan https://staging.example.com --output json > report.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	flags := scanCmd.Flags()
	flags.StringArrayP("header", "H", nil, "Extra request header, \"Name: value\" (repeatable)")
	flags.String("bearer-token", "", "Bearer token sent with every probe request")
	flags.String("basic-auth", "", "Basic auth credentials as user:password")
	flags.Duration("timeout", 0, "Overall scan deadline (default 5m)")
	flags.Duration("request-timeout", 0, "Per-request timeout (default 10s)")
	flags.Int("max-payloads", 0, "Payload cap per check (default 8)")
	flags.Int("concurrency", 0, "Category worker pool size (default: all categories in parallel)")
	flags.Bool("follow-redirects", false, "Follow 3xx responses during probes")
	flags.Bool("preflight", false, "Check target reachability before scanning")
	flags.Bool("progress", false, "Report module progress while the scan runs")
	flags.StringP("output", "o", "text", "Output format: text, json or yaml")

	return scanCmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := setupOutputPipeline(cmd)
	cfg := runConfigFromContext(ctx)

	params, err := bind.BindScanOptions(cmd, args[0], cfg.Scan)
	if err != nil {
		out.Error(err)
		return err
	}

	svc := scanexec.NewService()

	backend := openStorage(ctx, out)
	if backend != nil {
		defer func() { _ = backend.Close() }()
		svc = svc.WithStorage(backend)
	}

	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		svc = svc.WithProgressSink(progressSink(out))
	}

	out.Info(fmt.Sprintf("## Target: %s", params.Target))

	res, err := svc.Run(ctx, params)
	if err != nil {
		out.Error(err)
		return err
	}

	out.Report(res.Report)

	if backend != nil {
		collectGarbage(ctx, backend)
	}

	if res.ExitCode == scanexec.ExitFindings {
		counts := res.Report.CountBySeverity()
		return &scanexec.FindingsError{
			Severity: res.Report.HighestSeverity(),
			Count:    counts[engine.SeverityCritical] + counts[engine.SeverityHigh],
		}
	}
	return nil
}

// openStorage opens the backend configured on the context. Storage trouble
// never blocks a scan; it degrades to a warning.
func openStorage(ctx context.Context, out output.Output) storage.Backend {
	storageCfg, ok := storage.ConfigFromContext(ctx)
	if !ok {
		return nil
	}

	backend, err := storage.Open(ctx, storageCfg)
	if err != nil {
		out.Warning(fmt.Sprintf("Scan history unavailable: %v", err))
		return nil
	}
	return backend
}

// progressSink adapts engine progress events onto the output pipeline.
// Module completions are surfaced as info lines, the rest as diagnostics.
func progressSink(out output.Output) engine.ProgressFunc {
	return func(ev engine.ProgressEvent) {
		meta := map[string]any{
			"category": string(ev.Category),
			"module":   ev.Module,
		}

		switch ev.State {
		case engine.ModuleCompleted:
			out.Info(fmt.Sprintf("[%s] %s completed (%d findings)", ev.Category, ev.Module, ev.Findings))
		case engine.ModuleFailed:
			out.Warning(fmt.Sprintf("[%s] %s failed: %v", ev.Category, ev.Module, ev.Err))
		default:
			out.Diag(output.LevelVerbose, fmt.Sprintf("module %s", ev.State), meta)
		}
	}
}

// collectGarbage enforces retention after a successful scan. Failures are
// logged and otherwise ignored.
func collectGarbage(ctx context.Context, backend storage.Backend) {
	result, err := backend.GarbageCollect(ctx, storage.GCOptions{})
	if err != nil {
		log.Warn().Str("component", "cli").Err(err).Msg("Scan history cleanup failed")
		return
	}
	if result.ScansDeleted > 0 {
		log.Debug().Str("component", "cli").
			Int("deleted", result.ScansDeleted).
			Msg("Pruned old scans from history")
	}
}
