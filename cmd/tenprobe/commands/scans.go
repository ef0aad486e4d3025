// cmd/tenprobe/commands/scans.go
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/storage"
)

func newScansCommand() *cobra.Command {
	scansCmd := &cobra.Command{
		Use:     "scans",
		Short:   "Manage stored scan history",
		GroupID: groupManagement,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scans, newest first",
		Args:  cobra.NoArgs,
		RunE:  runScansList,
	}
	listCmd.Flags().String("status", "", "Filter by status (pending, running, completed, failed, canceled)")
	listCmd.Flags().String("target", "", "Filter by target substring")
	listCmd.Flags().Int("limit", 20, "Maximum number of scans to show (0 for all)")
	listCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")

	showCmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Show the report of a stored scan",
		Args:  cobra.ExactArgs(1),
		RunE:  runScansShow,
	}
	showCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")

	deleteCmd := &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a stored scan and its report",
		Args:  cobra.ExactArgs(1),
		RunE:  runScansDelete,
	}

	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune scans that violate the retention policy",
		Args:  cobra.NoArgs,
		RunE:  runScansGC,
	}
	gcCmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")

	scansCmd.AddCommand(listCmd, showCmd, deleteCmd, gcCmd)
	return scansCmd
}

// requireStorage opens the backend for history commands. Unlike scans
// themselves, these commands cannot degrade: without storage there is
// nothing to manage.
func requireStorage(ctx context.Context) (storage.Backend, error) {
	storageCfg, ok := storage.ConfigFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("scan history is disabled (--no-storage)")
	}
	return storage.Open(ctx, storageCfg)
}

func runScansList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := setupOutputPipeline(cmd)

	backend, err := requireStorage(ctx)
	if err != nil {
		out.Error(err)
		return err
	}
	defer func() { _ = backend.Close() }()

	status, _ := cmd.Flags().GetString("status")
	target, _ := cmd.Flags().GetString("target")
	limit, _ := cmd.Flags().GetInt("limit")

	scans, err := backend.Scans().List(ctx, storage.ScanFilter{
		Status: status,
		Target: target,
		Limit:  limit,
	})
	if err != nil {
		out.Error(err)
		return err
	}

	if len(scans) == 0 {
		out.Info("No stored scans match")
		return nil
	}

	headers := []string{"Scan ID", "Target", "Status", "Started", "Duration", "Findings"}
	rows := make([][]string, 0, len(scans))
	for _, scan := range scans {
		statusCell := scan.Status
		if scan.Truncated {
			statusCell += " (partial)"
		}
		rows = append(rows, []string{
			scan.ID,
			scan.Target,
			statusCell,
			scan.StartedAt.Format(time.RFC3339),
			(time.Duration(scan.Duration) * time.Second).String(),
			strconv.Itoa(scan.FindingCount.Total()),
		})
	}

	out.Table(headers, rows)
	return nil
}

func runScansShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := setupOutputPipeline(cmd)
	scanID := args[0]

	backend, err := requireStorage(ctx)
	if err != nil {
		out.Error(err)
		return err
	}
	defer func() { _ = backend.Close() }()

	meta, err := backend.Scans().Get(ctx, scanID)
	if err != nil {
		out.Error(err)
		return err
	}

	reader, err := backend.Scans().ReadData(ctx, scanID, storage.DataTypeReport)
	if storage.IsNotFound(err) {
		// Failed or still-running scans have metadata but no report yet
		out.Info(fmt.Sprintf("## Scan %s (%s)", meta.ID, meta.Status))
		out.Info(fmt.Sprintf("Target: %s, started %s", meta.Target, meta.StartedAt.Format(time.RFC3339)))
		if meta.ErrorMessage != "" {
			out.Error(errors.New(meta.ErrorMessage))
		}
		return nil
	}
	if err != nil {
		out.Error(err)
		return err
	}
	defer func() { _ = reader.Close() }()

	var report engine.Report
	if err := json.NewDecoder(reader).Decode(&report); err != nil {
		err = fmt.Errorf("decode stored report: %w", err)
		out.Error(err)
		return err
	}

	out.Report(&report)
	return nil
}

func runScansDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := setupOutputPipeline(cmd)
	scanID := args[0]

	backend, err := requireStorage(ctx)
	if err != nil {
		out.Error(err)
		return err
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Scans().Delete(ctx, scanID); err != nil {
		out.Error(err)
		return err
	}

	out.Info(fmt.Sprintf("Deleted scan %s", scanID))
	return nil
}

func runScansGC(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := setupOutputPipeline(cmd)
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	backend, err := requireStorage(ctx)
	if err != nil {
		out.Error(err)
		return err
	}
	defer func() { _ = backend.Close() }()

	result, err := backend.GarbageCollect(ctx, storage.GCOptions{DryRun: dryRun})
	if err != nil {
		out.Error(err)
		return err
	}

	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	out.Info(fmt.Sprintf("%s %d scans", verb, result.ScansDeleted))
	for _, id := range result.DeletedScanIDs {
		out.Info("  " + id)
	}
	for _, gcErr := range result.Errors {
		out.Warning(gcErr.Error())
	}
	return nil
}
