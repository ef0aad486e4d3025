package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"
)

// GCOptions defines options for garbage collection.
type GCOptions struct {
	// DryRun reports which scans would be deleted without deleting them.
	DryRun bool

	// Retention overrides the backend's configured retention policy.
	// If nil, the backend's default retention config is used.
	Retention *RetentionConfig
}

// GCResult contains the results of a garbage collection operation.
type GCResult struct {
	// ScansDeleted is the number of scans deleted.
	ScansDeleted int

	// DeletedScanIDs is the list of scan IDs that were deleted.
	DeletedScanIDs []string

	// Errors contains any errors encountered during deletion.
	// GC continues even if individual deletions fail.
	Errors []error
}

// GarbageCollect deletes scans that violate the retention policy.
//
// Scans older than MaxAgeDays go first, then the oldest scans beyond
// the MaxScans count. Terminal-status checks are deliberately not
// applied: a scan left in "running" by a crashed process still ages
// out.
//
// Individual deletion errors are collected in GCResult.Errors rather
// than aborting the pass.
func (b *LocalBackend) GarbageCollect(ctx context.Context, opts GCOptions) (*GCResult, error) {
	retention := b.cfg.Retention
	if opts.Retention != nil {
		retention = *opts.Retention
	}

	result := &GCResult{
		DeletedScanIDs: make([]string, 0),
		Errors:         make([]error, 0),
	}

	if !retention.IsEnabled() {
		return result, nil
	}

	scans, err := b.Scans().List(ctx, ScanFilter{})
	if err != nil {
		return result, fmt.Errorf("list scans: %w", err)
	}

	if len(scans) == 0 {
		return result, nil
	}

	// Oldest first so excess scans drop off the back of the history
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].StartedAt.Before(scans[j].StartedAt)
	})

	toDelete := make([]string, 0)

	// Phase 1: scans older than MaxAgeDays
	if retention.MaxAgeDays > 0 {
		ageCutoff := time.Now().AddDate(0, 0, -retention.MaxAgeDays)
		for _, scan := range scans {
			if scan.StartedAt.Before(ageCutoff) {
				toDelete = append(toDelete, scan.ID)
			}
		}
	}

	// Phase 2: oldest scans beyond the MaxScans count
	if retention.MaxScans > 0 {
		remaining := make([]*ScanMetadata, 0)
		for _, scan := range scans {
			if !slices.Contains(toDelete, scan.ID) {
				remaining = append(remaining, scan)
			}
		}

		if len(remaining) > retention.MaxScans {
			excessCount := len(remaining) - retention.MaxScans
			for i := range excessCount {
				toDelete = append(toDelete, remaining[i].ID)
			}
		}
	}

	for _, scanID := range toDelete {
		if opts.DryRun {
			result.DeletedScanIDs = append(result.DeletedScanIDs, scanID)
			result.ScansDeleted++
			continue
		}

		if err := b.Scans().Delete(ctx, scanID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("delete scan %s: %w", scanID, err))
		} else {
			result.DeletedScanIDs = append(result.DeletedScanIDs, scanID)
			result.ScansDeleted++
		}
	}

	return result, nil
}
