// Package storage persists scan history on the local filesystem.
//
// Each scan gets its own directory holding a metadata.json summary,
// the frozen report.json, and a findings.jsonl stream written while
// the scan runs. The Backend interface keeps the engine decoupled
// from the on-disk layout so alternative backends can be added later.
package storage

import (
	"context"
	"io"
)

// Backend is the storage abstraction for scan history.
//
// Thread-safety: all methods must be safe for concurrent use.
type Backend interface {
	// Initialize prepares the backend for use, creating the directory
	// layout on first run.
	Initialize(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error

	// Scans returns the scan storage interface.
	Scans() ScanStore

	// GarbageCollect removes scans that violate the retention policy:
	// scans older than MaxAgeDays, then the oldest scans beyond
	// MaxScans. Returns statistics about what was deleted.
	GarbageCollect(ctx context.Context, opts GCOptions) (*GCResult, error)
}

// ScanStore manages scan metadata and data files.
//
// Metadata operations (List, Get, Create, Update, Delete) work on the
// small metadata.json summaries so listing history never has to parse
// full reports. Data operations stream the report and finding files.
//
// Thread-safety: all methods must be safe for concurrent use.
type ScanStore interface {
	// List returns scans matching the filter, newest first.
	// Returns an empty slice when nothing matches.
	List(ctx context.Context, filter ScanFilter) ([]*ScanMetadata, error)

	// Get retrieves metadata for a specific scan.
	// Returns a NotFoundError if the scan does not exist.
	Get(ctx context.Context, scanID string) (*ScanMetadata, error)

	// Create creates a new scan record. The metadata needs at minimum
	// ID and Target. Returns an AlreadyExistsError on a duplicate ID.
	Create(ctx context.Context, scan *ScanMetadata) error

	// Update applies the non-nil fields of updates to an existing scan.
	// Returns a NotFoundError if the scan does not exist.
	Update(ctx context.Context, scanID string, updates ScanUpdates) error

	// Delete removes a scan and all its data files. This cannot be
	// undone. Returns a NotFoundError if the scan does not exist.
	Delete(ctx context.Context, scanID string) error

	// ReadData opens a data file for reading. The caller closes the
	// returned ReadCloser. Returns a NotFoundError if the file does
	// not exist.
	ReadData(ctx context.Context, scanID string, dataType DataType) (io.ReadCloser, error)

	// WriteData writes a data file, replacing any existing content.
	WriteData(ctx context.Context, scanID string, dataType DataType, data io.Reader) error

	// AppendData appends complete lines to a data file. Used to stream
	// findings as modules report them. Safe for concurrent appends.
	AppendData(ctx context.Context, scanID string, dataType DataType, data []byte) error
}
