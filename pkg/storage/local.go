package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

func init() {
	DefaultFactory = func(ctx context.Context, cfg *Config) (Backend, error) {
		return NewLocalBackend(ctx, cfg)
	}
}

// LocalBackend implements Backend using file-based storage.
//
// Storage layout:
//
//	{root}/
//	  scans/
//	    {scan-id}/
//	      metadata.json
//	      report.json
//	      findings.jsonl
//	  logs/
//
// Thread-safety: metadata operations are protected by file locks so
// concurrent processes do not corrupt records.
type LocalBackend struct {
	cfg       *Config
	scanStore *LocalScanStore
	mu        sync.RWMutex
	closed    bool
}

// NewLocalBackend creates a new file-based backend.
func NewLocalBackend(ctx context.Context, cfg *Config) (*LocalBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	backend := &LocalBackend{
		cfg: cfg,
	}

	backend.scanStore = &LocalScanStore{
		root: filepath.Join(cfg.Root, "scans"),
	}

	return backend, nil
}

// Initialize prepares the backend for use.
func (b *LocalBackend) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	dirs := []string{
		filepath.Join(b.cfg.Root, "scans"),
		filepath.Join(b.cfg.Root, "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Close releases resources held by the backend.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	return nil
}

// Scans returns the scan storage interface.
func (b *LocalBackend) Scans() ScanStore {
	return b.scanStore
}

// LocalScanStore implements ScanStore using file-based storage.
type LocalScanStore struct {
	root string // Root directory for scans ({root}/scans)
}

// List returns scans matching the given filter, newest first.
func (s *LocalScanStore) List(ctx context.Context, filter ScanFilter) ([]*ScanMetadata, error) {
	scans, err := s.loadFilteredScans(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.sortScansByTime(scans)

	if filter.Offset > 0 {
		if filter.Offset >= len(scans) {
			return []*ScanMetadata{}, nil
		}
		scans = scans[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(scans) {
		scans = scans[:filter.Limit]
	}

	return scans, nil
}

// loadFilteredScans loads every scan record and applies the filter.
func (s *LocalScanStore) loadFilteredScans(ctx context.Context, filter ScanFilter) ([]*ScanMetadata, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return []*ScanMetadata{}, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scans directory: %w", err)
	}

	var scans []*ScanMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metadata, err := s.Get(ctx, entry.Name())
		if err != nil {
			// Skip scans with missing or invalid metadata
			continue
		}

		if s.matchesFilter(metadata, filter) {
			scans = append(scans, metadata)
		}
	}

	return scans, nil
}

// matchesFilter checks if a scan matches the given filter.
func (s *LocalScanStore) matchesFilter(metadata *ScanMetadata, filter ScanFilter) bool {
	if filter.Status != "" && metadata.Status != filter.Status {
		return false
	}
	if filter.Target != "" && !strings.Contains(metadata.Target, filter.Target) {
		return false
	}
	return true
}

// sortScansByTime sorts scans by start time, newest first.
func (s *LocalScanStore) sortScansByTime(scans []*ScanMetadata) {
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].StartedAt.After(scans[j].StartedAt)
	})
}

// Get retrieves metadata for a specific scan.
func (s *LocalScanStore) Get(ctx context.Context, scanID string) (*ScanMetadata, error) {
	metadataPath := s.metadataPath(scanID)

	if _, err := os.Stat(metadataPath); os.IsNotExist(err) {
		return nil, NewNotFoundError("scan", scanID)
	}

	lock := flock.New(metadataPath + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata ScanMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &metadata, nil
}

// Create creates a new scan with the given metadata.
func (s *LocalScanStore) Create(ctx context.Context, scan *ScanMetadata) error {
	if scan.ID == "" {
		return NewInvalidInputError("scan ID is required", "ID")
	}
	if scan.Target == "" {
		return NewInvalidInputError("scan target is required", "Target")
	}

	scanDir := s.scanDir(scan.ID)
	metadataPath := s.metadataPath(scan.ID)

	if _, err := os.Stat(metadataPath); err == nil {
		return NewAlreadyExistsError("scan", scan.ID)
	}

	if err := os.MkdirAll(scanDir, 0o755); err != nil {
		return fmt.Errorf("failed to create scan directory: %w", err)
	}

	now := time.Now()
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = now
	}
	if scan.UpdatedAt.IsZero() {
		scan.UpdatedAt = now
	}

	lock := flock.New(metadataPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(scan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Update updates metadata for an existing scan.
func (s *LocalScanStore) Update(ctx context.Context, scanID string, updates ScanUpdates) error {
	metadataPath := s.metadataPath(scanID)

	if _, err := os.Stat(metadataPath); os.IsNotExist(err) {
		return NewNotFoundError("scan", scanID)
	}

	lock := flock.New(metadataPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Read current metadata (without a read lock since we hold the write lock)
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata ScanMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	// Apply updates (only non-nil fields)
	if updates.Status != nil {
		metadata.Status = *updates.Status
	}
	if updates.CompletedAt != nil {
		metadata.CompletedAt = *updates.CompletedAt
	}
	if updates.Duration != nil {
		metadata.Duration = *updates.Duration
	}
	if updates.Truncated != nil {
		metadata.Truncated = *updates.Truncated
	}
	if updates.FindingCount != nil {
		metadata.FindingCount = *updates.FindingCount
	}
	if updates.ErrorMessage != nil {
		metadata.ErrorMessage = *updates.ErrorMessage
	}

	metadata.UpdatedAt = time.Now()

	data, err = json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Delete removes a scan and all its associated data.
func (s *LocalScanStore) Delete(ctx context.Context, scanID string) error {
	scanDir := s.scanDir(scanID)

	if _, err := os.Stat(scanDir); os.IsNotExist(err) {
		return NewNotFoundError("scan", scanID)
	}

	if err := os.RemoveAll(scanDir); err != nil {
		return fmt.Errorf("failed to delete scan directory: %w", err)
	}

	lockPath := s.metadataPath(scanID) + ".lock"
	_ = os.Remove(lockPath) // Ignore error

	return nil
}

// ReadData opens a data file for reading.
func (s *LocalScanStore) ReadData(ctx context.Context, scanID string, dataType DataType) (io.ReadCloser, error) {
	if !dataType.IsValid() {
		return nil, NewInvalidInputError(fmt.Sprintf("invalid data type: %s", dataType), "dataType")
	}

	dataPath := s.dataPath(scanID, dataType)

	if _, err := os.Stat(dataPath); os.IsNotExist(err) {
		return nil, NewNotFoundError("data file", string(dataType))
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	return file, nil
}

// WriteData writes data to a file, replacing any existing content.
func (s *LocalScanStore) WriteData(ctx context.Context, scanID string, dataType DataType, data io.Reader) error {
	if !dataType.IsValid() {
		return NewInvalidInputError(fmt.Sprintf("invalid data type: %s", dataType), "dataType")
	}

	dataPath := s.dataPath(scanID, dataType)

	scanDir := s.scanDir(scanID)
	if err := os.MkdirAll(scanDir, 0o755); err != nil {
		return fmt.Errorf("failed to create scan directory: %w", err)
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("failed to create data file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// AppendData appends data to an existing file.
func (s *LocalScanStore) AppendData(ctx context.Context, scanID string, dataType DataType, data []byte) error {
	if !dataType.IsValid() {
		return NewInvalidInputError(fmt.Sprintf("invalid data type: %s", dataType), "dataType")
	}

	dataPath := s.dataPath(scanID, dataType)

	scanDir := s.scanDir(scanID)
	if err := os.MkdirAll(scanDir, 0o755); err != nil {
		return fmt.Errorf("failed to create scan directory: %w", err)
	}

	// File lock for concurrent append safety
	lock := flock.New(dataPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	file, err := os.OpenFile(dataPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to append data: %w", err)
	}

	return nil
}

// Helper methods

func (s *LocalScanStore) scanDir(scanID string) string {
	return filepath.Join(s.root, scanID)
}

func (s *LocalScanStore) metadataPath(scanID string) string {
	return filepath.Join(s.scanDir(scanID), string(DataTypeMetadata))
}

func (s *LocalScanStore) dataPath(scanID string, dataType DataType) string {
	return filepath.Join(s.scanDir(scanID), string(dataType))
}
