package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewLocalBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: &Config{
				Root: t.TempDir(),
			},
			wantErr: false,
		},
		{
			name: "invalid config - empty root",
			cfg: &Config{
				Root: "",
			},
			wantErr: true,
		},
		{
			name: "invalid config - negative retention",
			cfg: &Config{
				Root:      t.TempDir(),
				Retention: RetentionConfig{MaxScans: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewLocalBackend(context.Background(), tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, backend)
			} else {
				require.NoError(t, err)
				require.NotNil(t, backend)
				require.NotNil(t, backend.Scans())
			}
		})
	}
}

func TestLocalBackend_Initialize(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	backend, err := NewLocalBackend(ctx, &Config{
		Root: tmpDir,
	})
	require.NoError(t, err)

	err = backend.Initialize(ctx)
	require.NoError(t, err)

	// Verify directory structure
	expectedDirs := []string{
		"scans",
		"logs",
	}

	for _, dir := range expectedDirs {
		path := filepath.Join(tmpDir, dir)
		info, err := os.Stat(path)
		require.NoError(t, err, "directory %s should exist", dir)
		require.True(t, info.IsDir(), "%s should be a directory", dir)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	ctx := context.Background()
	backend, err := NewLocalBackend(ctx, &Config{
		Root: t.TempDir(),
	})
	require.NoError(t, err)

	err = backend.Close()
	require.NoError(t, err)

	// Calling Close again should not error
	err = backend.Close()
	require.NoError(t, err)

	// Initialize after Close should fail
	err = backend.Initialize(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestOpen_UsesDefaultFactory(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(ctx, &Config{Root: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, backend)
	t.Cleanup(func() { _ = backend.Close() })

	// Initialize already ran, so the scans directory exists
	require.NotNil(t, backend.Scans())
}

func TestLocalScanStore_Create(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)

	scanStore := backend.Scans()

	tests := []struct {
		name    string
		scan    *ScanMetadata
		wantErr bool
		errType error
	}{
		{
			name: "valid scan",
			scan: &ScanMetadata{
				ID:     "scan-1",
				Target: "https://example.com",
				Status: string(StatusPending),
			},
			wantErr: false,
		},
		{
			name: "missing ID",
			scan: &ScanMetadata{
				Target: "https://example.com",
				Status: string(StatusPending),
			},
			wantErr: true,
			errType: &InvalidInputError{},
		},
		{
			name: "missing target",
			scan: &ScanMetadata{
				ID:     "scan-2",
				Status: string(StatusPending),
			},
			wantErr: true,
			errType: &InvalidInputError{},
		},
		{
			name: "duplicate scan",
			scan: &ScanMetadata{
				ID:     "scan-1", // Already created
				Target: "https://example.com",
				Status: string(StatusPending),
			},
			wantErr: true,
			errType: &AlreadyExistsError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scanStore.Create(ctx, tt.scan)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != nil {
					require.ErrorAs(t, err, &tt.errType)
				}
			} else {
				require.NoError(t, err)

				// Verify scan was created
				retrieved, err := scanStore.Get(ctx, tt.scan.ID)
				require.NoError(t, err)
				require.Equal(t, tt.scan.ID, retrieved.ID)
				require.Equal(t, tt.scan.Target, retrieved.Target)
				require.Equal(t, tt.scan.Status, retrieved.Status)
				require.False(t, retrieved.CreatedAt.IsZero())
				require.False(t, retrieved.UpdatedAt.IsZero())
			}
		})
	}
}

func TestLocalScanStore_Get(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusPending),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	t.Run("existing scan", func(t *testing.T) {
		retrieved, err := scanStore.Get(ctx, "scan-1")
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		require.Equal(t, "scan-1", retrieved.ID)
	})

	t.Run("non-existent scan", func(t *testing.T) {
		_, err := scanStore.Get(ctx, "scan-999")
		require.Error(t, err)
		require.True(t, IsNotFound(err))
	})
}

func TestLocalScanStore_Update(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusRunning),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	completedAt := time.Now()
	duration := 120
	status := string(StatusCompleted)
	truncated := true
	counts := FindingCounts{Critical: 1, High: 2, Low: 3}

	updates := ScanUpdates{
		Status:       &status,
		CompletedAt:  &completedAt,
		Duration:     &duration,
		Truncated:    &truncated,
		FindingCount: &counts,
	}

	err = scanStore.Update(ctx, "scan-1", updates)
	require.NoError(t, err)

	retrieved, err := scanStore.Get(ctx, "scan-1")
	require.NoError(t, err)
	require.Equal(t, string(StatusCompleted), retrieved.Status)
	require.Equal(t, duration, retrieved.Duration)
	require.True(t, retrieved.Truncated)
	require.Equal(t, counts, retrieved.FindingCount)
	require.Equal(t, 6, retrieved.FindingCount.Total())
	require.WithinDuration(t, completedAt, retrieved.CompletedAt, time.Second)

	t.Run("non-existent scan", func(t *testing.T) {
		err := scanStore.Update(ctx, "scan-999", updates)
		require.Error(t, err)
		require.True(t, IsNotFound(err))
	})
}

func TestLocalScanStore_Delete(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusPending),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	err = scanStore.Delete(ctx, "scan-1")
	require.NoError(t, err)

	_, err = scanStore.Get(ctx, "scan-1")
	require.Error(t, err)
	require.True(t, IsNotFound(err))

	// Deleting again should return not found
	err = scanStore.Delete(ctx, "scan-1")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestLocalScanStore_List(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	now := time.Now()
	scans := []*ScanMetadata{
		{
			ID:        "scan-1",
			Target:    "https://one.example.com",
			Status:    string(StatusPending),
			StartedAt: now.Add(-3 * time.Minute),
		},
		{
			ID:        "scan-2",
			Target:    "https://two.example.com",
			Status:    string(StatusRunning),
			StartedAt: now.Add(-2 * time.Minute),
		},
		{
			ID:        "scan-3",
			Target:    "https://one.example.com/app",
			Status:    string(StatusCompleted),
			StartedAt: now.Add(-1 * time.Minute),
		},
	}

	for _, scan := range scans {
		err := scanStore.Create(ctx, scan)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		filter    ScanFilter
		wantCount int
	}{
		{
			name:      "list all",
			filter:    ScanFilter{},
			wantCount: 3,
		},
		{
			name: "filter by status",
			filter: ScanFilter{
				Status: string(StatusPending),
			},
			wantCount: 1,
		},
		{
			name: "filter by target substring",
			filter: ScanFilter{
				Target: "one.example.com",
			},
			wantCount: 2,
		},
		{
			name: "limit results",
			filter: ScanFilter{
				Limit: 2,
			},
			wantCount: 2,
		},
		{
			name: "offset results",
			filter: ScanFilter{
				Offset: 1,
			},
			wantCount: 2,
		},
		{
			name: "offset exceeds results",
			filter: ScanFilter{
				Offset: 10,
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := scanStore.List(ctx, tt.filter)
			require.NoError(t, err)
			require.Len(t, results, tt.wantCount)
		})
	}

	t.Run("newest first ordering", func(t *testing.T) {
		results, err := scanStore.List(ctx, ScanFilter{})
		require.NoError(t, err)
		require.Equal(t, "scan-3", results[0].ID)
		require.Equal(t, "scan-1", results[2].ID)
	})

	t.Run("scan with invalid metadata is skipped", func(t *testing.T) {
		store := scanStore.(*LocalScanStore)
		require.NoError(t, os.MkdirAll(filepath.Join(store.root, "badscan"), 0o755))
		results, err := scanStore.List(ctx, ScanFilter{})
		require.NoError(t, err)
		require.Len(t, results, 3)
	})
}

func TestLocalScanStore_ListEmptyStore(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scans, err := scanStore.List(ctx, ScanFilter{})
	require.NoError(t, err)
	require.Empty(t, scans)
}

func TestLocalScanStore_MatchesFilter(t *testing.T) {
	s := &LocalScanStore{}
	meta := &ScanMetadata{Status: string(StatusCompleted), Target: "https://app.example.com"}

	require.True(t, s.matchesFilter(meta, ScanFilter{}))
	require.False(t, s.matchesFilter(meta, ScanFilter{Status: string(StatusPending)}))
	require.False(t, s.matchesFilter(meta, ScanFilter{Target: "other.host"}))
	require.True(t, s.matchesFilter(meta, ScanFilter{Target: "app.example"}))
}

func TestLocalScanStore_WriteData(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusPending),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	data := strings.NewReader(`{"target":"https://example.com","completed":true}`)
	err = scanStore.WriteData(ctx, "scan-1", DataTypeReport, data)
	require.NoError(t, err)

	reader, err := scanStore.ReadData(ctx, "scan-1", DataTypeReport)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Contains(t, string(content), "example.com")

	var report map[string]any
	require.NoError(t, json.Unmarshal(content, &report))
	require.Equal(t, true, report["completed"])
}

func TestLocalScanStore_AppendData(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusRunning),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	err = scanStore.AppendData(ctx, "scan-1", DataTypeFindings, []byte(`{"title":"SQL Injection"}`+"\n"))
	require.NoError(t, err)

	err = scanStore.AppendData(ctx, "scan-1", DataTypeFindings, []byte(`{"title":"Reflected XSS"}`+"\n"))
	require.NoError(t, err)

	reader, err := scanStore.ReadData(ctx, "scan-1", DataTypeFindings)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "SQL Injection")
	require.Contains(t, lines[1], "Reflected XSS")
}

func TestLocalScanStore_ReadData_NotFound(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusPending),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	_, err = scanStore.ReadData(ctx, "scan-1", DataTypeReport)
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestLocalScanStore_InvalidDataType(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:     "scan-1",
		Target: "https://example.com",
		Status: string(StatusPending),
	}
	err := scanStore.Create(ctx, scan)
	require.NoError(t, err)

	err = scanStore.WriteData(ctx, "scan-1", DataType("invalid.txt"), strings.NewReader("data"))
	require.Error(t, err)
	require.True(t, IsInvalidInput(err))

	err = scanStore.AppendData(ctx, "scan-1", DataType("invalid.txt"), []byte("data"))
	require.Error(t, err)
	require.True(t, IsInvalidInput(err))

	_, err = scanStore.ReadData(ctx, "scan-1", DataType("invalid.txt"))
	require.Error(t, err)
	require.True(t, IsInvalidInput(err))
}

func TestLocalBackend_GarbageCollect_MaxScans(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	now := time.Now()
	for i, id := range []string{"old", "middle", "new"} {
		scan := &ScanMetadata{
			ID:        id,
			Target:    "https://example.com",
			Status:    string(StatusCompleted),
			StartedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, scanStore.Create(ctx, scan))
	}

	result, err := backend.GarbageCollect(ctx, GCOptions{
		Retention: &RetentionConfig{MaxScans: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ScansDeleted)
	require.Equal(t, []string{"old"}, result.DeletedScanIDs)
	require.Empty(t, result.Errors)

	// Oldest scan is gone, newer scans remain
	_, err = scanStore.Get(ctx, "old")
	require.True(t, IsNotFound(err))
	_, err = scanStore.Get(ctx, "new")
	require.NoError(t, err)
}

func TestLocalBackend_GarbageCollect_MaxAge(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	now := time.Now()
	stale := &ScanMetadata{
		ID:        "stale",
		Target:    "https://example.com",
		Status:    string(StatusCompleted),
		StartedAt: now.AddDate(0, 0, -30),
	}
	fresh := &ScanMetadata{
		ID:        "fresh",
		Target:    "https://example.com",
		Status:    string(StatusCompleted),
		StartedAt: now,
	}
	require.NoError(t, scanStore.Create(ctx, stale))
	require.NoError(t, scanStore.Create(ctx, fresh))

	result, err := backend.GarbageCollect(ctx, GCOptions{
		Retention: &RetentionConfig{MaxAgeDays: 7},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ScansDeleted)
	require.Equal(t, []string{"stale"}, result.DeletedScanIDs)

	_, err = scanStore.Get(ctx, "fresh")
	require.NoError(t, err)
}

func TestLocalBackend_GarbageCollect_DryRun(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:        "scan-1",
		Target:    "https://example.com",
		Status:    string(StatusCompleted),
		StartedAt: time.Now().AddDate(0, 0, -30),
	}
	require.NoError(t, scanStore.Create(ctx, scan))

	result, err := backend.GarbageCollect(ctx, GCOptions{
		DryRun:    true,
		Retention: &RetentionConfig{MaxAgeDays: 7},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ScansDeleted)

	// Dry run must not delete anything
	_, err = scanStore.Get(ctx, "scan-1")
	require.NoError(t, err)
}

func TestLocalBackend_GarbageCollect_Disabled(t *testing.T) {
	ctx := context.Background()
	backend := setupTestBackend(t)
	scanStore := backend.Scans()

	scan := &ScanMetadata{
		ID:        "scan-1",
		Target:    "https://example.com",
		Status:    string(StatusCompleted),
		StartedAt: time.Now().AddDate(0, 0, -365),
	}
	require.NoError(t, scanStore.Create(ctx, scan))

	result, err := backend.GarbageCollect(ctx, GCOptions{})
	require.NoError(t, err)
	require.Zero(t, result.ScansDeleted)

	_, err = scanStore.Get(ctx, "scan-1")
	require.NoError(t, err)
}

// Helper function to set up a test backend
func setupTestBackend(t *testing.T) *LocalBackend {
	t.Helper()

	ctx := context.Background()
	tmpDir := t.TempDir()

	backend, err := NewLocalBackend(ctx, &Config{
		Root: tmpDir,
	})
	require.NoError(t, err)

	err = backend.Initialize(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = backend.Close()
	})

	return backend
}
