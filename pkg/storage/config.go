package storage

import (
	"context"
	"errors"
	"fmt"
)

// Config holds settings for a storage backend.
type Config struct {
	// Root is the directory the backend keeps its data under.
	Root string

	// Retention is the garbage collection policy applied to old scans.
	Retention RetentionConfig
}

// Validate checks the config for required fields.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("storage root directory is required")
	}
	if c.Retention.MaxScans < 0 {
		return fmt.Errorf("retention max scans must not be negative, got %d", c.Retention.MaxScans)
	}
	if c.Retention.MaxAgeDays < 0 {
		return fmt.Errorf("retention max age must not be negative, got %d", c.Retention.MaxAgeDays)
	}
	return nil
}

// RetentionConfig defines how long scan history is kept.
//
// A zero value for either field disables that policy.
type RetentionConfig struct {
	// MaxScans is the number of scans to keep. When exceeded, the
	// oldest scans are deleted first.
	MaxScans int

	// MaxAgeDays deletes scans started more than this many days ago.
	MaxAgeDays int
}

// IsEnabled reports whether any retention policy is active.
func (r RetentionConfig) IsEnabled() bool {
	return r.MaxScans > 0 || r.MaxAgeDays > 0
}

// BackendFactory constructs a Backend from a Config.
type BackendFactory func(ctx context.Context, cfg *Config) (Backend, error)

// DefaultFactory is the factory used by Open. LocalBackend registers
// itself here in init.
var DefaultFactory BackendFactory

// Open constructs and initializes a backend using DefaultFactory.
func Open(ctx context.Context, cfg *Config) (Backend, error) {
	if DefaultFactory == nil {
		return nil, errors.New("no storage backend registered")
	}
	backend, err := DefaultFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := backend.Initialize(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("initialize storage backend: %w", err)
	}
	return backend, nil
}
