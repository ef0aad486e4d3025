package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type contextKey string

const configKey contextKey = "storage-config"

// WithConfig attaches a storage config to the context so subcommands can
// open the backend lazily.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFromContext retrieves the storage config set by WithConfig.
// The second return value is false when storage is disabled for the run.
func ConfigFromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok && cfg != nil
}

// DefaultConfig returns the standard configuration: scan history under
// the user's home directory with a bounded number of kept scans.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Config{
		Root: filepath.Join(home, ".tenprobe"),
		Retention: RetentionConfig{
			MaxScans: 50,
		},
	}, nil
}
