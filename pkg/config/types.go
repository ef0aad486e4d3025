// pkg/config/types.go
package config

import "time"

// Config is the merged application configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Scan    ScanConfig    `koanf:"scan"`
	Storage StorageConfig `koanf:"storage"`
}

// LogConfig controls the zerolog global logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "text" (console writer) or "json".
	Format string `koanf:"format"`
	// File is an optional log file path; empty logs to stderr.
	File string `koanf:"file"`
}

// ScanConfig carries the scan defaults that flags and env can override.
type ScanConfig struct {
	// Timeout bounds the whole scan.
	Timeout time.Duration `koanf:"timeout"`
	// RequestTimeout bounds a single probe request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// MaxPayloads caps payloads per check.
	MaxPayloads int `koanf:"max_payloads"`
	// Concurrency is the category worker pool size; 0 runs all categories
	// in parallel.
	Concurrency int `koanf:"concurrency"`
	// FollowRedirects controls whether probes follow 3xx responses.
	FollowRedirects bool `koanf:"follow_redirects"`
	// Preflight enables the ICMP reachability check before scanning.
	Preflight bool `koanf:"preflight"`
}

// StorageConfig controls report persistence.
type StorageConfig struct {
	// Dir is the workspace root; empty selects the platform default.
	Dir string `koanf:"dir"`
	// MaxScans bounds how many stored scans are retained per target; 0
	// keeps everything.
	MaxScans int `koanf:"max_scans"`
}
