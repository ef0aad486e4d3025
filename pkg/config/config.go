// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // To protect currentConfig during runtime updates
}

// NewManager creates a new Manager.
// It initializes the global Koanf instance if not already done.
func NewManager() *Manager {
	InitGlobalConfig() // Ensure global k is initialized
	return &Manager{
		koanfInstance: k, // Use the global instance
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info", // Default log level
			Format: "text", // Default log format
			File:   "",     // Default log file path
		},
		Scan: ScanConfig{
			Timeout:         5 * time.Minute,
			RequestTimeout:  10 * time.Second,
			MaxPayloads:     8,
			Concurrency:     0,
			FollowRedirects: false,
			Preflight:       false,
		},
		Storage: StorageConfig{
			Dir:      "",
			MaxScans: 50,
		},
	}
}

// Load loads configuration from various sources based on precedence.
// It populates the manager's currentConfig.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags (--log.level=debug)
//  2. Environment variables (TENPROBE_LOG_LEVEL=debug)
//  3. Config file (YAML)
//  4. Default values
//
// Environment variables use TENPROBE_ prefix and underscore-to-dot mapping:
//
//	TENPROBE_LOG_LEVEL      -> log.level
//	TENPROBE_SCAN_TIMEOUT   -> scan.timeout
//
// For custom source ordering, use LoadWithSources() instead.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	// Check debug flag before creating sources
	debug := false
	if flags != nil {
		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			debug = true
		}
	}

	sources := DefaultSources(customConfigFilePath, flags, debug)
	return m.LoadWithSources(sources)
}

// LoadWithSources loads configuration from the provided sources in priority order.
// Sources with lower priority values are loaded first, higher priority sources
// override lower priority values.
//
// This method allows custom source ordering and additional sources (e.g., system
// config, secrets manager) to be inserted into the loading chain.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Sort sources by priority (lowest first)
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	// Load each source in order
	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	// Unmarshal the final merged configuration into m.currentConfig
	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// GetValue retrieves a configuration value by key path.
// Example: GetValue("scan.max_payloads")
// Returns nil if key doesn't exist.
func (m *Manager) GetValue(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Get(key)
}

// Typed accessors for ad hoc key lookups. Values are coerced, so a
// "90s" string read from YAML or an env var comes back as a Duration.

func (m *Manager) GetString(key string) string {
	return cast.ToString(m.GetValue(key))
}

func (m *Manager) GetInt(key string) int {
	return cast.ToInt(m.GetValue(key))
}

func (m *Manager) GetBool(key string) bool {
	return cast.ToBool(m.GetValue(key))
}

func (m *Manager) GetDuration(key string) time.Duration {
	return cast.ToDuration(m.GetValue(key))
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map for
// Koanf's confmap.Provider, so Koanf knows all keys up front.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Scan configuration
		"scan.timeout":          def.Scan.Timeout,
		"scan.request_timeout":  def.Scan.RequestTimeout,
		"scan.max_payloads":     def.Scan.MaxPayloads,
		"scan.concurrency":      def.Scan.Concurrency,
		"scan.follow_redirects": def.Scan.FollowRedirects,
		"scan.preflight":        def.Scan.Preflight,

		// Storage configuration
		"storage.dir":       def.Storage.Dir,
		"storage.max_scans": def.Storage.MaxScans,
	}
}

// BindFlags defines command-line flags corresponding to configuration settings.
// These flags allow overriding config file / environment variable settings.
// This function should be called when setting up Cobra commands.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")

	// Note: The main --config / -c flag for specifying the config file path
	// is typically defined directly on the root Cobra command's PersistentFlags.
}
