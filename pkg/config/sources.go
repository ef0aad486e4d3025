// pkg/config/sources.go
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the environment variable namespace, e.g. TENPROBE_LOG_LEVEL.
const envPrefix = "TENPROBE_"

// ConfigSource is one layer in the configuration chain. Sources load in
// ascending Priority order, so higher priorities override lower ones.
type ConfigSource interface {
	// Name identifies the source in error messages.
	Name() string
	// Priority orders the source in the chain; higher loads later.
	Priority() int
	// Load merges the source's values into the koanf instance.
	Load(k *koanf.Koanf) error
}

// Priorities of the built-in sources. Gaps leave room for custom sources.
const (
	PriorityDefaults = 0
	PriorityFile     = 10
	PriorityEnv      = 20
	PriorityFlags    = 30
	PriorityOverride = 40
)

// DefaultSources builds the standard chain: defaults, optional config
// file, environment, flags, and the debug override.
func DefaultSources(configFilePath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	sources := []ConfigSource{
		&defaultsSource{},
		&envSource{},
	}
	if configFilePath != "" {
		sources = append(sources, &fileSource{path: configFilePath})
	}
	if flags != nil {
		sources = append(sources, &flagSource{flags: flags})
	}
	if debug {
		sources = append(sources, &overrideSource{values: map[string]any{"log.level": "debug"}})
	}
	return sources
}

type defaultsSource struct{}

func (s *defaultsSource) Name() string  { return "defaults" }
func (s *defaultsSource) Priority() int { return PriorityDefaults }

func (s *defaultsSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

type fileSource struct {
	path string
}

func (s *fileSource) Name() string  { return "file:" + s.path }
func (s *fileSource) Priority() int { return PriorityFile }

func (s *fileSource) Load(k *koanf.Koanf) error {
	if _, err := os.Stat(s.path); err != nil {
		return err
	}
	return k.Load(file.Provider(s.path), yaml.Parser())
}

// envSource maps TENPROBE_LOG_LEVEL to log.level. Underscores become key
// delimiters, so env vars can only address single-word key segments.
type envSource struct{}

func (s *envSource) Name() string  { return "env" }
func (s *envSource) Priority() int { return PriorityEnv }

func (s *envSource) Load(k *koanf.Koanf) error {
	return k.Load(env.Provider(envPrefix, ".", func(raw string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(raw, envPrefix)), "_", ".")
	}), nil)
}

// flagSource merges a pflag set. Unchanged flags only fill keys no lower
// priority source has set, so env values survive flag defaults.
type flagSource struct {
	flags *pflag.FlagSet
}

func (s *flagSource) Name() string  { return "flags" }
func (s *flagSource) Priority() int { return PriorityFlags }

func (s *flagSource) Load(k *koanf.Koanf) error {
	return k.Load(posflag.Provider(s.flags, ".", k), nil)
}

// overrideSource force-sets fixed values, used by the --debug shortcut.
type overrideSource struct {
	values map[string]any
}

func (s *overrideSource) Name() string  { return "override" }
func (s *overrideSource) Priority() int { return PriorityOverride }

func (s *overrideSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(s.values, "."), nil)
}
