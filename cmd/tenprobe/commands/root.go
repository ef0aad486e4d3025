// cmd/tenprobe/commands/root.go
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/pkg/config"
	"github.com/tenprobe/tenprobe/pkg/storage"

	// Register the test modules for every category.
	_ "github.com/tenprobe/tenprobe/pkg/modules"
)

// Build metadata, injected via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	groupScan       = "scan"
	groupManagement = "management"
)

var (
	configFile     string
	storageDir     string
	storageDisable bool
	verbosity      int

	logCloser func() error
)

// NewCommand builds the tenprobe root command with all subcommands and
// persistent flags attached.
func NewCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tenprobe",
		Short: "Web application scanner for the OWASP Top 10",
		Long: `Tenprobe probes a web application for the OWASP Top 10 (2021) risk
categories using safe, non-destructive checks and reports its findings
with severity, confidence, and remediation guidance.`,
		SilenceUsage: true,
		// Commands render their own errors through the output pipeline;
		// cobra printing them again would duplicate every message.
		SilenceErrors:     true,
		PersistentPreRunE: setupRuntime,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser()
			}
			return nil
		},
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: groupScan, Title: "Scanning Commands:"},
		&cobra.Group{ID: groupManagement, Title: "Management Commands:"},
	)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ./tenprobe.yaml, ~/.config/tenprobe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Directory for scan history (default: ~/.tenprobe)")
	rootCmd.PersistentFlags().BoolVar(&storageDisable, "no-storage", false, "Disable scan history persistence")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbosity", "v", "Increase diagnostic verbosity (-v, -vv, -vvv)")
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newScanCommand(),
		newModulesCommand(),
		newScansCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// setupRuntime loads configuration, configures logging, and attaches the
// storage config to the command context before any subcommand runs.
func setupRuntime(cmd *cobra.Command, args []string) error {
	manager := config.NewManager()
	if err := manager.Load(cmd.Flags(), configFile); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := manager.Get()

	closer, err := config.SetupLogging(cfg.Log)
	if err != nil {
		return err
	}
	logCloser = closer

	// -v raises the zerolog level alongside the diagnostic subscriber, so
	// component logs and diag output stay in step.
	switch {
	case verbosity >= 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := withRunConfig(cmd.Context(), cfg)

	if !storageDisable {
		storageCfg, err := resolveStorageConfig(cfg.Storage)
		if err != nil {
			log.Warn().Str("component", "cli").Err(err).
				Msg("Storage unavailable, scan history disabled for this run")
		} else {
			ctx = storage.WithConfig(ctx, storageCfg)
		}
	}

	cmd.SetContext(ctx)
	return nil
}

// resolveStorageConfig merges the --storage-dir flag over the file and
// environment configuration, falling back to the platform default root.
func resolveStorageConfig(cfg config.StorageConfig) (*storage.Config, error) {
	storageCfg, err := storage.DefaultConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Dir != "" {
		storageCfg.Root = cfg.Dir
	}
	if storageDir != "" {
		storageCfg.Root = storageDir
	}
	storageCfg.Retention.MaxScans = cfg.MaxScans
	return storageCfg, nil
}

type runConfigKey struct{}

func withRunConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, runConfigKey{}, cfg)
}

// runConfigFromContext returns the merged configuration loaded during
// PersistentPreRunE, or the hardcoded defaults when absent (tests).
func runConfigFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(runConfigKey{}).(config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: groupManagement,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tenprobe %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
