// Package cli implements the climarisk command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/propshield/climarisk/internal/config"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	ServerAddr   string
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	ServerAddr   string
	Timeout      time.Duration
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "climarisk",
		Short:   "Multi-source climate hazard risk scoring for properties",
		Long:    "climarisk aggregates climate hazard data from multiple providers into a\nsingle weighted risk assessment per property, with per-hazard scores,\nconfidence estimation, and weather-context adjustment.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./climarisk.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVar(&opts.ServerAddr, "server", "http://localhost:8080", "API server address")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")

	cmd.AddCommand(
		NewAssessCmd(),
		NewStatsCmd(),
		NewServeCmd(),
		NewMigrateCmd(),
	)
	return cmd
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		ServerAddr:   opts.ServerAddr,
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flag > search paths > env.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./climarisk.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".climarisk", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/climarisk/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts the CLIContext placed by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	v := cmd.Context().Value(cliContextKey{})
	cliCtx, ok := v.(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context is not initialized")
	}
	return cliCtx, nil
}

// printResult renders v according to the selected output format.  Each
// command supplies its own text renderer.
func printResult(cmd *cobra.Command, cliCtx *CLIContext, v interface{}, text func()) error {
	if cliCtx.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}
