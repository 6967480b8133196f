// Package main provides the paddock command line: simulate race days, allocate
// the daily bankroll and run both on a schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/metrics"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

// errConfig marks failures to load or validate configuration
var errConfig = errors.New("configuration error")

var rootCmd = &cobra.Command{
	Use:   "paddock",
	Short: "Race outcome simulator and daily budget allocator",
	Long: `paddock simulates every race of a day from per-runner strength parameters,
stores the resulting finish-order probabilities and splits a daily bankroll
across races with fractional Kelly sizing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return loadConfig(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(newSimulateCmd(), newAllocateCmd(), newRunCmd(), newScheduleCmd(), newParamsCmd(), newVersionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads, overlays and validates configuration and sets up logging
func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	if config.SecretsEnabled(cfg) {
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return fmt.Errorf("%w: failed to load secrets: %v", errConfig, err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"config":      configFile,
	}).Debug("Configuration loaded")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paddock %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
