package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nvandessel/randosim/internal/config"
	"github.com/nvandessel/randosim/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "randosim",
		Short: "Playthrough simulator for randomized-item games",
		Long: `randosim plays a randomized game many times under configurable
choice policies and reports how often qualitative events happen.

A game description lists findables, unlockables and their requirements.
A simulation spec lists scenarios, end states and reports. Each choice
file is one randomizer output: which item sits behind which slot.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (default from config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newOptionsCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadSettings loads the configuration and applies the --log-level flag.
func loadSettings(cmd *cobra.Command) (*config.RandosimConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if err := cfg.Set("logging.level", level); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newCmdLogger builds the stderr logger for a command.
func newCmdLogger(cmd *cobra.Command, cfg *config.RandosimConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
