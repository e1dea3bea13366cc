package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/randosim/internal/config"
	"github.com/nvandessel/randosim/internal/game"
	"github.com/nvandessel/randosim/internal/loader"
	"github.com/nvandessel/randosim/internal/logging"
	"github.com/nvandessel/randosim/internal/simulation"
	"github.com/nvandessel/randosim/internal/summary"
)

const (
	allFiles       = "<all files>"
	allSimulations = "<all simulations>"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <game> <simulation> <choices>...",
		Short: "Simulate playthroughs and report category statistics",
		Long: `Play every scenario of the simulation spec against each choice file and
print the qualitative reports.

Reports are printed per choice file and scenario, then per scenario across
all choice files, then across everything. Runs that fail are left out of the
statistics and reported on stderr.

Examples:
  randosim run game.yaml sim.yaml seed-*.yaml
  randosim run game.yaml sim.yaml seed-1.yaml --seed 42 --workers 4
  randosim run game.yaml sim.yaml seed-1.yaml --json --include-runs`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			includeRuns, _ := cmd.Flags().GetBool("include-runs")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			logger := newCmdLogger(cmd, cfg)

			desc, err := loader.LoadGame(args[0])
			if err != nil {
				return err
			}
			g, err := game.Compile(desc)
			if err != nil {
				return fmt.Errorf("invalid game %s: %w", args[0], err)
			}
			spec, err := loader.LoadSimulation(args[1])
			if err != nil {
				return err
			}
			files, err := loader.LoadChoiceFiles(args[2:])
			if err != nil {
				return err
			}
			for _, f := range files {
				logOptions(logger, g, f)
			}

			seed := cfg.Simulation.Seed
			if seed == 0 {
				if seed, err = simulation.NewSeed(); err != nil {
					return err
				}
			}

			trace := logging.NewTraceLogger(cfg.TraceDirOrDefault(), cfg.Logging.Level)
			defer trace.Close()

			sim, err := simulation.NewSimulator(g, spec, simulation.Options{
				Workers:  cfg.Simulation.Workers,
				Seed:     seed,
				Observer: simulation.MultiObserver(trace, logging.NewSlogObserver(logger)),
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := sim.Run(ctx, files)
			if err != nil {
				return err
			}

			if n := report.Failures(); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d runs failed and were left out of the statistics\n", n, n+report.Runs())
			}

			if jsonOut {
				tree := report.Tree()
				if !includeRuns {
					simulation.PruneRuns(tree)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().Int("workers", 0, "Concurrent runs (default from config, 0 = all CPUs)")
	cmd.Flags().Uint64("seed", 0, "Base seed (default from config, 0 = random)")
	cmd.Flags().String("trace-dir", "", "Directory for trace.jsonl at debug/trace level")
	cmd.Flags().Bool("include-runs", false, "Include every run report in JSON output")

	return cmd
}

// applyRunFlags lets explicitly set flags override the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.RandosimConfig) error {
	for flag, key := range map[string]string{
		"workers":   "simulation.workers",
		"seed":      "simulation.seed",
		"trace-dir": "logging.trace_dir",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if err := cfg.Set(key, cmd.Flags().Lookup(flag).Value.String()); err != nil {
			return err
		}
	}
	return nil
}

func logOptions(logger *slog.Logger, g *game.Game, f simulation.ChoiceFile) {
	opts := game.DescribeOptions(g, &f.Choices)
	logger.Info("choice file",
		"file", f.Name,
		"assigned", len(opts.Assigned),
		"unassigned", len(opts.Unassigned),
	)
	logger.Debug("choice file options", "file", f.Name, "listing", opts.String())
}

// printReport writes one YAML block per summary, headed by tab-separated
// file, simulation and report labels.
func printReport(w io.Writer, report *simulation.Report) error {
	if _, err := fmt.Fprintf(w, "seed: %d\n\n", report.Seed); err != nil {
		return err
	}
	block := func(file, sim string, summaries map[string]summary.Summary) error {
		for _, label := range report.ReportLabels {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", file, sim, label); err != nil {
				return err
			}
			data, err := yaml.Marshal(summaries[label])
			if err != nil {
				return fmt.Errorf("failed to render report %s: %w", label, err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return err
			}
		}
		return nil
	}

	for _, f := range report.Files {
		for _, s := range f.Scenarios {
			if err := block(f.Name, s.Label, s.Summaries); err != nil {
				return err
			}
		}
		if err := block(f.Name, allSimulations, f.Summaries); err != nil {
			return err
		}
	}
	for _, s := range report.Scenarios {
		if err := block(allFiles, s.Label, s.Summaries); err != nil {
			return err
		}
	}
	return block(allFiles, allSimulations, report.Summaries)
}
