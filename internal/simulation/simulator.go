package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/randosim/internal/game"
	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/policy"
	"github.com/nvandessel/randosim/internal/summary"
	"github.com/nvandessel/randosim/internal/tracker"
)

// Options configures a Simulator.
type Options struct {
	// Workers bounds concurrent runs. Zero means GOMAXPROCS.
	Workers int
	// Seed is the base seed every run's random source is derived from.
	Seed uint64
	// Observer receives every run event. It must be safe for concurrent use.
	Observer Observer
	// Logger receives progress logging. Nil discards it.
	Logger *slog.Logger
}

// ChoiceFile is one random assignment of items to slots.
type ChoiceFile struct {
	Name    string
	Choices models.Choices
}

type scenario struct {
	index  int
	label  string
	count  int
	policy policy.Policy
}

// Simulator plays every scenario of a simulation spec against choice files.
// The game and compiled specs are shared read-only across runs.
type Simulator struct {
	game      *game.Game
	endStates []string
	scenarios []scenario
	reports   []tracker.Spec
	labels    []string
	opts      Options
	logger    *slog.Logger
}

// NewSimulator compiles the policies and reports of spec. Unknown policy
// types, malformed category conditions, and duplicate scenario labels are
// rejected before any run starts.
func NewSimulator(g *game.Game, spec models.SimulationSpec, opts Options) (*Simulator, error) {
	if g == nil {
		return nil, fmt.Errorf("simulator: nil game")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Simulator{
		game:      g,
		endStates: append([]string(nil), spec.EndStates...),
		opts:      opts,
		logger:    logger,
	}

	seen := make(map[string]bool, len(spec.Simulations))
	for i, sc := range spec.Simulations {
		label := sc.LabelOr(i)
		if seen[label] {
			return nil, fmt.Errorf("simulation %d: duplicate label %q", i, label)
		}
		seen[label] = true
		p, err := policy.New(sc)
		if err != nil {
			return nil, fmt.Errorf("simulation %q: %w", label, err)
		}
		s.scenarios = append(s.scenarios, scenario{index: i, label: label, count: sc.RunCount(), policy: p})
	}

	reportSeen := make(map[string]bool, len(spec.Reports))
	for _, r := range spec.Reports {
		if reportSeen[r.Label] {
			return nil, fmt.Errorf("report %q: duplicate label", r.Label)
		}
		reportSeen[r.Label] = true
		compiled, err := tracker.CompileSpec(r)
		if err != nil {
			return nil, err
		}
		s.reports = append(s.reports, compiled)
		s.labels = append(s.labels, r.Label)
	}
	return s, nil
}

// ReportLabels returns the report labels in spec order.
func (s *Simulator) ReportLabels() []string { return append([]string(nil), s.labels...) }

type outcome struct {
	report RunReport
	err    error
}

// Run plays count runs of every scenario against every choice file and
// aggregates them. A failing run is recorded in its scenario result and does
// not stop the others; only cancellation of ctx aborts Run.
func (s *Simulator) Run(ctx context.Context, files []ChoiceFile) (*Report, error) {
	// results[file][scenario][run]
	results := make([][][]outcome, len(files))
	for fi := range files {
		results[fi] = make([][]outcome, len(s.scenarios))
		for si, sc := range s.scenarios {
			results[fi][si] = make([]outcome, sc.count)
		}
	}

	s.logger.Info("simulating",
		"files", len(files),
		"simulations", len(s.scenarios),
		"workers", s.opts.Workers,
		"seed", s.opts.Seed,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

dispatch:
	for fi, file := range files {
		for si, sc := range s.scenarios {
			for ri := 0; ri < sc.count; ri++ {
				if gctx.Err() != nil {
					break dispatch
				}
				g.Go(func() error {
					run := NewRun(RunConfig{
						Game:      s.game,
						Choices:   file.Choices,
						EndStates: s.endStates,
						Policy:    sc.policy,
						Reports:   s.reports,
						RNG:       RunRNG(s.opts.Seed, fi, si, ri),
						Observer:  s.opts.Observer,
						File:      file.Name,
						Scenario:  sc.label,
						Index:     ri,
					})
					rep, err := run.Play(gctx)
					results[fi][si][ri] = outcome{report: rep, err: err}
					if err != nil {
						if ctxErr := ctx.Err(); ctxErr != nil {
							return ctxErr
						}
						s.logger.Warn("run failed",
							"file", file.Name,
							"simulation", sc.label,
							"run", ri,
							"error", err,
						)
						return nil
					}
					s.logger.Debug("run finished",
						"file", file.Name,
						"simulation", sc.label,
						"run", ri,
						"choices", rep.ChoiceCount,
					)
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation canceled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulation canceled: %w", err)
	}

	return s.aggregate(files, results), nil
}

func (s *Simulator) aggregate(files []ChoiceFile, results [][][]outcome) *Report {
	rep := &Report{
		Seed:         s.opts.Seed,
		ReportLabels: s.ReportLabels(),
		Files:        make([]FileReport, 0, len(files)),
	}

	byScenario := make([][]map[string]summary.Summary, len(s.scenarios))
	var allFiles []map[string]summary.Summary

	for fi, file := range files {
		fr := FileReport{Name: file.Name}
		var fileLevel []map[string]summary.Summary

		for si, sc := range s.scenarios {
			sr := ScenarioResult{Index: sc.index, Label: sc.label}
			for ri, o := range results[fi][si] {
				if o.err != nil {
					sr.Failures = append(sr.Failures, RunFailure{Index: ri, Error: o.err.Error(), Choices: o.report.Choices})
					continue
				}
				sr.Runs = append(sr.Runs, o.report)
			}
			sr.Summaries = s.summarizeRuns(sr.Runs)
			fr.Scenarios = append(fr.Scenarios, sr)
			fileLevel = append(fileLevel, sr.Summaries)
			byScenario[si] = append(byScenario[si], sr.Summaries)

			s.logger.Info("simulation summarized",
				"file", file.Name,
				"simulation", sc.label,
				"runs", len(sr.Runs),
				"failures", len(sr.Failures),
			)
		}

		fr.Summaries = s.mergeLevel(fileLevel)
		allFiles = append(allFiles, fr.Summaries)
		rep.Files = append(rep.Files, fr)
	}

	for si, sc := range s.scenarios {
		rep.Scenarios = append(rep.Scenarios, ScenarioAggregate{
			Label:     sc.label,
			Summaries: s.mergeLevel(byScenario[si]),
		})
	}
	rep.Summaries = s.mergeLevel(allFiles)
	return rep
}

func (s *Simulator) summarizeRuns(runs []RunReport) map[string]summary.Summary {
	out := make(map[string]summary.Summary, len(s.labels))
	for _, label := range s.labels {
		cats := make([][]string, 0, len(runs))
		for _, r := range runs {
			cats = append(cats, r.Categories[label])
		}
		out[label] = summary.Summarize(cats)
	}
	return out
}

func (s *Simulator) mergeLevel(levels []map[string]summary.Summary) map[string]summary.Summary {
	out := make(map[string]summary.Summary, len(s.labels))
	for _, label := range s.labels {
		parts := make([]summary.Summary, 0, len(levels))
		for _, l := range levels {
			parts = append(parts, l[label])
		}
		out[label] = summary.MergeAll(parts...)
	}
	return out
}
