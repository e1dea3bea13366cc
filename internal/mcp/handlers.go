package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/randosim/internal/game"
	"github.com/nvandessel/randosim/internal/loader"
	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/ratelimit"
	"github.com/nvandessel/randosim/internal/simulation"
)

// registerTools registers all randosim MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSimulate,
		Description: "Play every simulation scenario against each choice file and return aggregated category statistics",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolOptions,
		Description: "List the unlockables, findables and initial slots of a game, or how a choice file fills them",
	}, s.handleOptions)

	return nil
}

// handleSimulate implements the randosim_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	runs := 0
	defer func() {
		s.auditTool(ratelimit.ToolSimulate, start, retErr, runs, sanitizeToolParams(map[string]any{
			"game": args.Game, "game_text": args.GameText,
			"simulation": args.Simulation, "simulation_text": args.SimulationText,
			"choices": args.Choices, "choices_text": args.ChoicesText,
			"choice_files": len(args.Choices) + len(args.ChoicesText),
			"seed":         args.Seed, "workers": args.Workers, "include_runs": args.IncludeRuns,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}
	if err := s.checkPaths(append([]string{args.Game, args.Simulation}, args.Choices...)...); err != nil {
		return nil, SimulateOutput{}, err
	}

	g, err := loadGameInput(args.Game, args.GameText)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	spec, err := loadSimulationInput(args.Simulation, args.SimulationText)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	files, err := loadChoiceInputs(args.Choices, args.ChoicesText)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	total := 0
	for _, sc := range spec.Simulations {
		total += sc.RunCount() * len(files)
	}
	if limit := s.settings.MCP.MaxRuns; limit > 0 && total > limit {
		return nil, SimulateOutput{}, fmt.Errorf("simulation requests %d runs, limit is %d", total, limit)
	}

	seed := args.Seed
	if seed == 0 {
		seed = s.settings.Simulation.Seed
	}
	if seed == 0 {
		if seed, err = simulation.NewSeed(); err != nil {
			return nil, SimulateOutput{}, err
		}
	}
	workers := args.Workers
	if workers <= 0 {
		workers = s.settings.Simulation.Workers
	}

	sim, err := simulation.NewSimulator(g, spec, simulation.Options{
		Workers: workers,
		Seed:    seed,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	report, err := sim.Run(ctx, files)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	runs = report.Runs()

	tree := report.Tree()
	if !args.IncludeRuns {
		simulation.PruneRuns(tree)
	}

	return nil, SimulateOutput{
		Seed:     seed,
		Runs:     runs,
		Failures: report.Failures(),
		Report:   tree,
	}, nil
}

// handleOptions implements the randosim_options tool.
func (s *Server) handleOptions(ctx context.Context, req *sdk.CallToolRequest, args OptionsInput) (_ *sdk.CallToolResult, _ OptionsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolOptions, start, retErr, 0, sanitizeToolParams(map[string]any{
			"game": args.Game, "game_text": args.GameText,
			"choices": args.Choices, "choices_text": args.ChoicesText,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolOptions); err != nil {
		return nil, OptionsOutput{}, err
	}
	if err := s.checkPaths(args.Game, args.Choices); err != nil {
		return nil, OptionsOutput{}, err
	}

	g, err := loadGameInput(args.Game, args.GameText)
	if err != nil {
		return nil, OptionsOutput{}, err
	}

	var choices *models.Choices
	if args.Choices != "" || args.ChoicesText != "" {
		c, err := loadOne("choices", args.Choices, args.ChoicesText, loader.LoadChoices, loader.DecodeChoices)
		if err != nil {
			return nil, OptionsOutput{}, err
		}
		choices = &c
	}

	opts := game.DescribeOptions(g, choices)
	return nil, OptionsOutput{Options: opts, Text: opts.String()}, nil
}

// checkPaths validates every non-empty path against the allowlist.
func (s *Server) checkPaths(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.allowlist.Check(p); err != nil {
			return err
		}
	}
	return nil
}

func loadGameInput(path, text string) (*game.Game, error) {
	desc, err := loadOne("game", path, text, loader.LoadGame, loader.DecodeGame)
	if err != nil {
		return nil, err
	}
	return game.Compile(desc)
}

func loadSimulationInput(path, text string) (models.SimulationSpec, error) {
	return loadOne("simulation", path, text, loader.LoadSimulation, loader.DecodeSimulation)
}

// loadChoiceInputs reads choice files by path, then inline documents named
// inline-0, inline-1, and so on.
func loadChoiceInputs(paths, texts []string) ([]simulation.ChoiceFile, error) {
	if len(paths)+len(texts) == 0 {
		return nil, errors.New("at least one choice file is required")
	}
	files, err := loader.LoadChoiceFiles(paths)
	if err != nil {
		return nil, err
	}
	for i, text := range texts {
		c, err := loader.DecodeChoices([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("inline choices %d: %w", i, err)
		}
		files = append(files, simulation.ChoiceFile{Name: fmt.Sprintf("inline-%d", i), Choices: c})
	}
	return files, nil
}

// loadOne reads a document given either as a path or as inline text.
func loadOne[T any](name, path, text string, load func(string) (T, error), decode func([]byte) (T, error)) (T, error) {
	var zero T
	switch {
	case path != "" && text != "":
		return zero, fmt.Errorf("%s: give a path or inline text, not both", name)
	case path != "":
		return load(path)
	case text != "":
		v, err := decode([]byte(text))
		if err != nil {
			return zero, fmt.Errorf("inline %s: %w", name, err)
		}
		return v, nil
	default:
		return zero, fmt.Errorf("%s is required", name)
	}
}
