package mcp

import "github.com/nvandessel/randosim/internal/game"

// SimulateInput defines the input for the randosim_simulate tool. Each
// document may be given as a path or inline as YAML/JSON text.
type SimulateInput struct {
	Game           string   `json:"game,omitempty" jsonschema:"Path to the game description file"`
	GameText       string   `json:"game_text,omitempty" jsonschema:"Inline game description (YAML or JSON)"`
	Simulation     string   `json:"simulation,omitempty" jsonschema:"Path to the simulation spec file"`
	SimulationText string   `json:"simulation_text,omitempty" jsonschema:"Inline simulation spec (YAML or JSON)"`
	Choices        []string `json:"choices,omitempty" jsonschema:"Paths to choice files"`
	ChoicesText    []string `json:"choices_text,omitempty" jsonschema:"Inline choice documents (YAML or JSON), named inline-0, inline-1, ..."`
	Seed           uint64   `json:"seed,omitempty" jsonschema:"Base seed; 0 uses the configured seed or a fresh random one"`
	Workers        int      `json:"workers,omitempty" jsonschema:"Concurrent runs; 0 uses the configured worker count"`
	IncludeRuns    bool     `json:"include_runs,omitempty" jsonschema:"Include every raw run report in the result tree (default: false)"`
}

// SimulateOutput defines the output for the randosim_simulate tool.
type SimulateOutput struct {
	Seed     uint64         `json:"seed" jsonschema:"Base seed used; pass it back to reproduce the result"`
	Runs     int            `json:"runs" jsonschema:"Number of runs that reached an end state"`
	Failures int            `json:"failures" jsonschema:"Number of runs that failed and were left out of the statistics"`
	Report   map[string]any `json:"report" jsonschema:"Aggregated report tree keyed by file, simulation label and report label"`
}

// OptionsInput defines the input for the randosim_options tool.
type OptionsInput struct {
	Game        string `json:"game,omitempty" jsonschema:"Path to the game description file"`
	GameText    string `json:"game_text,omitempty" jsonschema:"Inline game description (YAML or JSON)"`
	Choices     string `json:"choices,omitempty" jsonschema:"Path to a choice file"`
	ChoicesText string `json:"choices_text,omitempty" jsonschema:"Inline choice document (YAML or JSON)"`
}

// OptionsOutput defines the output for the randosim_options tool.
type OptionsOutput struct {
	Options game.Options `json:"options" jsonschema:"Structured option listing"`
	Text    string       `json:"text" jsonschema:"Human-readable option listing"`
}
