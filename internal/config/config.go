// Package config provides unified configuration loading for randosim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dir is the configuration directory under the user's home.
const Dir = ".randosim"

// RandosimConfig contains all randosim configuration settings.
type RandosimConfig struct {
	// Simulation contains settings for the run orchestrator.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational logging and run traces.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP contains settings for the MCP server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// SimulationConfig configures how runs are scheduled and seeded.
type SimulationConfig struct {
	// Workers bounds concurrent runs. 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`

	// Seed is the base seed for every run. 0 draws a fresh seed per invocation.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// LoggingConfig configures randosim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables run tracing to <trace_dir>/trace.jsonl.
	// "trace" additionally records every choice and found item.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where trace.jsonl is written. Supports ${VAR} syntax.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// MCPConfig bounds the work a single MCP client can request.
type MCPConfig struct {
	// SimulatePerMinute is the randosim_simulate rate limit.
	SimulatePerMinute int `json:"simulate_per_minute" yaml:"simulate_per_minute"`

	// MaxRuns caps the total runs of one randosim_simulate call.
	MaxRuns int `json:"max_runs" yaml:"max_runs"`
}

// Default returns a RandosimConfig with sensible defaults.
func Default() *RandosimConfig {
	return &RandosimConfig{
		Simulation: SimulationConfig{
			Workers: 0,
			Seed:    0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		MCP: MCPConfig{
			SimulatePerMinute: 10,
			MaxRuns:           100000,
		},
	}
}

// Path returns ~/.randosim/config.yaml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, Dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.randosim/config.yaml -> environment variables
func Load() (*RandosimConfig, error) {
	config := Default()

	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*RandosimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// Save writes the configuration to path, creating its directory.
func Save(cfg *RandosimConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// TraceDirOrDefault returns the configured trace directory, falling back to
// ~/.randosim/traces.
func (c *RandosimConfig) TraceDirOrDefault() string {
	if c.Logging.TraceDir != "" {
		return c.Logging.TraceDir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "randosim-traces")
	}
	return filepath.Join(homeDir, Dir, "traces")
}

// Validate checks that the configuration is valid.
func (c *RandosimConfig) Validate() error {
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Simulation.Workers)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.MCP.SimulatePerMinute <= 0 {
		return fmt.Errorf("simulate_per_minute must be positive, got %d", c.MCP.SimulatePerMinute)
	}
	if c.MCP.MaxRuns <= 0 {
		return fmt.Errorf("max_runs must be positive, got %d", c.MCP.MaxRuns)
	}

	return nil
}

// Get retrieves a configuration value by dot-notation key.
func (c *RandosimConfig) Get(key string) (any, bool) {
	switch key {
	case "simulation.workers":
		return c.Simulation.Workers, true
	case "simulation.seed":
		return c.Simulation.Seed, true
	case "logging.level":
		return c.Logging.Level, true
	case "logging.trace_dir":
		return c.Logging.TraceDir, true
	case "mcp.simulate_per_minute":
		return c.MCP.SimulatePerMinute, true
	case "mcp.max_runs":
		return c.MCP.MaxRuns, true
	default:
		return nil, false
	}
}

// Set assigns a configuration value by dot-notation key.
func (c *RandosimConfig) Set(key, value string) error {
	switch key {
	case "simulation.workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid workers: %s (must be a non-negative integer)", value)
		}
		c.Simulation.Workers = n
	case "simulation.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s (must be an unsigned integer)", value)
		}
		c.Simulation.Seed = n
	case "logging.level":
		validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
		if !validLevels[value] {
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", value)
		}
		c.Logging.Level = value
	case "logging.trace_dir":
		c.Logging.TraceDir = value
	case "mcp.simulate_per_minute":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid simulate_per_minute: %s (must be a positive integer)", value)
		}
		c.MCP.SimulatePerMinute = n
	case "mcp.max_runs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_runs: %s (must be a positive integer)", value)
		}
		c.MCP.MaxRuns = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// Keys lists every key Get and Set understand, in display order.
func Keys() []string {
	return []string{
		"simulation.workers",
		"simulation.seed",
		"logging.level",
		"logging.trace_dir",
		"mcp.simulate_per_minute",
		"mcp.max_runs",
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *RandosimConfig) {
	if v := os.Getenv("RANDOSIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("RANDOSIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("RANDOSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("RANDOSIM_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
