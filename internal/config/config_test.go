package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Workers != 0 {
		t.Errorf("expected Workers 0, got %d", config.Simulation.Workers)
	}
	if config.Simulation.Seed != 0 {
		t.Errorf("expected Seed 0, got %d", config.Simulation.Seed)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if config.MCP.SimulatePerMinute != 10 {
		t.Errorf("expected SimulatePerMinute 10, got %d", config.MCP.SimulatePerMinute)
	}
	if config.MCP.MaxRuns != 100000 {
		t.Errorf("expected MaxRuns 100000, got %d", config.MCP.MaxRuns)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  workers: 4
  seed: 12345
logging:
  level: debug
mcp:
  max_runs: 500
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.Workers != 4 {
		t.Errorf("expected Workers 4, got %d", config.Simulation.Workers)
	}
	if config.Simulation.Seed != 12345 {
		t.Errorf("expected Seed 12345, got %d", config.Simulation.Seed)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
	if config.MCP.MaxRuns != 500 {
		t.Errorf("expected MaxRuns 500, got %d", config.MCP.MaxRuns)
	}
	// Unset keys keep their defaults.
	if config.MCP.SimulatePerMinute != 10 {
		t.Errorf("expected SimulatePerMinute default 10, got %d", config.MCP.SimulatePerMinute)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  trace_dir: ${TEST_TRACE_ROOT}/traces
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_TRACE_ROOT", "/srv/randosim")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Logging.TraceDir != "/srv/randosim/traces" {
		t.Errorf("expected TraceDir '/srv/randosim/traces', got '%s'", config.Logging.TraceDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RANDOSIM_WORKERS", "3")
	t.Setenv("RANDOSIM_SEED", "42")
	t.Setenv("RANDOSIM_LOG_LEVEL", "trace")
	t.Setenv("RANDOSIM_TRACE_DIR", "/tmp/traces")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Workers != 3 {
		t.Errorf("expected Workers 3, got %d", config.Simulation.Workers)
	}
	if config.Simulation.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Simulation.Seed)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
	if config.Logging.TraceDir != "/tmp/traces" {
		t.Errorf("expected TraceDir '/tmp/traces', got '%s'", config.Logging.TraceDir)
	}
}

func TestEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("RANDOSIM_WORKERS", "many")
	t.Setenv("RANDOSIM_SEED", "-1")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Workers != 0 || config.Simulation.Seed != 0 {
		t.Errorf("unparseable env values should be ignored, got %+v", config.Simulation)
	}
}

func TestLoad_FromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RANDOSIM_WORKERS", "")

	path := filepath.Join(home, Dir, "config.yaml")
	cfg := Default()
	cfg.Simulation.Workers = 6
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Simulation.Workers != 6 {
		t.Errorf("expected Workers 6, got %d", loaded.Simulation.Workers)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 0600", perm)
	}
}

func TestValidate_Valid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RandosimConfig)
	}{
		{"negative workers", func(c *RandosimConfig) { c.Simulation.Workers = -1 }},
		{"unknown log level", func(c *RandosimConfig) { c.Logging.Level = "verbose" }},
		{"zero rate", func(c *RandosimConfig) { c.MCP.SimulatePerMinute = 0 }},
		{"zero max runs", func(c *RandosimConfig) { c.MCP.MaxRuns = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	validLevels := []string{"", "info", "debug", "trace"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			config := Default()
			config.Logging.Level = level
			if err := config.Validate(); err != nil {
				t.Errorf("expected log level '%s' to be valid, got error: %v", level, err)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  any
	}{
		{"simulation.workers", "8", 8},
		{"simulation.seed", "18446744073709551615", uint64(18446744073709551615)},
		{"logging.level", "debug", "debug"},
		{"logging.trace_dir", "/var/tmp", "/var/tmp"},
		{"mcp.simulate_per_minute", "2", 2},
		{"mcp.max_runs", "50", 50},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%s, %s) error: %v", tt.key, tt.value, err)
			}
			got, ok := cfg.Get(tt.key)
			if !ok {
				t.Fatalf("Get(%s) not found", tt.key)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get(%s) = %#v, want %#v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSet_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"simulation.workers", "-2"},
		{"simulation.seed", "abc"},
		{"logging.level", "loud"},
		{"mcp.simulate_per_minute", "0"},
		{"mcp.max_runs", "x"},
		{"no.such.key", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := Default().Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%s, %s) should fail", tt.key, tt.value)
			}
		})
	}
}

func TestKeys_AllGettable(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if _, ok := cfg.Get(key); !ok {
			t.Errorf("Keys() lists %s but Get does not know it", key)
		}
	}
	if _, ok := cfg.Get("no.such.key"); ok {
		t.Error("Get(no.such.key) should not be found")
	}
}

func TestTraceDirOrDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	if got, want := cfg.TraceDirOrDefault(), filepath.Join(home, Dir, "traces"); got != want {
		t.Errorf("TraceDirOrDefault() = %q, want %q", got, want)
	}
	cfg.Logging.TraceDir = "/elsewhere"
	if got := cfg.TraceDirOrDefault(); got != "/elsewhere" {
		t.Errorf("TraceDirOrDefault() = %q, want /elsewhere", got)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
simulation:
  workers: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
