package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/randosim/internal/simulation"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"info level", "info"},
		{"debug level", "debug"},
		{"trace level", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestLevelTrace(t *testing.T) {
	// Trace should be below debug (more verbose)
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
}

func TestNewTraceLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "info")

	if tl != nil {
		t.Error("expected nil TraceLogger at info level")
	}

	// Nil logger should still be safe to use
	tl.Log(map[string]any{"event": "test"})
	tl.Observe(simulation.Event{Kind: simulation.EventRunStart})

	if _, err := os.Stat(filepath.Join(dir, TraceFile)); err == nil {
		t.Error("trace.jsonl should not exist at info level")
	}
}

func TestNewTraceLogger_EmptyDir(t *testing.T) {
	if tl := NewTraceLogger("", "trace"); tl != nil {
		t.Error("expected nil TraceLogger without a directory")
	}
}

func readLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, TraceFile))
	if err != nil {
		t.Fatalf("failed to read trace.jsonl: %v", err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestTraceLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	defer tl.Close()

	tl.Log(map[string]any{"event": "first"})
	tl.Log(map[string]any{"event": "second"})

	lines := readLines(t, dir)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["event"] != "first" || lines[1]["event"] != "second" {
		t.Errorf("events = %v, %v", lines[0]["event"], lines[1]["event"])
	}
	if _, ok := lines[0]["time"]; !ok {
		t.Error("expected a time field")
	}
}

func TestTraceLogger_ObserveLevels(t *testing.T) {
	events := []simulation.Event{
		{Kind: simulation.EventRunStart, File: "a.yaml", Scenario: "0", Run: 2},
		{Kind: simulation.EventChoice, Step: 1, Names: []string{"castle"}},
		{Kind: simulation.EventCategory, Report: "route", Names: []string{"early"}},
		{Kind: simulation.EventProblem, Report: "route", Err: errors.New("unknown condition type")},
		{Kind: simulation.EventRunEnd},
	}

	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"run_start", "category", "problem", "run_end"}},
		{"trace", []string{"run_start", "choice", "category", "problem", "run_end"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := t.TempDir()
			tl := NewTraceLogger(dir, tt.level)
			for _, e := range events {
				tl.Observe(e)
			}
			tl.Close()

			lines := readLines(t, dir)
			var got []string
			for _, l := range lines {
				got = append(got, l["event"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("events = %v, want %v", got, tt.want)
			}
			if lines[0]["file"] != "a.yaml" || lines[0]["run"] != float64(2) {
				t.Errorf("run_start line = %v", lines[0])
			}
		})
	}
}

func TestTraceLogger_ErrorField(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	tl.Observe(simulation.Event{Kind: simulation.EventRunFailed, Err: errors.New("no available choices")})
	tl.Close()

	lines := readLines(t, dir)
	if len(lines) != 1 || lines[0]["error"] != "no available choices" {
		t.Errorf("lines = %v", lines)
	}
}

func TestTraceLogger_NilSafety(t *testing.T) {
	var tl *TraceLogger
	tl.Log(map[string]any{"event": "should_not_panic"})
	tl.Observe(simulation.Event{Kind: simulation.EventChoice})
	if err := tl.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestTraceLogger_DoesNotMutateCallerMap(t *testing.T) {
	tl := NewTraceLogger(t.TempDir(), "debug")
	defer tl.Close()

	event := map[string]any{"event": "test"}
	tl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestTraceLogger_LogAfterClose(t *testing.T) {
	tl := NewTraceLogger(t.TempDir(), "debug")
	tl.Log(map[string]any{"event": "before_close"})
	tl.Close()

	// Should be a no-op, not panic or error
	tl.Log(map[string]any{"event": "after_close"})
	if err := tl.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestNewTraceLogger_CreatesDir(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "sub", "dir")

	tl := NewTraceLogger(nestedDir, "debug")
	if tl == nil {
		t.Fatal("expected non-nil TraceLogger when dir needs creation")
	}
	defer tl.Close()

	tl.Log(map[string]any{"event": "dir_create_test"})
	if _, err := os.Stat(filepath.Join(nestedDir, TraceFile)); err != nil {
		t.Fatalf("trace.jsonl should exist after dir creation: %v", err)
	}
}

func TestTraceLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	defer tl.Close()

	tl.Log(map[string]any{"event": "perm_test"})

	info, err := os.Stat(filepath.Join(dir, TraceFile))
	if err != nil {
		t.Fatalf("failed to stat trace.jsonl: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestSlogObserver(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		event   simulation.Event
		visible bool
	}{
		{"choice hidden at debug", "debug", simulation.Event{Kind: simulation.EventChoice}, false},
		{"choice shown at trace", "trace", simulation.Event{Kind: simulation.EventChoice, Names: []string{"castle"}}, true},
		{"run_end shown at debug", "debug", simulation.Event{Kind: simulation.EventRunEnd}, true},
		{"run_end hidden at info", "info", simulation.Event{Kind: simulation.EventRunEnd}, false},
		{"problem shown at info", "info", simulation.Event{Kind: simulation.EventProblem, Report: "route"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := NewSlogObserver(NewLogger(tt.level, &buf))
			obs.Observe(tt.event)
			got := strings.Contains(buf.String(), string(tt.event.Kind))
			if got != tt.visible {
				t.Errorf("visible = %v, want %v (buf: %q)", got, tt.visible, buf.String())
			}
		})
	}
}

func TestSlogObserver_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	NewSlogObserver(NewLogger("trace", &buf)).Observe(simulation.Event{Kind: simulation.EventFound, Names: []string{"sword"}})
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE level label, got %q", buf.String())
	}
}

func TestNewSlogObserver_Nil(t *testing.T) {
	obs := NewSlogObserver(nil)
	if obs != nil {
		t.Fatal("expected nil observer for nil logger")
	}
	obs.Observe(simulation.Event{Kind: simulation.EventRunEnd})
}
