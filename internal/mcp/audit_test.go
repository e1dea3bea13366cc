package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_NilSafety(t *testing.T) {
	t.Run("nil logger Log is no-op", func(t *testing.T) {
		var logger *AuditLogger
		// Should not panic
		logger.Log(AuditEntry{Tool: "test"})
	})

	t.Run("nil logger Close is no-op", func(t *testing.T) {
		var logger *AuditLogger
		if err := logger.Close(); err != nil {
			t.Errorf("Close() on nil logger returned error: %v", err)
		}
	})
}

func readAuditEntries(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "randosim_simulate",
		DurationMs: 42,
		Status:     "success",
		Runs:       12,
		Params:     map[string]string{"seed": "7"},
	})
	logger.Log(AuditEntry{Tool: "randosim_options", Status: "error", Error: "game is required"})

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "randosim_simulate" || entries[0].DurationMs != 42 || entries[0].Runs != 12 {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[0].Params["seed"] != "7" {
		t.Errorf("params = %v", entries[0].Params)
	}
	if entries[1].Status != "error" || entries[1].Error != "game is required" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()
	logger.Log(AuditEntry{Tool: "test"})

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	const goroutines = 10
	const entriesPerGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				logger.Log(AuditEntry{
					Timestamp:  time.Now(),
					Tool:       "randosim_simulate",
					DurationMs: int64(id*100 + i),
					Status:     "success",
				})
			}
		}(g)
	}
	wg.Wait()

	if got := len(readAuditEntries(t, dir)); got != goroutines*entriesPerGoroutine {
		t.Errorf("line count = %d, want %d", got, goroutines*entriesPerGoroutine)
	}
}

func TestAuditLogger_CloseTwice(t *testing.T) {
	logger := NewAuditLogger(t.TempDir())
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	// Logging after close is dropped.
	logger.Log(AuditEntry{Tool: "late"})
}

func TestAuditLogger_NilOnBadPath(t *testing.T) {
	dir := t.TempDir()
	blockPath := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blockPath, []byte("file"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if logger := NewAuditLogger(filepath.Join(blockPath, "sub")); logger != nil {
		logger.Close()
		t.Error("expected nil logger when the directory cannot be created")
	}
}

func TestSanitizeToolParams(t *testing.T) {
	t.Run("nil params", func(t *testing.T) {
		if got := sanitizeToolParams(nil); got != nil {
			t.Errorf("sanitizeToolParams(nil) = %v, want nil", got)
		}
	})

	t.Run("values, presence and drops", func(t *testing.T) {
		result := sanitizeToolParams(map[string]any{
			"seed":         uint64(42),
			"workers":      4,
			"include_runs": true,
			"game":         "/home/me/game.yaml",
			"game_text":    "",
			"choices_text": []string{"start: sword"},
			"choices":      []string(nil),
			"secret":       "hunter2",
		})

		want := map[string]string{
			"seed":         "42",
			"workers":      "4",
			"include_runs": "true",
			"game":         "(set)",
			"choices_text": "(set)",
			"_param_count": "8",
		}
		if len(result) != len(want) {
			t.Errorf("result = %v, want %v", result, want)
		}
		for k, v := range want {
			if result[k] != v {
				t.Errorf("result[%q] = %q, want %q", k, result[k], v)
			}
		}
		if _, ok := result["secret"]; ok {
			t.Error("unknown keys must be dropped")
		}
	})
}

func TestAuditTool_Integration(t *testing.T) {
	dir := t.TempDir()
	s := &Server{auditLogger: NewAuditLogger(dir)}
	defer s.Close()

	start := time.Now()
	s.auditTool("randosim_simulate", start, nil, 9, map[string]string{"workers": "2"})
	s.auditTool("randosim_options", start, errors.New("boom"), 0, nil)

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].Runs != 9 || entries[0].Params["workers"] != "2" {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestAuditTool_NoLogger(t *testing.T) {
	s := &Server{}
	// Should not panic
	s.auditTool("randosim_options", time.Now(), nil, 0, nil)
}
