// Package logging provides leveled logging and run tracing for randosim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (progress and warnings)
//   - A TraceLogger for structured JSONL run traces (<dir>/trace.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every choice,
// found item, and newly eligible milestone of every run is logged.
const LevelTrace = slog.LevelDebug - 4

// TraceFile is the name of the JSONL trace written inside the trace directory.
const TraceFile = "trace.jsonl"

// ParseLevel maps "info", "debug" or "trace" (case-insensitive) to a
// slog.Level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// TraceLogger appends run events to a JSONL file. It is safe for concurrent
// use. A nil TraceLogger is safe to use; every method is a no-op.
type TraceLogger struct {
	mu    sync.Mutex
	file  *os.File
	level slog.Level
}

// NewTraceLogger opens dir/trace.jsonl for append. At info level it returns
// nil and creates nothing. It also returns nil when the file cannot be opened.
func NewTraceLogger(dir string, level string) *TraceLogger {
	lvl := ParseLevel(level)
	if lvl >= slog.LevelInfo || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, TraceFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &TraceLogger{file: f, level: lvl}
}

// Log writes entry as one JSONL line with a "time" field added. The
// caller's map is not modified.
func (tl *TraceLogger) Log(entry map[string]any) {
	if tl == nil {
		return
	}

	line := make(map[string]any, len(entry)+1)
	for k, v := range entry {
		line[k] = v
	}
	line["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	data = append(data, '\n')

	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.file == nil {
		return
	}
	_, _ = tl.file.Write(data)
}

// Close closes the trace file. Later writes are dropped.
func (tl *TraceLogger) Close() error {
	if tl == nil {
		return nil
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.file == nil {
		return nil
	}
	err := tl.file.Close()
	tl.file = nil
	return err
}
