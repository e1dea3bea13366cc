package logging

import (
	"context"
	"log/slog"

	"github.com/nvandessel/randosim/internal/simulation"
)

// eventLevel is the lowest log level at which an event kind is emitted.
func eventLevel(kind simulation.EventKind) slog.Level {
	switch kind {
	case simulation.EventProblem:
		return slog.LevelWarn
	case simulation.EventRunStart, simulation.EventRunEnd, simulation.EventRunFailed, simulation.EventCategory:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// Observe writes a run event to the trace. Step-level events (choices, found
// items, newly eligible milestones) are written only at trace level.
func (tl *TraceLogger) Observe(e simulation.Event) {
	if tl == nil || eventLevel(e.Kind) < tl.level {
		return
	}
	tl.Log(eventFields(e))
}

func eventFields(e simulation.Event) map[string]any {
	entry := map[string]any{
		"event":      string(e.Kind),
		"file":       e.File,
		"simulation": e.Scenario,
		"run":        e.Run,
		"step":       e.Step,
	}
	if len(e.Names) > 0 {
		entry["names"] = e.Names
	}
	if e.Report != "" {
		entry["report"] = e.Report
	}
	if e.Err != nil {
		entry["error"] = e.Err.Error()
	}
	return entry
}

// SlogObserver forwards run events to a slog.Logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver returns an observer logging to logger. Nil yields nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		return nil
	}
	return &SlogObserver{logger: logger}
}

// Observe logs e at the level its kind maps to.
func (o *SlogObserver) Observe(e simulation.Event) {
	if o == nil {
		return
	}
	lvl := eventLevel(e.Kind)
	ctx := context.Background()
	if !o.logger.Enabled(ctx, lvl) {
		return
	}

	attrs := []any{"file", e.File, "simulation", e.Scenario, "run", e.Run, "step", e.Step}
	if len(e.Names) > 0 {
		attrs = append(attrs, "names", e.Names)
	}
	if e.Report != "" {
		attrs = append(attrs, "report", e.Report)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	o.logger.Log(ctx, lvl, string(e.Kind), attrs...)
}
