package simulation

import (
	"github.com/nvandessel/randosim/internal/summary"
)

// RunFailure records a run that ended in PhaseFailed. Failed runs are kept
// out of every summary.
type RunFailure struct {
	Index   int      `json:"index" yaml:"index"`
	Error   string   `json:"error" yaml:"error"`
	Choices []string `json:"choices" yaml:"choices"`
}

// ScenarioResult is the per-(file, scenario) level.
type ScenarioResult struct {
	Index     int                        `json:"index" yaml:"index"`
	Label     string                     `json:"label" yaml:"label"`
	Runs      []RunReport                `json:"runs" yaml:"runs"`
	Failures  []RunFailure               `json:"failures,omitempty" yaml:"failures,omitempty"`
	Summaries map[string]summary.Summary `json:"summaries" yaml:"summaries"`
}

// FileReport is the per-file level: every scenario played against one
// choice file.
type FileReport struct {
	Name      string                     `json:"name" yaml:"name"`
	Scenarios []ScenarioResult           `json:"scenarios" yaml:"scenarios"`
	Summaries map[string]summary.Summary `json:"summaries" yaml:"summaries"`
}

// ScenarioAggregate is the per-scenario level: one scenario label pooled
// across every choice file.
type ScenarioAggregate struct {
	Label     string                     `json:"label" yaml:"label"`
	Summaries map[string]summary.Summary `json:"summaries" yaml:"summaries"`
}

// Report holds all four aggregation levels. Every level carries one Summary
// per report label, listed in ReportLabels order.
type Report struct {
	Seed         uint64                     `json:"seed" yaml:"seed"`
	ReportLabels []string                   `json:"report_labels" yaml:"report_labels"`
	Files        []FileReport               `json:"files" yaml:"files"`
	Scenarios    []ScenarioAggregate        `json:"scenarios" yaml:"scenarios"`
	Summaries    map[string]summary.Summary `json:"summaries" yaml:"summaries"`
}

// Runs returns the number of runs that reached an end state.
func (r *Report) Runs() int {
	n := 0
	for _, f := range r.Files {
		for _, s := range f.Scenarios {
			n += len(s.Runs)
		}
	}
	return n
}

// Failures returns the number of failed runs across the report.
func (r *Report) Failures() int {
	n := 0
	for _, f := range r.Files {
		for _, s := range f.Scenarios {
			n += len(s.Failures)
		}
	}
	return n
}

// Tree renders the report as nested maps of strings, ints, floats and
// slices, keyed by file name, then scenario label, then report label.
func (r *Report) Tree() map[string]any {
	files := make(map[string]any, len(r.Files))
	for _, f := range r.Files {
		scenarios := make(map[string]any, len(f.Scenarios))
		for _, s := range f.Scenarios {
			runs := make([]any, 0, len(s.Runs))
			for _, run := range s.Runs {
				runs = append(runs, runTree(run))
			}
			node := map[string]any{
				"runs":    runs,
				"reports": r.summariesTree(s.Summaries),
			}
			if len(s.Failures) > 0 {
				failures := make([]any, 0, len(s.Failures))
				for _, fl := range s.Failures {
					failures = append(failures, map[string]any{
						"index":   fl.Index,
						"error":   fl.Error,
						"choices": stringsTree(fl.Choices),
					})
				}
				node["failures"] = failures
			}
			scenarios[s.Label] = node
		}
		files[f.Name] = map[string]any{
			"simulations": scenarios,
			"reports":     r.summariesTree(f.Summaries),
		}
	}

	simulations := make(map[string]any, len(r.Scenarios))
	for _, s := range r.Scenarios {
		simulations[s.Label] = map[string]any{"reports": r.summariesTree(s.Summaries)}
	}

	return map[string]any{
		"seed":        r.Seed,
		"files":       files,
		"simulations": simulations,
		"reports":     r.summariesTree(r.Summaries),
	}
}

// PruneRuns removes the raw run lists from a tree built by Tree. Failures
// and summaries are kept.
func PruneRuns(tree map[string]any) {
	files, _ := tree["files"].(map[string]any)
	for _, f := range files {
		file, _ := f.(map[string]any)
		sims, _ := file["simulations"].(map[string]any)
		for _, node := range sims {
			if n, ok := node.(map[string]any); ok {
				delete(n, "runs")
			}
		}
	}
}

func (r *Report) summariesTree(m map[string]summary.Summary) map[string]any {
	out := make(map[string]any, len(r.ReportLabels))
	for _, label := range r.ReportLabels {
		out[label] = SummaryTree(m[label])
	}
	return out
}

// SummaryTree renders one summary as a nested map.
func SummaryTree(s summary.Summary) map[string]any {
	return map[string]any{
		"runs":                      s.Runs,
		"all_seen":                  stringsTree(s.AllSeen),
		"individual_counts":         intsTree(s.IndividualCounts),
		"individual_percentages":    floatsTree(s.IndividualPercentages),
		"joint_counts":              intsTree(s.JointCounts),
		"joint_percentages":         floatsTree(s.JointPercentages),
		"joint_ordered_counts":      intsTree(s.JointOrderedCounts),
		"joint_ordered_percentages": floatsTree(s.JointOrderedPercentages),
	}
}

func runTree(run RunReport) map[string]any {
	cats := make(map[string]any, len(run.Categories))
	for label, names := range run.Categories {
		cats[label] = stringsTree(names)
	}
	out := map[string]any{
		"choices":      stringsTree(run.Choices),
		"choice_count": run.ChoiceCount,
		"found":        stringsTree(run.Found),
		"categories":   cats,
	}
	if len(run.Problems) > 0 {
		out["problems"] = stringsTree(run.Problems)
	}
	return out
}

func stringsTree(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func intsTree(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func floatsTree(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
