package models

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scenario policy type tags.
const (
	PolicyWeightedRandom = "weighted-random"
	PolicyRandom         = "random"
	PolicyFixedList      = "fixed-list"
)

// ReportTypeQualitative is the only report type the tracker understands.
const ReportTypeQualitative = "qualitative"

// SimulationSpec configures what to simulate and what to report.
type SimulationSpec struct {
	// Simulations are the scenarios, each run Count times per choice file.
	Simulations []Scenario `json:"simulations" yaml:"simulations"`

	// EndStates are milestones whose completion ends a run.
	EndStates []string `json:"end-states" yaml:"end-states"`

	// Reports describe which qualitative events to track.
	Reports []ReportSpec `json:"reports" yaml:"reports"`
}

// Scenario is one simulation configuration.
type Scenario struct {
	Type         string             `json:"type,omitempty" yaml:"type,omitempty"`
	FirstChoices []string           `json:"first-choices,omitempty" yaml:"first-choices,omitempty"`
	Weights      map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Count        *int               `json:"count,omitempty" yaml:"count,omitempty"`
	Label        string             `json:"label,omitempty" yaml:"label,omitempty"`
}

// RunCount returns the configured repetitions, defaulting to 1. A negative
// count plays no runs.
func (s Scenario) RunCount() int {
	if s.Count == nil {
		return 1
	}
	return max(0, *s.Count)
}

// LabelOr returns the scenario label, or its index when unlabeled.
func (s Scenario) LabelOr(index int) string {
	if s.Label != "" {
		return s.Label
	}
	return strconv.Itoa(index)
}

// ReportSpec is a qualitative report: named categories, each with a condition
// over the events of a run. Categories keep file order.
type ReportSpec struct {
	Label      string     `json:"label" yaml:"label"`
	Type       string     `json:"type" yaml:"type"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// Category is a named condition.
type Category struct {
	Name      string `json:"name" yaml:"name"`
	Condition any    `json:"condition" yaml:"condition"`
}

// UnmarshalYAML decodes the categories mapping in document order.
func (r *ReportSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Label      string    `yaml:"label"`
		Type       string    `yaml:"type"`
		Categories yaml.Node `yaml:"categories"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	r.Label = raw.Label
	r.Type = raw.Type
	r.Categories = nil

	cats := raw.Categories
	if isNull(&cats) {
		return nil
	}
	if cats.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: report %q categories must be a mapping", cats.Line, r.Label)
	}
	for i := 0; i+1 < len(cats.Content); i += 2 {
		c := Category{Name: cats.Content[i].Value}
		if err := cats.Content[i+1].Decode(&c.Condition); err != nil {
			return fmt.Errorf("report %q category %q: %w", r.Label, c.Name, err)
		}
		r.Categories = append(r.Categories, c)
	}
	return nil
}
