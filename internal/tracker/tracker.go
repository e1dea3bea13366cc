// Package tracker records which qualitative categories a single run hits, in
// the order they were first satisfied.
package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/requirement"
	"github.com/nvandessel/randosim/internal/summary"
)

// ErrAmbiguousCategoryName is returned for category names that would collide
// in joint keys: names containing summary.KeySeparator, or the
// summary.NoCategories key itself.
var ErrAmbiguousCategoryName = errors.New("category name is ambiguous in joint keys")

// Category is a compiled report category.
type Category struct {
	Name      string
	Condition requirement.Expr
}

// Spec is a compiled qualitative report.
type Spec struct {
	Label      string
	Categories []Category
}

// CompileSpec parses every category condition of a report.
func CompileSpec(r models.ReportSpec) (Spec, error) {
	if r.Type != "" && r.Type != models.ReportTypeQualitative {
		return Spec{}, fmt.Errorf("report %q: unsupported type %q", r.Label, r.Type)
	}
	s := Spec{Label: r.Label, Categories: make([]Category, 0, len(r.Categories))}
	for _, c := range r.Categories {
		if strings.Contains(c.Name, summary.KeySeparator) || c.Name == summary.NoCategories {
			return Spec{}, fmt.Errorf("report %q category %q: %w", r.Label, c.Name, ErrAmbiguousCategoryName)
		}
		expr, err := requirement.Parse(c.Condition)
		if err != nil {
			return Spec{}, fmt.Errorf("report %q category %q: %w", r.Label, c.Name, err)
		}
		s.Categories = append(s.Categories, Category{Name: c.Name, Condition: expr})
	}
	return s, nil
}

// Problem is a category whose condition could not be evaluated. The category
// is disabled for the rest of the run.
type Problem struct {
	Category string
	Err      error
}

func (p Problem) Error() string {
	return fmt.Sprintf("category %q: %v", p.Category, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// Tracker follows one report spec through one run. It is not safe for
// concurrent use; each run owns its trackers.
type Tracker struct {
	spec     Spec
	chosen   map[string]bool
	found    map[string]bool
	choices  []string
	items    []string
	recorded map[string]bool
	disabled map[string]bool
	order    []string
	problems []Problem
}

// New creates a tracker for spec.
func New(spec Spec) *Tracker {
	return &Tracker{
		spec:     spec,
		chosen:   make(map[string]bool),
		found:    make(map[string]bool),
		recorded: make(map[string]bool),
		disabled: make(map[string]bool),
	}
}

// Label returns the report label.
func (t *Tracker) Label() string { return t.spec.Label }

// OnChoice records a completed milestone and returns categories it newly satisfied.
func (t *Tracker) OnChoice(token string) ([]string, []Problem) {
	t.choices = append(t.choices, token)
	t.chosen[token] = true
	return t.evaluate()
}

// OnFound records an acquired item and returns categories it newly satisfied.
func (t *Tracker) OnFound(item string) ([]string, []Problem) {
	t.items = append(t.items, item)
	t.found[item] = true
	return t.evaluate()
}

// Categories returns recorded categories in first-satisfaction order.
func (t *Tracker) Categories() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Problems returns every evaluation problem seen so far.
func (t *Tracker) Problems() []Problem {
	out := make([]Problem, len(t.problems))
	copy(out, t.problems)
	return out
}

// ChoicesMade returns the running sequence of choices.
func (t *Tracker) ChoicesMade() []string { return append([]string(nil), t.choices...) }

// ItemsFound returns the running sequence of found items.
func (t *Tracker) ItemsFound() []string { return append([]string(nil), t.items...) }

func (t *Tracker) evaluate() ([]string, []Problem) {
	var added []string
	var problems []Problem
	env := requirement.SetEnv{Chosen: t.chosen, Found: t.found}

	for _, c := range t.spec.Categories {
		if t.recorded[c.Name] || t.disabled[c.Name] {
			continue
		}
		ok, err := requirement.Evaluate(c.Condition, env)
		if err != nil {
			t.disabled[c.Name] = true
			p := Problem{Category: c.Name, Err: err}
			t.problems = append(t.problems, p)
			problems = append(problems, p)
			continue
		}
		if ok {
			t.recorded[c.Name] = true
			t.order = append(t.order, c.Name)
			added = append(added, c.Name)
		}
	}
	return added, problems
}
