package simulation

import (
	"math"
	"reflect"
	"testing"

	"github.com/nvandessel/randosim/internal/summary"
)

// AssertNoDuplicateChoices asserts that no run of the report completed the
// same milestone twice.
func AssertNoDuplicateChoices(t *testing.T, report *Report) {
	t.Helper()
	eachRun(report, func(file, scenario string, i int, run RunReport) {
		seen := make(map[string]bool, len(run.Choices))
		for _, c := range run.Choices {
			if seen[c] {
				t.Errorf("AssertNoDuplicateChoices: %s/%s run %d: %q chosen twice", file, scenario, i, c)
			}
			seen[c] = true
		}
		if run.ChoiceCount != len(run.Choices) {
			t.Errorf("AssertNoDuplicateChoices: %s/%s run %d: choice_count %d != %d choices", file, scenario, i, run.ChoiceCount, len(run.Choices))
		}
	})
}

// AssertEndsInEndState asserts that every run's last choice is one of
// endStates and that no earlier choice is.
func AssertEndsInEndState(t *testing.T, report *Report, endStates ...string) {
	t.Helper()
	ends := make(map[string]bool, len(endStates))
	for _, e := range endStates {
		ends[e] = true
	}
	eachRun(report, func(file, scenario string, i int, run RunReport) {
		if len(run.Choices) == 0 {
			t.Errorf("AssertEndsInEndState: %s/%s run %d: no choices", file, scenario, i)
			return
		}
		for j, c := range run.Choices {
			last := j == len(run.Choices)-1
			if ends[c] != last {
				t.Errorf("AssertEndsInEndState: %s/%s run %d: choice %d %q end=%v last=%v", file, scenario, i, j, c, ends[c], last)
			}
		}
	})
}

// AssertCategoryFrequency asserts that a category's individual percentage in
// a summary lies within [min, max].
func AssertCategoryFrequency(t *testing.T, s summary.Summary, category string, min, max float64) {
	t.Helper()
	got := s.IndividualPercentages[category]
	if got < min || got > max {
		t.Errorf("AssertCategoryFrequency: %q frequency %.4f not in [%.4f, %.4f] over %d runs", category, got, min, max, s.Runs)
	}
}

// AssertPercentagesConsistent asserts that every percentage equals its count
// divided by Runs and that the joint tables sum to one.
func AssertPercentagesConsistent(t *testing.T, s summary.Summary) {
	t.Helper()
	const eps = 1e-9
	check := func(name string, counts map[string]int, pct map[string]float64) {
		total := 0.0
		for k, c := range counts {
			want := float64(c) / float64(s.Runs)
			if math.Abs(pct[k]-want) > eps {
				t.Errorf("AssertPercentagesConsistent: %s[%q] = %.6f, want %.6f", name, k, pct[k], want)
			}
			total += pct[k]
		}
		if name != "individual" && s.Runs > 0 && math.Abs(total-1) > eps {
			t.Errorf("AssertPercentagesConsistent: %s percentages sum to %.6f, want 1", name, total)
		}
	}
	check("individual", s.IndividualCounts, s.IndividualPercentages)
	check("joint", s.JointCounts, s.JointPercentages)
	check("joint ordered", s.JointOrderedCounts, s.JointOrderedPercentages)
}

// AssertSameOutcomes asserts that two reports played exactly the same runs.
func AssertSameOutcomes(t *testing.T, a, b *Report) {
	t.Helper()
	if len(a.Files) != len(b.Files) {
		t.Fatalf("AssertSameOutcomes: %d files vs %d", len(a.Files), len(b.Files))
	}
	for fi := range a.Files {
		for si := range a.Files[fi].Scenarios {
			ra := a.Files[fi].Scenarios[si].Runs
			rb := b.Files[fi].Scenarios[si].Runs
			if !reflect.DeepEqual(ra, rb) {
				t.Errorf("AssertSameOutcomes: file %d simulation %d runs differ", fi, si)
			}
		}
	}
	if !reflect.DeepEqual(a.Summaries, b.Summaries) {
		t.Errorf("AssertSameOutcomes: global summaries differ")
	}
}

func eachRun(report *Report, fn func(file, scenario string, i int, run RunReport)) {
	for _, f := range report.Files {
		for _, s := range f.Scenarios {
			for i, run := range s.Runs {
				fn(f.Name, s.Label, i, run)
			}
		}
	}
}
