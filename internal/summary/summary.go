// Package summary aggregates per-run category lists into frequency tables.
//
// A run contributes one list of category names in first-satisfaction order.
// Summaries are built from counts only, so combining runs is associative and
// commutative: Merge(Summarize(a), Summarize(b)) equals Summarize(a ++ b).
package summary

import (
	"sort"
	"strings"
)

// KeySeparator joins category names into joint-distribution keys.
const KeySeparator = ", "

// NoCategories is the joint key of a run that hit no category.
const NoCategories = "(none)"

// Summary holds frequency tables over Runs runs. Percentages are fractions
// of Runs in [0, 1]; individual percentages need not sum to 1.
type Summary struct {
	Runs int `json:"runs" yaml:"runs"`

	AllSeen []string `json:"all_seen" yaml:"all_seen"`

	IndividualCounts      map[string]int     `json:"individual_counts" yaml:"individual_counts"`
	IndividualPercentages map[string]float64 `json:"individual_percentages" yaml:"individual_percentages"`

	JointCounts      map[string]int     `json:"joint_counts" yaml:"joint_counts"`
	JointPercentages map[string]float64 `json:"joint_percentages" yaml:"joint_percentages"`

	JointOrderedCounts      map[string]int     `json:"joint_ordered_counts" yaml:"joint_ordered_counts"`
	JointOrderedPercentages map[string]float64 `json:"joint_ordered_percentages" yaml:"joint_ordered_percentages"`
}

// Summarize tabulates runs.
func Summarize(runs [][]string) Summary {
	s := empty()
	for _, cats := range runs {
		s.add(cats)
	}
	s.finish()
	return s
}

// Merge combines two summaries as if their runs had been summarized together.
func Merge(a, b Summary) Summary {
	s := empty()
	s.Runs = a.Runs + b.Runs
	for _, src := range []Summary{a, b} {
		addCounts(s.IndividualCounts, src.IndividualCounts)
		addCounts(s.JointCounts, src.JointCounts)
		addCounts(s.JointOrderedCounts, src.JointOrderedCounts)
	}
	s.finish()
	return s
}

// MergeAll folds Merge over summaries.
func MergeAll(summaries ...Summary) Summary {
	out := Summarize(nil)
	for _, s := range summaries {
		out = Merge(out, s)
	}
	return out
}

// JointKey returns the order-independent signature of a run.
func JointKey(cats []string) string {
	uniq := dedupe(cats)
	sort.Strings(uniq)
	return joinKey(uniq)
}

// JointOrderedKey returns the order-dependent signature of a run.
func JointOrderedKey(cats []string) string {
	return joinKey(dedupe(cats))
}

func empty() Summary {
	return Summary{
		IndividualCounts:        make(map[string]int),
		IndividualPercentages:   make(map[string]float64),
		JointCounts:             make(map[string]int),
		JointPercentages:        make(map[string]float64),
		JointOrderedCounts:      make(map[string]int),
		JointOrderedPercentages: make(map[string]float64),
	}
}

func (s *Summary) add(cats []string) {
	s.Runs++
	for _, c := range dedupe(cats) {
		s.IndividualCounts[c]++
	}
	s.JointCounts[JointKey(cats)]++
	s.JointOrderedCounts[JointOrderedKey(cats)]++
}

// finish derives AllSeen and every percentage table from the counts.
func (s *Summary) finish() {
	s.AllSeen = make([]string, 0, len(s.IndividualCounts))
	for c := range s.IndividualCounts {
		s.AllSeen = append(s.AllSeen, c)
	}
	sort.Strings(s.AllSeen)

	s.IndividualPercentages = percentages(s.IndividualCounts, s.Runs)
	s.JointPercentages = percentages(s.JointCounts, s.Runs)
	s.JointOrderedPercentages = percentages(s.JointOrderedCounts, s.Runs)
}

func percentages(counts map[string]int, n int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	if n == 0 {
		return out
	}
	for k, c := range counts {
		out[k] = float64(c) / float64(n)
	}
	return out
}

func addCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

func dedupe(cats []string) []string {
	seen := make(map[string]bool, len(cats))
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func joinKey(cats []string) string {
	if len(cats) == 0 {
		return NoCategories
	}
	return strings.Join(cats, KeySeparator)
}
