// Package policy picks the next milestone a simulated player completes.
package policy

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/randosim/internal/models"
)

var (
	// ErrNoAvailableChoices is returned when nothing is left to choose before
	// an end-state was reached.
	ErrNoAvailableChoices = errors.New("no available choices")

	// ErrUnknownPolicy is returned for scenario type tags this package does
	// not implement.
	ErrUnknownPolicy = errors.New("unknown policy type")
)

// Policy selects one token from the available set.
type Policy interface {
	Choose(available []string, rng *rand.Rand) (string, error)
}

// New returns the policy for a scenario. Every known type tag currently uses
// the weighted-random algorithm; an empty tag means weighted-random.
func New(s models.Scenario) (Policy, error) {
	switch s.Type {
	case "", models.PolicyWeightedRandom, models.PolicyRandom, models.PolicyFixedList:
		return NewWeightedRandom(s.FirstChoices, s.Weights), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, s.Type)
	}
}

// WeightedRandom prefers the first listed first-choice that is available and
// otherwise draws in proportion to per-token weights (default 1).
type WeightedRandom struct {
	firstChoices []string
	weights      map[string]float64
}

// NewWeightedRandom creates a WeightedRandom policy.
func NewWeightedRandom(firstChoices []string, weights map[string]float64) *WeightedRandom {
	return &WeightedRandom{firstChoices: firstChoices, weights: weights}
}

// Choose implements Policy. Draws are independent between calls.
func (w *WeightedRandom) Choose(available []string, rng *rand.Rand) (string, error) {
	if len(available) == 0 {
		return "", ErrNoAvailableChoices
	}

	for _, fc := range w.firstChoices {
		for _, a := range available {
			if a == fc {
				return fc, nil
			}
		}
	}

	if len(w.weights) == 0 {
		return available[rng.IntN(len(available))], nil
	}

	total := 0.0
	cumulative := make([]float64, len(available))
	for i, a := range available {
		if wt := w.weight(a); wt > 0 {
			total += wt
		}
		cumulative[i] = total
	}
	if total <= 0 {
		return available[rng.IntN(len(available))], nil
	}

	r := rng.Float64() * total
	for i, c := range cumulative {
		if r < c {
			return available[i], nil
		}
	}
	return available[len(available)-1], nil
}

func (w *WeightedRandom) weight(token string) float64 {
	if wt, ok := w.weights[token]; ok {
		return wt
	}
	return 1
}
