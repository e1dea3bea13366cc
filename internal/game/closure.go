package game

import (
	"fmt"

	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/requirement"
)

// State is the mutable state of a single run. It is owned by one run and
// never shared.
type State struct {
	// Found holds acquired items in acquisition order.
	Found *Set
	// Unlocks holds completed milestones in play order.
	Unlocks *Set
	// Unlockables holds every milestone that has become eligible; it is a
	// superset of Unlocks.
	Unlockables *Set
}

// NewState returns an empty run state.
func NewState() *State {
	return &State{Found: NewSet(), Unlocks: NewSet(), Unlockables: NewSet()}
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	return &State{Found: s.Found.Clone(), Unlocks: s.Unlocks.Clone(), Unlockables: s.Unlockables.Clone()}
}

// Available returns eligible milestones not yet completed, in eligibility order.
func (s *State) Available() []string {
	out := make([]string, 0, s.Unlockables.Len()-s.Unlocks.Len())
	for _, name := range s.Unlockables.Items() {
		if !s.Unlocks.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Unlock records name as completed. The milestone must be eligible and not
// already completed.
func (s *State) Unlock(name string) error {
	if !s.Unlockables.Has(name) {
		return fmt.Errorf("unlock %q: not eligible", name)
	}
	if !s.Unlocks.Add(name) {
		return fmt.Errorf("unlock %q: already completed", name)
	}
	return nil
}

// Progress describes what one call to Close added, in the order it was added.
type Progress struct {
	Found    []string
	Eligible []string
	Rounds   int
}

// Close grows state to the fixed point of the unlock rules:
//
//  1. milestones granted by found items and completed milestones become eligible;
//  2. milestones whose requirements hold against unlocks ∪ found, or that
//     have none, become eligible;
//  3. items assigned to initial slots and to completed milestones are found.
//
// It never completes a milestone. The loop is bounded by the number of
// things that can grow; overrunning the bound is reported as an error.
func Close(g *Game, choices models.Choices, state *State) (Progress, error) {
	var p Progress
	env := stateEnv{state}
	limit := g.growthBound + choices.Len()

	for {
		p.Rounds++
		if p.Rounds > limit {
			return p, fmt.Errorf("closure did not converge after %d rounds", limit)
		}
		grew := false

		eligible := func(name string) {
			if state.Unlockables.Add(name) {
				p.Eligible = append(p.Eligible, name)
				grew = true
			}
		}
		found := func(item string) {
			if state.Found.Add(item) {
				p.Found = append(p.Found, item)
				grew = true
			}
		}

		for _, item := range state.Found.Items() {
			if f, ok := g.Findable(item); ok {
				for _, name := range f.Unlocks {
					eligible(name)
				}
			}
		}
		for _, done := range state.Unlocks.Items() {
			if u, ok := g.Unlockable(done); ok {
				for _, name := range u.Unlocks {
					eligible(name)
				}
			}
		}

		for _, u := range g.Unlockables {
			if state.Unlockables.Has(u.Name) {
				continue
			}
			ok, err := requirement.Evaluate(u.Requirements, env)
			if err != nil {
				return p, fmt.Errorf("requirements of %q: %w", u.Name, err)
			}
			if ok {
				eligible(u.Name)
			}
		}

		for _, slot := range g.Initial {
			if item, ok := choices.Get(slot); ok {
				found(item)
			}
		}
		for _, done := range state.Unlocks.Items() {
			if item, ok := choices.Get(done); ok {
				found(item)
			}
		}

		if !grew {
			return p, nil
		}
	}
}

// stateEnv exposes a run state to the requirement evaluator.
type stateEnv struct {
	s *State
}

func (e stateEnv) HasToken(name string) bool {
	return e.s.Unlocks.Has(name) || e.s.Found.Has(name)
}

func (e stateEnv) MadeChoice(name string) bool { return e.s.Unlocks.Has(name) }

func (e stateEnv) GotFindable(name string) bool { return e.s.Found.Has(name) }
