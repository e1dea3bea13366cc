// Package game compiles a game description into its runtime form and
// computes the unlock closure of a run's state.
package game

import (
	"fmt"

	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/requirement"
)

// Game is a compiled, read-only game description. It is safe to share
// between concurrent runs.
type Game struct {
	Findables   []Findable
	Unlockables []Unlockable
	Initial     []string

	findables   map[string]int
	unlockables map[string]int

	// growthBound caps closure rounds: every productive round adds at
	// least one name, and names come from the description or the choices.
	growthBound int
}

// Findable is an item and the milestones it grants.
type Findable struct {
	Name    string
	Unlocks []string
}

// Unlockable is a milestone with its compiled requirements. A nil
// Requirements means always eligible.
type Unlockable struct {
	Name         string
	Requirements requirement.Expr
	Unlocks      []string
}

// Compile parses every requirement expression in desc. Errors wrap
// requirement.ErrMalformedRequirements or requirement.ErrMalformedExpression
// and name the offending milestone.
func Compile(desc models.GameDescription) (*Game, error) {
	g := &Game{
		Findables:   make([]Findable, 0, len(desc.Findables)),
		Unlockables: make([]Unlockable, 0, len(desc.Unlockables)),
		Initial:     append([]string(nil), desc.Initial...),
		findables:   make(map[string]int, len(desc.Findables)),
		unlockables: make(map[string]int, len(desc.Unlockables)),
	}

	for _, f := range desc.Findables {
		g.findables[f.Name] = len(g.Findables)
		g.Findables = append(g.Findables, Findable{Name: f.Name, Unlocks: f.Unlocks})
		g.growthBound += len(f.Unlocks)
	}

	for _, u := range desc.Unlockables {
		cu := Unlockable{Name: u.Name, Unlocks: u.Unlocks}
		if u.HasRequirements {
			expr, err := requirement.Parse(u.Requirements)
			if err != nil {
				return nil, fmt.Errorf("unlockable %q: %w", u.Name, err)
			}
			cu.Requirements = expr
		}
		g.unlockables[u.Name] = len(g.Unlockables)
		g.Unlockables = append(g.Unlockables, cu)
		g.growthBound += len(u.Unlocks)
	}
	g.growthBound += len(g.Unlockables) + 2

	return g, nil
}

// Findable looks up an item by name.
func (g *Game) Findable(name string) (Findable, bool) {
	i, ok := g.findables[name]
	if !ok {
		return Findable{}, false
	}
	return g.Findables[i], true
}

// Unlockable looks up a milestone by name.
func (g *Game) Unlockable(name string) (Unlockable, bool) {
	i, ok := g.unlockables[name]
	if !ok {
		return Unlockable{}, false
	}
	return g.Unlockables[i], true
}
