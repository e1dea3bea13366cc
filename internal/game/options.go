package game

import (
	"fmt"
	"strings"

	"github.com/nvandessel/randosim/internal/models"
)

// SlotItem pairs a slot with its assigned item.
type SlotItem struct {
	Slot string `json:"slot" yaml:"slot"`
	Item string `json:"item" yaml:"item"`
}

// Options lists what a description offers, and, when choices are given,
// how the randomizer filled it.
type Options struct {
	// Without choices.
	Unlockables []string `json:"unlockables,omitempty" yaml:"unlockables,omitempty"`
	Findables   []string `json:"findables,omitempty" yaml:"findables,omitempty"`
	Initial     []string `json:"initial,omitempty" yaml:"initial,omitempty"`

	// With choices.
	InitialItems []SlotItem `json:"initial_items,omitempty" yaml:"initial_items,omitempty"`
	Assigned     []SlotItem `json:"assigned,omitempty" yaml:"assigned,omitempty"`
	Unassigned   []string   `json:"unassigned,omitempty" yaml:"unassigned,omitempty"`

	HasChoices bool `json:"has_choices" yaml:"has_choices"`
}

// DescribeOptions builds the option listing. choices may be nil.
func DescribeOptions(g *Game, choices *models.Choices) Options {
	if choices == nil {
		o := Options{Initial: append([]string(nil), g.Initial...)}
		for _, u := range g.Unlockables {
			o.Unlockables = append(o.Unlockables, u.Name)
		}
		for _, f := range g.Findables {
			o.Findables = append(o.Findables, f.Name)
		}
		return o
	}

	o := Options{HasChoices: true}
	for _, slot := range g.Initial {
		item, _ := choices.Get(slot)
		o.InitialItems = append(o.InitialItems, SlotItem{Slot: slot, Item: item})
	}
	for _, u := range g.Unlockables {
		if item, ok := choices.Get(u.Name); ok {
			o.Assigned = append(o.Assigned, SlotItem{Slot: u.Name, Item: item})
		} else {
			o.Unassigned = append(o.Unassigned, u.Name)
		}
	}
	return o
}

// String renders the listing as sections separated by rules.
func (o Options) String() string {
	var sb strings.Builder
	section := func(title string, items []string) {
		if sb.Len() > 0 {
			sb.WriteString("----------\n")
		}
		fmt.Fprintf(&sb, "%s:\n%s\n", title, strings.Join(items, ", "))
	}
	pairs := func(ps []SlotItem) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Slot + ": " + p.Item
		}
		return out
	}

	if !o.HasChoices {
		sb.WriteString("No choices provided, showing available options.\n")
		fmt.Fprintf(&sb, "All unlockables:\n%s\n", strings.Join(o.Unlockables, ", "))
		section("All findables", o.Findables)
		section("Initial unlocks", o.Initial)
		return sb.String()
	}
	section("Initial unlocks + findables", pairs(o.InitialItems))
	section("All unlockables with findables", pairs(o.Assigned))
	section("All other unlockables", o.Unassigned)
	return sb.String()
}
