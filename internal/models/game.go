package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GameDescription is the static description of a randomized game. Entries
// keep the order in which they appear in the source document.
type GameDescription struct {
	// Findables are items a player can acquire.
	Findables []Findable `json:"findables" yaml:"findables"`

	// Unlockables are milestones, possibly gated by requirements.
	Unlockables []Unlockable `json:"unlockables" yaml:"unlockables"`

	// Initial lists the slots whose assigned item is found at game start.
	Initial []string `json:"initial" yaml:"initial"`
}

// Findable is an item that can be acquired during play.
type Findable struct {
	Name string `json:"name" yaml:"name"`

	// Unlocks are milestones granted directly once the item is found.
	Unlocks []string `json:"unlocks,omitempty" yaml:"unlocks,omitempty"`
}

// Unlockable is a named progress gate.
type Unlockable struct {
	Name string `json:"name" yaml:"name"`

	// Requirements is the raw requirement expression as decoded from the file.
	// Nil when the milestone has no requirements key and is always eligible.
	Requirements any `json:"requirements,omitempty" yaml:"requirements,omitempty"`

	// HasRequirements distinguishes an absent key from an explicit null.
	HasRequirements bool `json:"-" yaml:"-"`

	// Unlocks are milestones granted directly once this one is completed.
	Unlocks []string `json:"unlocks,omitempty" yaml:"unlocks,omitempty"`
}

// UnmarshalYAML decodes the findables/unlockables/initial mappings while
// keeping their key order.
func (g *GameDescription) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: game description must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "findables":
			g.Findables, err = decodeFindables(value)
		case "unlockables":
			g.Unlockables, err = decodeUnlockables(value)
		case "initial":
			g.Initial, err = keysOrItems(value)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func decodeFindables(node *yaml.Node) ([]Findable, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	out := make([]Findable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		f := Findable{Name: node.Content[i].Value}
		if body := node.Content[i+1]; !isNull(body) {
			var raw struct {
				Unlocks []string `yaml:"unlocks"`
			}
			if err := body.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			f.Unlocks = raw.Unlocks
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeUnlockables(node *yaml.Node) ([]Unlockable, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	out := make([]Unlockable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		u := Unlockable{Name: node.Content[i].Value}
		if body := node.Content[i+1]; !isNull(body) {
			var raw struct {
				Requirements yaml.Node `yaml:"requirements"`
				Unlocks      []string  `yaml:"unlocks"`
			}
			if err := body.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%s: %w", u.Name, err)
			}
			u.Unlocks = raw.Unlocks
			if raw.Requirements.Kind != 0 {
				u.HasRequirements = true
				if err := raw.Requirements.Decode(&u.Requirements); err != nil {
					return nil, fmt.Errorf("%s: requirements: %w", u.Name, err)
				}
			}
		}
		out = append(out, u)
	}
	return out, nil
}

// keysOrItems returns mapping keys in order, or the items of a sequence.
func keysOrItems(node *yaml.Node) ([]string, error) {
	switch {
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.MappingNode:
		keys := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keys = append(keys, node.Content[i].Value)
		}
		return keys, nil
	case node.Kind == yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or sequence", node.Line)
	}
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}
