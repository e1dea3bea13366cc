package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Choices is a randomized assignment of items to slots. Slots keep file order.
type Choices struct {
	Slots []string
	Items map[string]string
}

// NewChoices builds Choices from slot/item pairs given in order.
func NewChoices(pairs ...string) Choices {
	c := Choices{Items: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Set(pairs[i], pairs[i+1])
	}
	return c
}

// Set assigns item to slot, appending the slot if it is new.
func (c *Choices) Set(slot, item string) {
	if c.Items == nil {
		c.Items = make(map[string]string)
	}
	if _, ok := c.Items[slot]; !ok {
		c.Slots = append(c.Slots, slot)
	}
	c.Items[slot] = item
}

// Get returns the item assigned to slot.
func (c Choices) Get(slot string) (string, bool) {
	item, ok := c.Items[slot]
	return item, ok
}

// Len returns the number of assigned slots.
func (c Choices) Len() int { return len(c.Slots) }

// UnmarshalYAML decodes a slot → item mapping in document order.
func (c *Choices) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: choices must be a mapping of slot to item", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: item for slot %q must be a scalar", v.Line, k.Value)
		}
		c.Set(k.Value, v.Value)
	}
	return nil
}

// MarshalYAML writes the choices back as an ordered mapping.
func (c Choices) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, slot := range c.Slots {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: slot},
			&yaml.Node{Kind: yaml.ScalarNode, Value: c.Items[slot]},
		)
	}
	return node, nil
}
