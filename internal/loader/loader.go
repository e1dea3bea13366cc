// Package loader reads game descriptions, simulation specs, and choice files.
//
// Files may be YAML or JSON. Both are decoded through gopkg.in/yaml.v3 so
// that mapping order survives into the models.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/simulation"
)

// LoadGame reads a game description file.
func LoadGame(path string) (models.GameDescription, error) {
	var desc models.GameDescription
	if err := loadFile(path, &desc); err != nil {
		return models.GameDescription{}, err
	}
	return desc, nil
}

// LoadSimulation reads a simulation spec file.
func LoadSimulation(path string) (models.SimulationSpec, error) {
	var spec models.SimulationSpec
	if err := loadFile(path, &spec); err != nil {
		return models.SimulationSpec{}, err
	}
	return spec, nil
}

// LoadChoices reads a slot → item assignment file.
func LoadChoices(path string) (models.Choices, error) {
	var c models.Choices
	if err := loadFile(path, &c); err != nil {
		return models.Choices{}, err
	}
	return c, nil
}

// LoadChoiceFiles reads every choice file, named by its path, in order.
func LoadChoiceFiles(paths []string) ([]simulation.ChoiceFile, error) {
	files := make([]simulation.ChoiceFile, 0, len(paths))
	for _, p := range paths {
		c, err := LoadChoices(p)
		if err != nil {
			return nil, err
		}
		files = append(files, simulation.ChoiceFile{Name: p, Choices: c})
	}
	return files, nil
}

// DecodeGame decodes a game description from YAML or JSON text.
func DecodeGame(data []byte) (models.GameDescription, error) {
	var desc models.GameDescription
	if err := decode(data, &desc); err != nil {
		return models.GameDescription{}, fmt.Errorf("decode game description: %w", err)
	}
	return desc, nil
}

// DecodeSimulation decodes a simulation spec from YAML or JSON text.
func DecodeSimulation(data []byte) (models.SimulationSpec, error) {
	var spec models.SimulationSpec
	if err := decode(data, &spec); err != nil {
		return models.SimulationSpec{}, fmt.Errorf("decode simulation spec: %w", err)
	}
	return spec, nil
}

// DecodeChoices decodes a choice assignment from YAML or JSON text.
func DecodeChoices(data []byte) (models.Choices, error) {
	var c models.Choices
	if err := decode(data, &c); err != nil {
		return models.Choices{}, fmt.Errorf("decode choices: %w", err)
	}
	return c, nil
}

func loadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data = untab(data)
	}
	if err := decode(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decode(data []byte, v any) error {
	if looksLikeJSON(data) {
		data = untab(data)
	}
	return yaml.Unmarshal(data, v)
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// untab replaces tab indentation, which YAML rejects. Valid JSON never holds
// a raw tab inside a string, so this cannot change any value.
func untab(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
}
