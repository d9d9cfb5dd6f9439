package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HyperparamsFilepath is where named training presets are looked up.
const HyperparamsFilepath string = "hyperparams.yaml"

// PresetsFile is the YAML document holding named hyperparameter presets.
type PresetsFile struct {
	Presets []Preset `yaml:"presets"`
	Version string   `yaml:"version"`
}

// Preset is one named bundle of training and model hyperparameters.
type Preset struct {
	ID              string  `yaml:"id"`
	Epochs          int     `yaml:"epochs"`
	LearningRate    float64 `yaml:"learning_rate"`
	BatchSize       int     `yaml:"batch_size"`
	Accumulate      bool    `yaml:"accumulate"`
	UpdatesPerAccum int     `yaml:"updates_per_accum"`
	GradClip        float64 `yaml:"grad_clip"`
	HiddenUnits     int     `yaml:"hidden_units"`
	Window          int     `yaml:"window"`
}

// GetPreset loads the presets file at path and returns the preset with the
// given id.
func GetPreset(path, id string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets file: %w", err)
	}

	var file PresetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing presets file: %w", err)
	}

	for i := range file.Presets {
		if file.Presets[i].ID == id {
			return &file.Presets[i], nil
		}
	}
	return nil, fmt.Errorf("preset %q not found in %s", id, path)
}
