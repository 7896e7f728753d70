// Package config loads analysis and planner defaults from a YAML
// settings file, ported from the teacher's WeightsConfig/DefaultWeights/
// loadWeights/saveWeights (JSON persistence) onto gopkg.in/yaml.v3, the
// configuration library the rest of the pack standardizes on.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// PlannerWeights holds user-tunable bar-length preferences; unlike the
// teacher's type_weights (a randomized-candidate scoring input), this
// repository's planner is deterministic, so only bar_weights survives
// as a tie-break hint a host UI may expose, not an algorithm input.
type PlannerWeights struct {
	BarWeights map[int]float64 `yaml:"bar_weights"`
}

// Settings is the full on-disk configuration.
type Settings struct {
	MaxAnalyzeTime float64        `yaml:"max_analyze_time"`
	IncludeTail    bool           `yaml:"include_tail"`
	FFmpegPath     string         `yaml:"ffmpeg_path"`
	Planner        PlannerWeights `yaml:"planner"`
}

// Default returns the factory settings.
func Default() Settings {
	return Settings{
		MaxAnalyzeTime: 60,
		IncludeTail:    true,
		FFmpegPath:     "ffmpeg",
		Planner: PlannerWeights{
			BarWeights: map[int]float64{4: 1.0, 8: 1.3},
		},
	}
}

// Load reads settings from path, falling back to defaults when the
// file does not exist or fails to parse.
func Load(path string) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save persists settings to path as YAML.
func Save(path string, cfg Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clamp applies the [5, 300] second bound §4.D places on
// max_analyze_time.
func (s Settings) Clamp() Settings {
	if s.MaxAnalyzeTime < 5 {
		s.MaxAnalyzeTime = 5
	}
	if s.MaxAnalyzeTime > 300 {
		s.MaxAnalyzeTime = 300
	}
	return s
}
