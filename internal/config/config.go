// Package config holds treefuse's run configuration: the scheduler caps,
// fusion heuristic and log level, loadable from an optional YAML file and
// overridable by CLI flags (ambient stack addition, SPEC_FULL.md).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristic selects which fusion scheduler strategy the driver runs.
type Heuristic string

const (
	Greedy         Heuristic = "greedy"
	SolelyParallel Heuristic = "solely-parallel"
)

// Config is the full set of tunables spec.md §4.6/§6 exposes, grounded on
// the teacher's own Config/DefaultConfig shape (inspector/info/config.go).
type Config struct {
	MaxMergedNodes     int       `yaml:"max_merged_nodes"`
	MaxMergedInstances int       `yaml:"max_merged_instances"`
	Heuristic          Heuristic `yaml:"heuristic"`
	LogLevel           string    `yaml:"log_level"`
}

// Default matches spec.md §4.6/§6's stated defaults.
func Default() *Config {
	return &Config{
		MaxMergedNodes:     5,
		MaxMergedInstances: 5,
		Heuristic:          Greedy,
		LogLevel:           "info",
	}
}

// Load reads an optional YAML config file over the defaults; a missing
// file is not an error (the driver runs with defaults), any other read or
// decode error is returned wrapped.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyFlags overrides file-sourced values with CLI-flag values that were
// explicitly set (CLI flags win over file config, file config wins over
// built-in defaults).
func (c *Config) ApplyFlags(maxMergedNodes, maxMergedInstances int, heuristic, logLevel string) {
	if maxMergedNodes > 0 {
		c.MaxMergedNodes = maxMergedNodes
	}
	if maxMergedInstances > 0 {
		c.MaxMergedInstances = maxMergedInstances
	}
	if heuristic != "" {
		c.Heuristic = Heuristic(heuristic)
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}
