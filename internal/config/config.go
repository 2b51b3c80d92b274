// Package config provides unified configuration loading for twfelab studies.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/panelmetrics/twfelab/internal/simulate"
)

// StudyConfig describes one Monte-Carlo study: the parameter grid, how many
// replicates to run per configuration, seeding, parallelism, and where the
// results go.
type StudyConfig struct {
	// Grid lists the parameter values the study sweeps over.
	Grid simulate.Grid `yaml:"grid" json:"grid"`

	// NumIter is the number of Monte-Carlo replicates per configuration.
	NumIter int `yaml:"num_iter" json:"num_iter"`

	// Seed seeds the shared random generator (sequential runs) or the
	// per-replicate generators (parallel runs).
	Seed int64 `yaml:"seed" json:"seed"`

	// Workers is the number of concurrent replicate workers. Values <= 1 run
	// sequentially on one shared generator.
	Workers int `yaml:"workers" json:"workers"`

	// Output controls persistence of simulation rows and summaries.
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// OutputConfig configures where and in which formats results are written.
type OutputConfig struct {
	// Dir is the directory run artifacts are written into.
	Dir string `yaml:"dir" json:"dir"`

	// Formats lists the export formats: "sqlite", "csv", "arrow".
	Formats []string `yaml:"formats" json:"formats"`
}

// LoggingConfig configures twfelab's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables per-replicate trace logging to <dir>/trace.jsonl.
	Level string `yaml:"level" json:"level"`
}

// Default returns a StudyConfig with the baseline grid and sensible defaults.
func Default() *StudyConfig {
	return &StudyConfig{
		Grid:    simulate.DefaultGrid(),
		NumIter: 100,
		Seed:    1,
		Workers: 1,
		Output: OutputConfig{
			Dir:     "results",
			Formats: []string{"sqlite"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path when it is non-empty, otherwise returns
// the defaults. Environment variable overrides apply in both cases.
func Load(path string) (*StudyConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*StudyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid, including every parameter
// configuration the grid expands into.
func (c *StudyConfig) Validate() error {
	if c.NumIter < 1 {
		return fmt.Errorf("num_iter must be >= 1, got %d", c.NumIter)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	if _, err := c.Grid.Expand(); err != nil {
		return err
	}

	validFormats := map[string]bool{"sqlite": true, "csv": true, "arrow": true}
	for _, f := range c.Output.Formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid output format: %s (valid: sqlite, csv, arrow)", f)
		}
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *StudyConfig) {
	if v := os.Getenv("TWFELAB_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Seed = n
		}
	}

	if v := os.Getenv("TWFELAB_NUM_ITER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.NumIter = n
		}
	}

	if v := os.Getenv("TWFELAB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workers = n
		}
	}

	if v := os.Getenv("TWFELAB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
