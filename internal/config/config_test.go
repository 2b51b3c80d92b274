package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panelmetrics/twfelab/internal/panel"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.NumIter != 100 {
		t.Errorf("expected NumIter 100, got %d", config.NumIter)
	}
	if config.Seed != 1 {
		t.Errorf("expected Seed 1, got %d", config.Seed)
	}
	if config.Workers != 1 {
		t.Errorf("expected Workers 1, got %d", config.Workers)
	}
	if config.Output.Dir != "results" {
		t.Errorf("expected output dir 'results', got %q", config.Output.Dir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %q", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "study.yaml")

	configContent := `
grid:
  num_units: [20, 50]
  num_periods: [12]
  sigma_eps: [1]
  p_treat: [0.5]
  staggered: [true]
  het_unit: [homogeneous, large_first]
  het_time: [constant]
  alpha: [1]
  beta: [2]

num_iter: 25
seed: 42
workers: 4

output:
  dir: out
  formats: [sqlite, csv]

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.NumIter != 25 {
		t.Errorf("expected NumIter 25, got %d", config.NumIter)
	}
	if config.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Seed)
	}
	if len(config.Grid.NumUnits) != 2 || config.Grid.NumUnits[1] != 50 {
		t.Errorf("unexpected num_units: %v", config.Grid.NumUnits)
	}
	if len(config.Grid.HetUnit) != 2 || config.Grid.HetUnit[1] != panel.HetUnitLargeFirst {
		t.Errorf("unexpected het_unit: %v", config.Grid.HetUnit)
	}
	if config.Output.Dir != "out" {
		t.Errorf("expected output dir 'out', got %q", config.Output.Dir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %q", config.Logging.Level)
	}

	configs, err := config.Grid.Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(configs) != 4 {
		t.Errorf("expected 4 configurations, got %d", len(configs))
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StudyConfig)
	}{
		{"zero iterations", func(c *StudyConfig) { c.NumIter = 0 }},
		{"negative workers", func(c *StudyConfig) { c.Workers = -1 }},
		{"bad format", func(c *StudyConfig) { c.Output.Formats = []string{"parquet"} }},
		{"bad log level", func(c *StudyConfig) { c.Logging.Level = "verbose" }},
		{"bad grid value", func(c *StudyConfig) { c.Grid.HetTime = []panel.HetTime{"hyperbolic"} }},
		{"empty grid dimension", func(c *StudyConfig) { c.Grid.PTreat = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TWFELAB_SEED", "777")
	t.Setenv("TWFELAB_NUM_ITER", "9")
	t.Setenv("TWFELAB_WORKERS", "3")
	t.Setenv("TWFELAB_LOG_LEVEL", "trace")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if config.Seed != 777 {
		t.Errorf("expected Seed 777, got %d", config.Seed)
	}
	if config.NumIter != 9 {
		t.Errorf("expected NumIter 9, got %d", config.NumIter)
	}
	if config.Workers != 3 {
		t.Errorf("expected Workers 3, got %d", config.Workers)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected log level 'trace', got %q", config.Logging.Level)
	}
}
