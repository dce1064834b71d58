package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Data.Dir != "./data" {
		t.Errorf("Expected data dir ./data, got %s", cfg.Data.Dir)
	}
	if cfg.Generator.SampleCount != 5000 || cfg.Generator.Seed != 42 {
		t.Errorf("Unexpected generator defaults %+v", cfg.Generator)
	}
	if cfg.Model.Trees != 150 || cfg.Model.TestFraction != 0.2 {
		t.Errorf("Unexpected model defaults %+v", cfg.Model)
	}
	if cfg.Evaluator.WindowSize != 10 {
		t.Errorf("Expected window size 10, got %d", cfg.Evaluator.WindowSize)
	}
	if cfg.Evaluator.RefreshInterval != time.Second {
		t.Errorf("Expected refresh interval 1s, got %v", cfg.Evaluator.RefreshInterval)
	}
	if !cfg.Evaluator.Bootstrap {
		t.Error("Expected bootstrap enabled by default")
	}
	if cfg.Server.ListenAddr != ":8501" {
		t.Errorf("Expected listen addr :8501, got %s", cfg.Server.ListenAddr)
	}
	if cfg.DatasetPath() != filepath.Join("./data", "env_telemetry.csv") {
		t.Errorf("Unexpected dataset path %s", cfg.DatasetPath())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stabilityd.yaml")
	content := `
data:
  dir: /var/lib/stabilityd
evaluator:
  window_size: 25
  refresh_interval: 250ms
model:
  trees: 40
logging:
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Data.Dir != "/var/lib/stabilityd" {
		t.Errorf("Expected data dir from file, got %s", cfg.Data.Dir)
	}
	if cfg.Evaluator.WindowSize != 25 {
		t.Errorf("Expected window size 25, got %d", cfg.Evaluator.WindowSize)
	}
	if cfg.Evaluator.RefreshInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.Evaluator.RefreshInterval)
	}
	if cfg.Model.Trees != 40 {
		t.Errorf("Expected 40 trees, got %d", cfg.Model.Trees)
	}
	// Unset keys keep their defaults
	if cfg.Model.TestFraction != 0.2 {
		t.Errorf("Expected default test fraction, got %v", cfg.Model.TestFraction)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STABILITY_EVALUATOR_WINDOW_SIZE", "20")
	t.Setenv("STABILITY_SERVER_ENABLED", "false")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evaluator.WindowSize != 20 {
		t.Errorf("Expected window size 20 from env, got %d", cfg.Evaluator.WindowSize)
	}
	if cfg.Server.Enabled {
		t.Error("Expected server disabled from env")
	}
}

func TestLoadFlagPrecedence(t *testing.T) {
	t.Setenv("STABILITY_MODEL_TREES", "80")

	v := viper.New()
	v.Set("model.trees", 12)

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Trees != 12 {
		t.Errorf("Expected explicit value 12 to win, got %d", cfg.Model.Trees)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"one sample", func(c *Config) { c.Generator.SampleCount = 1 }},
		{"no model name", func(c *Config) { c.Model.Name = "" }},
		{"zero trees", func(c *Config) { c.Model.Trees = 0 }},
		{"test fraction one", func(c *Config) { c.Model.TestFraction = 1 }},
		{"zero leaf size", func(c *Config) { c.Model.MinSamplesLeaf = 0 }},
		{"compression level", func(c *Config) { c.Storage.CompressionLevel = 9 }},
		{"zero window", func(c *Config) { c.Evaluator.WindowSize = 0 }},
		{"zero interval", func(c *Config) { c.Evaluator.RefreshInterval = 0 }},
		{"no listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	// A disabled server needs no address
	cfg := DefaultConfig()
	cfg.Server.Enabled = false
	cfg.Server.ListenAddr = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.Seed = 7
	cfg.Model.Workers = 3

	tc := cfg.ToTrainConfig()
	if tc.Seed != 7 || tc.Trees != 150 || tc.Workers != 3 {
		t.Errorf("Unexpected train config %+v", tc)
	}

	gc := cfg.ToGeneratorConfig()
	if gc.Seed != 7 || gc.SampleCount != 5000 {
		t.Errorf("Unexpected generator config %+v", gc)
	}

	sc := cfg.ToStorageConfig()
	if sc.Path != "./data" || sc.CompressionLevel != 3 {
		t.Errorf("Unexpected storage config %+v", sc)
	}
}
