package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vjranagit/detector-stability/pkg/generator"
	"github.com/vjranagit/detector-stability/pkg/stability"
	"github.com/vjranagit/detector-stability/pkg/storage"
)

// Config holds the application configuration
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Model     ModelConfig     `mapstructure:"model"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DataConfig holds artifact locations
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// GeneratorConfig holds telemetry generation settings
type GeneratorConfig struct {
	SampleCount int    `mapstructure:"sample_count"`
	Seed        uint64 `mapstructure:"seed"`
}

// ModelConfig holds training settings
type ModelConfig struct {
	Name           string  `mapstructure:"name"`
	Trees          int     `mapstructure:"trees"`
	TestFraction   float64 `mapstructure:"test_fraction"`
	MaxDepth       int     `mapstructure:"max_depth"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf"`
	Workers        int     `mapstructure:"workers"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	CompressionLevel int `mapstructure:"compression_level"`
}

// EvaluatorConfig holds streaming evaluation settings
type EvaluatorConfig struct {
	WindowSize      int           `mapstructure:"window_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheCapacity   int           `mapstructure:"cache_capacity"`
	Bootstrap       bool          `mapstructure:"bootstrap"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "./data")
	v.SetDefault("generator.sample_count", 5000)
	v.SetDefault("generator.seed", 42)
	v.SetDefault("model.name", "stability")
	v.SetDefault("model.trees", 150)
	v.SetDefault("model.test_fraction", 0.2)
	v.SetDefault("model.max_depth", 0)
	v.SetDefault("model.min_samples_leaf", 1)
	v.SetDefault("model.workers", 0)
	v.SetDefault("storage.compression_level", 3)
	v.SetDefault("evaluator.window_size", 10)
	v.SetDefault("evaluator.refresh_interval", "1s")
	v.SetDefault("evaluator.cache_capacity", 64)
	v.SetDefault("evaluator.bootstrap", true)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.listen_addr", ":8501")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration into v from defaults, an optional file and
// environment variables (STABILITY_EVALUATOR_WINDOW_SIZE=20). Flags bound to v
// beforehand take precedence. A nil v starts from a fresh instance.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("stabilityd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/stabilityd")
	}

	v.SetEnvPrefix("STABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return FromViper(v)
}

// FromViper decodes and validates a configuration
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}

	if c.Generator.SampleCount < 2 {
		return fmt.Errorf("sample count must be at least 2")
	}

	if c.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}

	if c.Model.Trees < 1 {
		return fmt.Errorf("tree count must be at least 1")
	}

	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be between 0 and 1 exclusive")
	}

	if c.Model.MinSamplesLeaf < 1 {
		return fmt.Errorf("min samples per leaf must be at least 1")
	}

	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if c.Evaluator.WindowSize < 1 {
		return fmt.Errorf("window size must be at least 1")
	}

	if c.Evaluator.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	if c.Server.Enabled && c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	return nil
}

// DatasetPath returns the well-known dataset location
func (c *Config) DatasetPath() string {
	return filepath.Join(c.Data.Dir, storage.DatasetFile)
}

// ToStorageConfig converts to storage.Config
func (c *Config) ToStorageConfig() *storage.Config {
	return &storage.Config{
		Path:             c.Data.Dir,
		CompressionLevel: c.Storage.CompressionLevel,
	}
}

// ToGeneratorConfig converts to generator.Config
func (c *Config) ToGeneratorConfig() generator.Config {
	return generator.Config{
		SampleCount: c.Generator.SampleCount,
		Seed:        c.Generator.Seed,
	}
}

// ToTrainConfig converts to stability.TrainConfig. The split and the forest
// share the generator seed.
func (c *Config) ToTrainConfig() stability.TrainConfig {
	return stability.TrainConfig{
		Trees:          c.Model.Trees,
		TestFraction:   c.Model.TestFraction,
		Seed:           c.Generator.Seed,
		MaxDepth:       c.Model.MaxDepth,
		MinSamplesLeaf: c.Model.MinSamplesLeaf,
		Workers:        c.Model.Workers,
	}
}
