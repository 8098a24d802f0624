// Package config loads and validates the TOML configuration that selects
// storage providers and global benchmark defaults.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where the CLI looks for configuration when no explicit
// path is given.
const DefaultPath = "config.toml"

// ProviderConfig describes a single storage provider.
type ProviderConfig struct {
	Name string `toml:"name"`
	// Type is "s3" or "local".
	Type string `toml:"type"`
	// Enabled defaults to true when absent from the file.
	Enabled *bool `toml:"enabled"`

	// S3 fields.
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`

	// Local fields.
	BasePath string `toml:"base_path"`
}

// IsEnabled reports whether the provider takes part in benchmark runs.
func (p *ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Validate checks that the fields the provider type requires are present.
func (p *ProviderConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider without a name")
	}
	switch p.Type {
	case "s3":
		if p.Endpoint == "" || p.AccessKey == "" || p.SecretKey == "" || p.Bucket == "" {
			return fmt.Errorf("s3 provider %q missing required fields: endpoint, access_key, secret_key, bucket", p.Name)
		}
	case "local":
		if p.BasePath == "" {
			return fmt.Errorf("local provider %q missing required field: base_path", p.Name)
		}
	default:
		return fmt.Errorf("provider %q has unknown type %q (want s3 or local)", p.Name, p.Type)
	}
	return nil
}

// BenchmarkConfig holds the global benchmark defaults.
type BenchmarkConfig struct {
	TestPrefix     string `toml:"test_prefix"`
	DefaultWorkers int    `toml:"default_workers"`
	CleanupAfter   bool   `toml:"cleanup_after"`
	RunsPerTest    int    `toml:"runs_per_test"`
	MaxRetries     int    `toml:"max_retries"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	DatabasePath   string `toml:"database_path"`
}

// Config is the complete configuration document.
type Config struct {
	Benchmark BenchmarkConfig  `toml:"benchmark"`
	Providers []ProviderConfig `toml:"providers"`
}

func defaults() Config {
	return Config{
		Benchmark: BenchmarkConfig{
			TestPrefix:     "benchmark-test",
			DefaultWorkers: 10,
			CleanupAfter:   true,
			RunsPerTest:    3,
			MaxRetries:     5,
			TimeoutSeconds: 300,
			DatabasePath:   "benchmark_results.db",
		},
	}
}

// Load reads the TOML file at path, applying built-in defaults for absent
// keys. A missing file is an error that points the operator at the shipped
// example.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf(
			"configuration file not found: %s (copy config.toml.example to config.toml and fill in your credentials)", path)
	}

	cfg := defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// EnabledProviders returns the providers that take part in a default run.
func (c *Config) EnabledProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range c.Providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// Provider looks a provider up by name regardless of its enabled flag.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Validate checks every enabled provider. It runs before any benchmarking
// starts so configuration mistakes never surface mid-run.
func (c *Config) Validate() error {
	for _, p := range c.EnabledProviders() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
