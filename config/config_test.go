package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "disk"
type = "local"
base_path = "/tmp/bench"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "benchmark-test", cfg.Benchmark.TestPrefix)
	assert.Equal(t, 10, cfg.Benchmark.DefaultWorkers)
	assert.True(t, cfg.Benchmark.CleanupAfter)
	assert.Equal(t, 3, cfg.Benchmark.RunsPerTest)
	assert.Equal(t, 5, cfg.Benchmark.MaxRetries)
	assert.Equal(t, 300, cfg.Benchmark.TimeoutSeconds)
	assert.Equal(t, "benchmark_results.db", cfg.Benchmark.DatabasePath)
	require.Len(t, cfg.Providers, 1)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[benchmark]
test_prefix = "pfx"
default_workers = 4
cleanup_after = false
runs_per_test = 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pfx", cfg.Benchmark.TestPrefix)
	assert.Equal(t, 4, cfg.Benchmark.DefaultWorkers)
	assert.False(t, cfg.Benchmark.CleanupAfter)
	assert.Equal(t, 1, cfg.Benchmark.RunsPerTest)
	// Keys the file does not set keep their defaults.
	assert.Equal(t, 5, cfg.Benchmark.MaxRetries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.toml.example")
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `[benchmark`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnabledDefaultsToTrue(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "on-by-default"
type = "local"
base_path = "/tmp/a"

[[providers]]
name = "off"
type = "local"
base_path = "/tmp/b"
enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	enabled := cfg.EnabledProviders()
	require.Len(t, enabled, 1)
	assert.Equal(t, "on-by-default", enabled[0].Name)
}

func TestProviderLookupIgnoresEnabledFlag(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "off"
type = "local"
base_path = "/tmp/b"
enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	p, ok := cfg.Provider("off")
	assert.True(t, ok)
	assert.Equal(t, "off", p.Name)

	_, ok = cfg.Provider("absent")
	assert.False(t, ok)
}

func TestProviderValidate(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderConfig
		wantErr  string
	}{
		{
			name: "valid s3",
			provider: ProviderConfig{
				Name: "s", Type: "s3",
				Endpoint: "https://s3.example.com", AccessKey: "a", SecretKey: "s", Bucket: "b",
			},
		},
		{
			name:     "valid local",
			provider: ProviderConfig{Name: "l", Type: "local", BasePath: "/tmp"},
		},
		{
			name:     "missing name",
			provider: ProviderConfig{Type: "local", BasePath: "/tmp"},
			wantErr:  "without a name",
		},
		{
			name: "s3 missing bucket",
			provider: ProviderConfig{
				Name: "s", Type: "s3",
				Endpoint: "https://s3.example.com", AccessKey: "a", SecretKey: "s",
			},
			wantErr: "missing required fields",
		},
		{
			name:     "local missing base path",
			provider: ProviderConfig{Name: "l", Type: "local"},
			wantErr:  "base_path",
		},
		{
			name:     "unknown type",
			provider: ProviderConfig{Name: "x", Type: "ftp"},
			wantErr:  "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.provider.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigValidateSkipsDisabledProviders(t *testing.T) {
	disabled := false
	cfg := &Config{Providers: []ProviderConfig{
		{Name: "ok", Type: "local", BasePath: "/tmp"},
		{Name: "broken", Type: "s3", Enabled: &disabled},
	}}
	assert.NoError(t, cfg.Validate())

	cfg.Providers[1].Enabled = nil
	assert.Error(t, cfg.Validate())
}
