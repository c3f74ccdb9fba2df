package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"USAGE_CONFIG_FILE", "USAGE_CLUSTER_ID", "USAGE_SOURCE", "USAGE_CONCURRENCY",
	"USAGE_FETCH_TIMEOUT", "USAGE_NAMESPACE_FILTER", "USAGE_SINK",
	"PROMETHEUS_URL", "USAGE_PROMETHEUS_URL", "DATABASE_URL", "USAGE_DATABASE_URL",
	"STORAGE_ENABLED", "USAGE_STORAGE_ENABLED",
}

// clearEnv unsets the variables Load reads, restoring them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "metrics-server", cfg.Source)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RateWindow)
	assert.Equal(t, SinkLocal, cfg.Sink)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Empty(t, cfg.NamespaceFilter)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("USAGE_CLUSTER_ID", "prod-east")
	t.Setenv("USAGE_SOURCE", "prometheus")
	t.Setenv("PROMETHEUS_URL", "http://prometheus:9090")
	t.Setenv("USAGE_CONCURRENCY", "8")
	t.Setenv("USAGE_FETCH_TIMEOUT", "10s")
	t.Setenv("USAGE_NAMESPACE_FILTER", "default, jobs")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "prod-east", cfg.ClusterID)
	assert.Equal(t, "prometheus", cfg.Source)
	assert.Equal(t, "http://prometheus:9090", cfg.PrometheusURL)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"default", "jobs"}, cfg.NamespaceFilter)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "usage.yaml")
	content := `cluster_id: staging
region: eu-west-1
source: kubectl
exclude_namespaces:
  - kube-system
  - kube-public
sink: postgres
database_url: postgres://localhost/usage
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.ClusterID)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "kubectl", cfg.Source)
	assert.Equal(t, []string{"kube-system", "kube-public"}, cfg.ExcludeNamespaces)
	assert.Equal(t, SinkPostgres, cfg.Sink)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileFromEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "usage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cluster_id: from-file\n"), 0o600))
	t.Setenv("USAGE_CONFIG_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ClusterID)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStorageDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SinkNone, cfg.Sink)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source:       "metrics-server",
			Concurrency:  4,
			FetchTimeout: 30 * time.Second,
			Sink:         SinkLocal,
			OutputDir:    "reports",
			OutputFormat: "json",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown source", func(c *Config) { c.Source = "statsd" }, "unknown source"},
		{"prometheus without url", func(c *Config) { c.Source = "prometheus" }, "PROMETHEUS_URL"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, "fetch timeout"},
		{"postgres without dsn", func(c *Config) { c.Sink = SinkPostgres }, "DATABASE_URL"},
		{"local without dir", func(c *Config) { c.OutputDir = "" }, "output_dir"},
		{"bad format", func(c *Config) { c.OutputFormat = "pdf" }, "unsupported report format"},
		{"unknown sink", func(c *Config) { c.Sink = "s3" }, "unknown sink"},
		{"no sink", func(c *Config) { c.Sink = SinkNone; c.OutputDir = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
