package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "USAGE"

// Sink kinds
const (
	SinkLocal    = "local"
	SinkPostgres = "postgres"
	SinkNone     = "none"
)

var sources = []string{"metrics-server", "prometheus", "kubectl"}

// Config holds application configuration
type Config struct {
	// Cluster
	ClusterID  string `mapstructure:"cluster_id" yaml:"cluster_id"`
	Region     string `mapstructure:"region" yaml:"region"`
	Kubeconfig string `mapstructure:"kubeconfig" yaml:"kubeconfig"`

	// Usage source
	Source        string        `mapstructure:"source" yaml:"source"`
	PrometheusURL string        `mapstructure:"prometheus_url" yaml:"prometheus_url"`
	RateWindow    time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
	KubectlPath   string        `mapstructure:"kubectl_path" yaml:"kubectl_path"`

	// Scan
	NamespaceFilter   []string      `mapstructure:"namespace_filter" yaml:"namespace_filter"`
	ExcludeNamespaces []string      `mapstructure:"exclude_namespaces" yaml:"exclude_namespaces"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`

	// Output
	Sink            string `mapstructure:"sink" yaml:"sink"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`
	OutputFormat    string `mapstructure:"output_format" yaml:"output_format"`
	DatabaseURL     string `mapstructure:"database_url" yaml:"database_url"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
}

// Load reads configuration from an optional YAML file with environment
// variable overrides. An empty path falls back to USAGE_CONFIG_FILE.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Unprefixed names kept for existing deployments
	_ = v.BindEnv("prometheus_url", EnvPrefix+"_PROMETHEUS_URL", "PROMETHEUS_URL")
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("storage_enabled", EnvPrefix+"_STORAGE_ENABLED", "STORAGE_ENABLED")
	_ = v.BindEnv("kubeconfig", EnvPrefix+"_KUBECONFIG")

	if configPath == "" {
		configPath = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	v.SetDefault("source", "metrics-server")
	v.SetDefault("rate_window", "5m")
	v.SetDefault("kubectl_path", "kubectl")
	v.SetDefault("concurrency", 4)
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("sink", SinkLocal)
	v.SetDefault("output_dir", "reports")
	v.SetDefault("output_format", "json")

	cfg := &Config{
		ClusterID:         v.GetString("cluster_id"),
		Region:            v.GetString("region"),
		Kubeconfig:        v.GetString("kubeconfig"),
		Source:            v.GetString("source"),
		PrometheusURL:     v.GetString("prometheus_url"),
		RateWindow:        v.GetDuration("rate_window"),
		KubectlPath:       v.GetString("kubectl_path"),
		NamespaceFilter:   getList(v, "namespace_filter"),
		ExcludeNamespaces: getList(v, "exclude_namespaces"),
		Concurrency:       v.GetInt("concurrency"),
		FetchTimeout:      v.GetDuration("fetch_timeout"),
		Sink:              v.GetString("sink"),
		OutputDir:         v.GetString("output_dir"),
		OutputFormat:      v.GetString("output_format"),
		DatabaseURL:       v.GetString("database_url"),
		MetricsTextfile:   v.GetString("metrics_textfile"),
	}

	// STORAGE_ENABLED=false turns persistence off regardless of the sink
	if v.IsSet("storage_enabled") && !v.GetBool("storage_enabled") {
		cfg.Sink = SinkNone
	}

	return cfg, nil
}

// getList accepts both YAML sequences and comma-separated env values
func getList(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	s, ok := raw.(string)
	if !ok {
		return v.GetStringSlice(key)
	}

	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if !contains(sources, c.Source) {
		return fmt.Errorf("unknown source %q (want one of %s)", c.Source, strings.Join(sources, ", "))
	}
	if c.Source == "prometheus" && c.PrometheusURL == "" {
		return fmt.Errorf("PROMETHEUS_URL must be set when source is prometheus")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	switch c.Sink {
	case SinkLocal:
		if c.OutputDir == "" {
			return fmt.Errorf("output_dir must be set when sink is local")
		}
		if _, err := reporter.ParseFormat(c.OutputFormat); err != nil {
			return err
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when sink is postgres")
		}
	case SinkNone:
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
