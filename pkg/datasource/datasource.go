package datasource

import (
	"context"
	"fmt"
	"time"
)

// Source kinds
const (
	KindMetricsServer = "metrics-server"
	KindPrometheus    = "prometheus"
	KindKubectl       = "kubectl"
)

// Source fetches the raw usage report of a namespace, one
// "<instance> <cpu> <memory>" line per instance.
type Source interface {
	FetchUsage(ctx context.Context, namespace string) (string, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// Config selects and configures a source
type Config struct {
	Kind          string
	PrometheusURL string
	KubectlPath   string
	Kubeconfig    string
	RateWindow    time.Duration
}

// NewSource builds the configured source. The cluster session backs the
// metrics-server source and may be nil for the others.
func NewSource(cfg Config, cluster *Cluster) (Source, error) {
	switch cfg.Kind {
	case KindMetricsServer, "":
		if cluster == nil {
			return nil, fmt.Errorf("metrics-server source requires a cluster connection")
		}
		return NewMetricsServerSource(cluster.Metrics()), nil
	case KindPrometheus:
		return NewPrometheusSource(cfg.PrometheusURL, cfg.RateWindow)
	case KindKubectl:
		return NewKubectlSource(cfg.KubectlPath, cfg.Kubeconfig), nil
	default:
		return nil, fmt.Errorf("unknown usage source: %s", cfg.Kind)
	}
}
