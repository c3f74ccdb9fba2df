package datasource

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/sirupsen/logrus"
)

const defaultRateWindow = 5 * time.Minute

// PrometheusSource derives pod usage from cAdvisor series in Prometheus
type PrometheusSource struct {
	client     v1.API
	url        string
	rateWindow time.Duration
}

func NewPrometheusSource(url string, rateWindow time.Duration) (*PrometheusSource, error) {
	if url == "" {
		return nil, fmt.Errorf("prometheus URL is required")
	}

	client, err := api.NewClient(api.Config{
		Address: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	if rateWindow <= 0 {
		rateWindow = defaultRateWindow
	}

	return &PrometheusSource{
		client:     v1.NewAPI(client),
		url:        url,
		rateWindow: rateWindow,
	}, nil
}

// FetchUsage queries per-pod CPU rate and working set memory for a namespace
func (p *PrometheusSource) FetchUsage(ctx context.Context, namespace string) (string, error) {
	selector := fmt.Sprintf(`namespace=%q,container!="",container!="POD"`, namespace)

	cpuQuery := fmt.Sprintf(`sum by (pod) (rate(container_cpu_usage_seconds_total{%s}[%s]))`,
		selector, model.Duration(p.rateWindow))
	cpu, err := p.queryByPod(ctx, cpuQuery)
	if err != nil {
		return "", fmt.Errorf("CPU query failed: %w", err)
	}

	memQuery := fmt.Sprintf(`sum by (pod) (container_memory_working_set_bytes{%s})`, selector)
	mem, err := p.queryByPod(ctx, memQuery)
	if err != nil {
		return "", fmt.Errorf("memory query failed: %w", err)
	}

	// a pod that just started may have a working set but no CPU rate yet
	pods := make([]string, 0, len(cpu))
	for pod := range cpu {
		pods = append(pods, pod)
	}
	for pod := range mem {
		if _, ok := cpu[pod]; !ok {
			pods = append(pods, pod)
		}
	}
	sort.Strings(pods)

	var b strings.Builder
	for _, pod := range pods {
		cpuMilli := int64(math.Round(cpu[pod] * 1000))
		memKi := int64(mem[pod]) / 1024
		fmt.Fprintf(&b, "%s %dm %dKi\n", pod, cpuMilli, memKi)
	}
	return b.String(), nil
}

func (p *PrometheusSource) queryByPod(ctx context.Context, query string) (map[string]float64, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		logrus.WithField("query", query).Warnf("Prometheus: %v", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for query: %s", result.Type(), query)
	}

	out := make(map[string]float64, len(vector))
	for _, sample := range vector {
		pod := string(sample.Metric["pod"])
		if pod == "" {
			continue
		}
		out[pod] += float64(sample.Value)
	}
	return out, nil
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
