package datasource

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"
)

// MetricsServerSource reads current pod usage from metrics.k8s.io
type MetricsServerSource struct {
	client metricsv.Interface
}

func NewMetricsServerSource(client metricsv.Interface) *MetricsServerSource {
	return &MetricsServerSource{client: client}
}

// FetchUsage lists the pod metrics of a namespace and renders one line per
// pod with container usage summed.
func (m *MetricsServerSource) FetchUsage(ctx context.Context, namespace string) (string, error) {
	podMetrics, err := m.client.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get pod metrics: %w", err)
	}
	return renderPodMetrics(podMetrics.Items), nil
}

func renderPodMetrics(items []metricsv1beta1.PodMetrics) string {
	var b strings.Builder
	for _, pm := range items {
		var cpuMilli, memBytes int64
		for _, container := range pm.Containers {
			if cpu := container.Usage.Cpu(); cpu != nil {
				cpuMilli += cpu.MilliValue()
			}
			if mem := container.Usage.Memory(); mem != nil {
				memBytes += mem.Value()
			}
		}
		fmt.Fprintf(&b, "%s %dm %dKi\n", pm.Name, cpuMilli, memBytes/1024)
	}
	return b.String()
}

func (m *MetricsServerSource) IsAvailable(ctx context.Context) bool {
	_, err := m.client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{Limit: 1})
	return err == nil
}

func (m *MetricsServerSource) Name() string {
	return "metrics-server"
}
