package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/opscart/k8s-usage-reporter/pkg/analyzer"
)

func podMetrics(name string, usage ...[2]string) metricsv1beta1.PodMetrics {
	pm := metricsv1beta1.PodMetrics{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"}}
	for i, u := range usage {
		pm.Containers = append(pm.Containers, metricsv1beta1.ContainerMetrics{
			Name: string(rune('a' + i)),
			Usage: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(u[0]),
				corev1.ResourceMemory: resource.MustParse(u[1]),
			},
		})
	}
	return pm
}

func TestRenderPodMetricsSumsContainers(t *testing.T) {
	text := renderPodMetrics([]metricsv1beta1.PodMetrics{
		podMetrics("web-7d4b8c9f6b-a", [2]string{"100m", "64Mi"}, [2]string{"50m", "32Mi"}),
		podMetrics("web-7d4b8c9f6b-b", [2]string{"1", "1Gi"}),
	})

	assert.Equal(t, "web-7d4b8c9f6b-a 150m 98304Ki\nweb-7d4b8c9f6b-b 1000m 1048576Ki\n", text)
}

func TestMetricsServerSourceFeedsAnalyzer(t *testing.T) {
	client := metricsfake.NewSimpleClientset()
	client.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, &metricsv1beta1.PodMetricsList{Items: []metricsv1beta1.PodMetrics{
			podMetrics("web-7d4b8c9f6b-a", [2]string{"100m", "64Mi"}),
			podMetrics("web-7d4b8c9f6b-b", [2]string{"200m", "64Mi"}),
		}}, nil
	})

	text, err := NewMetricsServerSource(client).FetchUsage(context.Background(), "default")
	require.NoError(t, err)

	result := analyzer.Analyze("default", text)
	require.Len(t, result.Workloads, 1)
	assert.Equal(t, int64(300), result.Workloads[0].TotalCPUMillicores)
	assert.Equal(t, int64(128), result.Workloads[0].TotalMemoryMebibytes)
}

func TestMetricsServerSourceError(t *testing.T) {
	client := metricsfake.NewSimpleClientset()
	client.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("metrics not available")
	})

	_, err := NewMetricsServerSource(client).FetchUsage(context.Background(), "default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics not available")
}
