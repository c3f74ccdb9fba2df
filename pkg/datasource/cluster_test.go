package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"
)

func namespace(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

func TestClusterListNamespaces(t *testing.T) {
	clientset := fake.NewSimpleClientset(namespace("default"), namespace("jobs"), namespace("kube-system"))
	cluster := NewCluster(clientset, metricsfake.NewSimpleClientset())
	defer cluster.Close()

	namespaces, err := cluster.ListNamespaces(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "jobs", "kube-system"}, namespaces)
}

func TestClusterListNamespacesError(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "namespaces", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("unauthorized")
	})
	cluster := NewCluster(clientset, nil)

	_, err := cluster.ListNamespaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestNewSource(t *testing.T) {
	cluster := NewCluster(fake.NewSimpleClientset(), metricsfake.NewSimpleClientset())

	src, err := NewSource(Config{Kind: KindMetricsServer}, cluster)
	require.NoError(t, err)
	assert.Equal(t, "metrics-server", src.Name())

	src, err = NewSource(Config{Kind: KindKubectl}, nil)
	require.NoError(t, err)
	assert.Equal(t, "kubectl", src.Name())

	src, err = NewSource(Config{Kind: KindPrometheus, PrometheusURL: "http://prometheus:9090"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Prometheus", src.Name())

	_, err = NewSource(Config{Kind: KindPrometheus}, nil)
	assert.Error(t, err)

	_, err = NewSource(Config{Kind: KindMetricsServer}, nil)
	assert.Error(t, err)

	_, err = NewSource(Config{Kind: "carrier-pigeon"}, cluster)
	assert.Error(t, err)
}
