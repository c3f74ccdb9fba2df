//go:build e2e
// +build e2e

package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opscart/k8s-usage-reporter/pkg/analyzer"
)

// Runs against the cluster of the current kubeconfig:
//
//	go test -tags e2e ./pkg/datasource/...
func TestRealClusterConnection(t *testing.T) {
	cluster, err := Connect("")
	require.NoError(t, err)
	defer cluster.Close()

	version, err := cluster.ServerVersion()
	require.NoError(t, err)
	t.Logf("Connected to cluster %s", version)
}

func TestRealClusterUsage(t *testing.T) {
	cluster, err := Connect("")
	require.NoError(t, err)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	namespaces, err := cluster.ListNamespaces(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, namespaces, "no namespaces found")

	src := NewMetricsServerSource(cluster.Metrics())
	if !src.IsAvailable(ctx) {
		t.Skip("metrics-server not installed")
	}

	for _, ns := range namespaces {
		text, err := src.FetchUsage(ctx, ns)
		if err != nil {
			t.Logf("  %s: %v", ns, err)
			continue
		}
		result := analyzer.Analyze(ns, text)
		for _, w := range result.Workloads {
			t.Logf("  %s/%s: %d replicas, %dm, %dMi", ns, w.Key.WorkloadName,
				w.ReplicaCount, w.TotalCPUMillicores, w.TotalMemoryMebibytes)
		}
	}
}
