package datasource

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"
)

// Cluster is a session against one cluster, opened once per run and closed
// when the run ends.
type Cluster struct {
	clientset  kubernetes.Interface
	metrics    metricsv.Interface
	httpClient *http.Client
}

// Connect opens a cluster session. The kubeconfig path wins, then
// KUBECONFIG, then ~/.kube/config; with none of them present the
// in-cluster service account is used.
func Connect(kubeconfig string) (*Cluster, error) {
	config, err := restConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	httpClient, err := rest.HTTPClientFor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	clientset, err := kubernetes.NewForConfigAndClient(config, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv.NewForConfigAndClient(config, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Cluster{
		clientset:  clientset,
		metrics:    metricsClient,
		httpClient: httpClient,
	}, nil
}

// NewCluster wraps existing clients
func NewCluster(clientset kubernetes.Interface, metrics metricsv.Interface) *Cluster {
	return &Cluster{clientset: clientset, metrics: metrics}
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			candidate := filepath.Join(home, ".kube", "config")
			if _, err := os.Stat(candidate); err == nil {
				kubeconfig = candidate
			}
		}
	}
	if kubeconfig == "" {
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// ListNamespaces returns the namespace names in the order the API returns them
func (c *Cluster) ListNamespaces(ctx context.Context) ([]string, error) {
	nsList, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	namespaces := make([]string, 0, len(nsList.Items))
	for _, ns := range nsList.Items {
		namespaces = append(namespaces, ns.Name)
	}
	return namespaces, nil
}

// ServerVersion returns the cluster version string
func (c *Cluster) ServerVersion() (string, error) {
	version, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to connect to cluster: %w", err)
	}
	return version.GitVersion, nil
}

// Metrics returns the metrics.k8s.io client
func (c *Cluster) Metrics() metricsv.Interface {
	return c.metrics
}

// Close releases the connections held by the session
func (c *Cluster) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}
