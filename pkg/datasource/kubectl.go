package datasource

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// KubectlSource shells out to `kubectl top pod`, the same report an
// operator would read by hand.
type KubectlSource struct {
	path       string
	kubeconfig string
}

func NewKubectlSource(path, kubeconfig string) *KubectlSource {
	if path == "" {
		path = "kubectl"
	}
	return &KubectlSource{path: path, kubeconfig: kubeconfig}
}

func (k *KubectlSource) args(extra ...string) []string {
	var args []string
	if k.kubeconfig != "" {
		args = append(args, "--kubeconfig", k.kubeconfig)
	}
	return append(args, extra...)
}

func (k *KubectlSource) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, k.path, k.args(args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("kubectl %s: %w", strings.Join(args, " "), ctx.Err())
		}
		return "", fmt.Errorf("kubectl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// FetchUsage runs `kubectl top pod -n <namespace> --no-headers`
func (k *KubectlSource) FetchUsage(ctx context.Context, namespace string) (string, error) {
	return k.run(ctx, "top", "pod", "-n", namespace, "--no-headers")
}

// ListNamespaces runs `kubectl get ns` for setups without API access from
// the process itself.
func (k *KubectlSource) ListNamespaces(ctx context.Context) ([]string, error) {
	out, err := k.run(ctx, "get", "ns", "-o", "jsonpath={.items[*].metadata.name}")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

func (k *KubectlSource) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(k.path)
	return err == nil
}

func (k *KubectlSource) Name() string {
	return "kubectl"
}
