package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorResponse(samples map[string]string) string {
	var results []string
	for pod, value := range samples {
		results = append(results, fmt.Sprintf(`{"metric":{"pod":%q},"value":[1760000000,%q]}`, pod, value))
	}
	return fmt.Sprintf(`{"status":"success","data":{"resultType":"vector","result":[%s]}}`, strings.Join(results, ","))
}

func newPrometheusServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.FormValue("query")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(query, "container_cpu_usage_seconds_total"):
			assert.Contains(t, query, `namespace="default"`)
			fmt.Fprint(w, vectorResponse(map[string]string{"web-1-b": "0.2", "web-1-a": "0.1"}))
		case strings.Contains(query, "container_memory_working_set_bytes"):
			fmt.Fprint(w, vectorResponse(map[string]string{"web-1-a": "67108864", "web-1-b": "134217728"}))
		default:
			fmt.Fprint(w, vectorResponse(map[string]string{}))
		}
	}))
}

func TestPrometheusSourceFetchUsage(t *testing.T) {
	server := newPrometheusServer(t)
	defer server.Close()

	src, err := NewPrometheusSource(server.URL, time.Minute)
	require.NoError(t, err)

	text, err := src.FetchUsage(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "web-1-a 100m 65536Ki\nweb-1-b 200m 131072Ki\n", text)
	assert.True(t, src.IsAvailable(context.Background()))
}

func TestPrometheusSourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src, err := NewPrometheusSource(server.URL, 0)
	require.NoError(t, err)

	_, err = src.FetchUsage(context.Background(), "default")
	assert.Error(t, err)
	assert.False(t, src.IsAvailable(context.Background()))
}

func TestPrometheusSourceIncludesPodsWithoutCPURate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.FormValue("query")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(query, "container_cpu_usage_seconds_total") {
			fmt.Fprint(w, vectorResponse(map[string]string{"web-1-a": "0.1"}))
			return
		}
		fmt.Fprint(w, vectorResponse(map[string]string{"web-1-a": "67108864", "web-1-new": "33554432"}))
	}))
	defer server.Close()

	src, err := NewPrometheusSource(server.URL, time.Minute)
	require.NoError(t, err)

	text, err := src.FetchUsage(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "web-1-a 100m 65536Ki\nweb-1-new 0m 32768Ki\n", text)
}
