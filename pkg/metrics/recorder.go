package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opscart/k8s-usage-reporter/pkg/models"
)

const (
	labelCluster   = "cluster"
	labelNamespace = "namespace"
	labelWorkload  = "workload"
	labelOutcome   = "outcome"
)

// Recorder collects per-run scan metrics on its own registry so they can be
// written to a textfile collector after the run.
type Recorder struct {
	registry *prometheus.Registry
	cluster  string

	namespacesTotal  *prometheus.CounterVec
	instancesTotal   *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	workloadReplicas *prometheus.GaugeVec
	workloadCPU      *prometheus.GaugeVec
	workloadMemory   *prometheus.GaugeVec
	lastRunTimestamp prometheus.Gauge
}

// NewRecorder registers the scan metrics for a cluster
func NewRecorder(cluster string) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cluster:  cluster,
		namespacesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usage_report_namespaces_total",
			Help: "Namespaces processed, by outcome",
		}, []string{labelCluster, labelOutcome}),
		instancesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usage_report_instances_total",
			Help: "Instances processed, by outcome",
		}, []string{labelCluster, labelOutcome}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usage_report_fetch_duration_seconds",
			Help:    "Time spent fetching usage text for a namespace",
			Buckets: prometheus.DefBuckets,
		}, []string{labelCluster, labelOutcome}),
		workloadReplicas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usage_report_workload_replicas",
			Help: "Replica count per workload at the last run",
		}, []string{labelCluster, labelNamespace, labelWorkload}),
		workloadCPU: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usage_report_workload_cpu_millicores",
			Help: "Summed CPU usage per workload at the last run",
		}, []string{labelCluster, labelNamespace, labelWorkload}),
		workloadMemory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usage_report_workload_memory_mebibytes",
			Help: "Summed memory usage per workload at the last run",
		}, []string{labelCluster, labelNamespace, labelWorkload}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "usage_report_last_run_timestamp_seconds",
			Help:        "Unix time of the last completed run",
			ConstLabels: prometheus.Labels{labelCluster: cluster},
		}),
	}

	collectors := []prometheus.Collector{
		r.namespacesTotal, r.instancesTotal, r.fetchDuration,
		r.workloadReplicas, r.workloadCPU, r.workloadMemory, r.lastRunTimestamp,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return r, nil
}

// ObserveFetch records how long a namespace fetch took
func (r *Recorder) ObserveFetch(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.fetchDuration.WithLabelValues(r.cluster, outcome(err)).Observe(d.Seconds())
}

// ObserveNamespace records the result of one namespace
func (r *Recorder) ObserveNamespace(result *models.NamespaceResult) {
	if r == nil {
		return
	}

	r.namespacesTotal.WithLabelValues(r.cluster, outcome(result.Err)).Inc()
	if result.Failed() {
		return
	}

	failed := len(result.Unattributed)
	for _, w := range result.Workloads {
		for _, m := range w.Members {
			if m.Failed() {
				failed++
			}
		}
		r.workloadReplicas.WithLabelValues(r.cluster, result.Namespace, w.Key.WorkloadName).Set(float64(w.ReplicaCount))
		r.workloadCPU.WithLabelValues(r.cluster, result.Namespace, w.Key.WorkloadName).Set(float64(w.TotalCPUMillicores))
		r.workloadMemory.WithLabelValues(r.cluster, result.Namespace, w.Key.WorkloadName).Set(float64(w.TotalMemoryMebibytes))
	}

	r.instancesTotal.WithLabelValues(r.cluster, "success").Add(float64(result.InstanceCount() - failed))
	r.instancesTotal.WithLabelValues(r.cluster, "error").Add(float64(failed))
}

// MarkRunComplete stamps the completion time of a run
func (r *Recorder) MarkRunComplete(t time.Time) {
	if r == nil {
		return
	}
	r.lastRunTimestamp.Set(float64(t.Unix()))
}

// Gatherer exposes the underlying registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics in the text exposition format for the
// node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
