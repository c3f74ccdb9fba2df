package reporter

import (
	"math"
	"time"

	"github.com/opscart/k8s-usage-reporter/pkg/converter"
	"github.com/opscart/k8s-usage-reporter/pkg/models"
)

// Document is the structured usage report handed to a sink.
//
// Namespaces and workloads are keyed by name; NamespaceOrder and
// WorkloadOrder keep the scan order for the human-readable renderers.
type Document struct {
	ReportID       string                     `json:"report_id" yaml:"report_id"`
	ClusterID      string                     `json:"cluster_id" yaml:"cluster_id"`
	Region         string                     `json:"region,omitempty" yaml:"region,omitempty"`
	Source         string                     `json:"source,omitempty" yaml:"source,omitempty"`
	GeneratedAt    string                     `json:"generated_at" yaml:"generated_at"`
	Summary        Summary                    `json:"summary" yaml:"summary"`
	Namespaces     map[string]NamespaceReport `json:"namespaces" yaml:"namespaces"`
	NamespaceOrder []string                   `json:"-" yaml:"-"`
}

// Summary holds cluster-wide totals
type Summary struct {
	Namespaces       int    `json:"namespaces" yaml:"namespaces"`
	FailedNamespaces int    `json:"failed_namespaces" yaml:"failed_namespaces"`
	Workloads        int    `json:"workloads" yaml:"workloads"`
	Instances        int    `json:"instances" yaml:"instances"`
	FailedInstances  int    `json:"failed_instances" yaml:"failed_instances"`
	TotalCPU         string `json:"total_cpu" yaml:"total_cpu"`
	TotalMemory      string `json:"total_memory" yaml:"total_memory"`
}

// NamespaceReport is one namespace of the document. Error is set when the
// namespace usage could not be fetched, in which case Workloads is empty.
type NamespaceReport struct {
	Error         string                    `json:"error,omitempty" yaml:"error,omitempty"`
	Workloads     map[string]WorkloadReport `json:"workloads" yaml:"workloads"`
	Unattributed  []MemberReport            `json:"unattributed,omitempty" yaml:"unattributed,omitempty"`
	WorkloadOrder []string                  `json:"-" yaml:"-"`
}

// WorkloadReport is one workload of a namespace
type WorkloadReport struct {
	ReplicaCount int            `json:"replica_count" yaml:"replica_count"`
	TotalCPU     string         `json:"total_cpu" yaml:"total_cpu"`
	TotalMemory  string         `json:"total_memory" yaml:"total_memory"`
	Members      []MemberReport `json:"members" yaml:"members"`
}

// MemberReport is one instance. Failed instances carry their raw values
// and an error note.
type MemberReport struct {
	Name   string `json:"name" yaml:"name"`
	CPU    string `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	Memory string `json:"memory,omitempty" yaml:"memory,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Generate renders a scan result into a document
func Generate(result *models.ScanResult) *Document {
	doc := &Document{
		ReportID:       result.ID,
		ClusterID:      result.ClusterID,
		Region:         result.Region,
		Source:         result.Source,
		GeneratedAt:    result.GeneratedAt.UTC().Format(time.RFC3339),
		Namespaces:     make(map[string]NamespaceReport, len(result.Namespaces)),
		NamespaceOrder: make([]string, 0, len(result.Namespaces)),
	}

	var totalCPU, totalMem int64
	for _, ns := range result.Namespaces {
		// a namespace listed twice is reported once, first occurrence wins
		if _, dup := doc.Namespaces[ns.Namespace]; dup {
			continue
		}

		nsReport := NamespaceReport{
			Workloads:     make(map[string]WorkloadReport, len(ns.Workloads)),
			WorkloadOrder: make([]string, 0, len(ns.Workloads)),
		}
		doc.Summary.Namespaces++

		if ns.Failed() {
			nsReport.Error = ns.Err.Error()
			doc.Summary.FailedNamespaces++
		}

		for _, w := range ns.Workloads {
			nsReport.Workloads[w.Key.WorkloadName] = workloadReport(w)
			nsReport.WorkloadOrder = append(nsReport.WorkloadOrder, w.Key.WorkloadName)

			doc.Summary.Workloads++
			doc.Summary.Instances += w.ReplicaCount
			for _, m := range w.Members {
				if m.Failed() {
					doc.Summary.FailedInstances++
				}
			}
			totalCPU = addClamped(totalCPU, w.TotalCPUMillicores)
			totalMem = addClamped(totalMem, w.TotalMemoryMebibytes)
		}

		for _, u := range ns.Unattributed {
			nsReport.Unattributed = append(nsReport.Unattributed, MemberReport{
				Name:  u.InstanceName,
				Error: u.Err.Error(),
			})
			doc.Summary.Instances++
			doc.Summary.FailedInstances++
		}

		doc.NamespaceOrder = append(doc.NamespaceOrder, ns.Namespace)
		doc.Namespaces[ns.Namespace] = nsReport
	}

	doc.Summary.TotalCPU = converter.FormatMillicores(totalCPU)
	doc.Summary.TotalMemory = converter.FormatMebibytes(totalMem)

	return doc
}

func workloadReport(w *models.WorkloadAggregate) WorkloadReport {
	report := WorkloadReport{
		ReplicaCount: w.ReplicaCount,
		TotalCPU:     converter.FormatMillicores(w.TotalCPUMillicores),
		TotalMemory:  converter.FormatMebibytes(w.TotalMemoryMebibytes),
		Members:      make([]MemberReport, 0, len(w.Members)),
	}

	for _, m := range w.Members {
		if m.Failed() {
			report.Members = append(report.Members, MemberReport{
				Name:   m.Raw.InstanceName,
				CPU:    m.Raw.CPU,
				Memory: m.Raw.Memory,
				Error:  m.Err.Error(),
			})
			continue
		}
		report.Members = append(report.Members, MemberReport{
			Name:   m.Sample.InstanceName,
			CPU:    converter.FormatMillicores(m.Sample.CPUMillicores),
			Memory: converter.FormatMebibytes(m.Sample.MemoryMebibytes),
		})
	}

	return report
}

// addClamped adds two non-negative totals, saturating at math.MaxInt64
func addClamped(total, v int64) int64 {
	if v > math.MaxInt64-total {
		return math.MaxInt64
	}
	return total + v
}
