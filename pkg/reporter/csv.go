package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report with one row per instance
func GenerateCSV(doc *Document, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Namespace",
		"Workload",
		"Instance",
		"CPU",
		"Memory",
		"Error",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, ns := range doc.NamespaceOrder {
		nsReport := doc.Namespaces[ns]
		if nsReport.Error != "" {
			if err := w.Write([]string{ns, "", "", "", "", nsReport.Error}); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
			continue
		}

		for _, name := range nsReport.WorkloadOrder {
			for _, m := range nsReport.Workloads[name].Members {
				if err := w.Write([]string{ns, name, m.Name, m.CPU, m.Memory, m.Error}); err != nil {
					return fmt.Errorf("failed to write CSV row: %w", err)
				}
			}
		}
		for _, m := range nsReport.Unattributed {
			if err := w.Write([]string{ns, "", m.Name, "", "", m.Error}); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	// Summary rows
	rows := [][]string{
		{},
		{"SUMMARY"},
		{"Namespaces", fmt.Sprintf("%d", doc.Summary.Namespaces)},
		{"Failed Namespaces", fmt.Sprintf("%d", doc.Summary.FailedNamespaces)},
		{"Workloads", fmt.Sprintf("%d", doc.Summary.Workloads)},
		{"Instances", fmt.Sprintf("%d", doc.Summary.Instances)},
		{"Total CPU", doc.Summary.TotalCPU},
		{"Total Memory", doc.Summary.TotalMemory},
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}

	return nil
}
