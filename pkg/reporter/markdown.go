package reporter

import (
	"fmt"
	"io"
	"strings"
)

// GenerateMarkdown creates a Markdown report with one table per namespace
func GenerateMarkdown(doc *Document, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Resource Usage Report - %s\n\n", doc.ClusterID)
	fmt.Fprintf(&b, "Generated: %s", doc.GeneratedAt)
	if doc.Region != "" {
		fmt.Fprintf(&b, " | Region: %s", mdLine(doc.Region))
	}
	b.WriteString("\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString("| Namespaces | Failed | Workloads | Instances | CPU | Memory |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %s | %s |\n\n",
		doc.Summary.Namespaces, doc.Summary.FailedNamespaces, doc.Summary.Workloads,
		doc.Summary.Instances, doc.Summary.TotalCPU, doc.Summary.TotalMemory)

	for _, ns := range doc.NamespaceOrder {
		nsReport := doc.Namespaces[ns]
		fmt.Fprintf(&b, "## %s\n\n", ns)

		if nsReport.Error != "" {
			fmt.Fprintf(&b, "> **Error:** %s\n\n", mdLine(nsReport.Error))
			continue
		}
		if len(nsReport.WorkloadOrder) == 0 && len(nsReport.Unattributed) == 0 {
			b.WriteString("_No workloads_\n\n")
			continue
		}

		if len(nsReport.WorkloadOrder) > 0 {
			b.WriteString("| Workload | Replicas | CPU | Memory |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, name := range nsReport.WorkloadOrder {
				wl := nsReport.Workloads[name]
				fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", mdCell(name), wl.ReplicaCount, mdCell(wl.TotalCPU), mdCell(wl.TotalMemory))
			}
			b.WriteString("\n")
		}

		for _, name := range nsReport.WorkloadOrder {
			for _, m := range nsReport.Workloads[name].Members {
				if m.Error != "" {
					fmt.Fprintf(&b, "- `%s`: %s\n", m.Name, mdLine(m.Error))
				}
			}
		}
		for _, m := range nsReport.Unattributed {
			fmt.Fprintf(&b, "- `%s`: %s\n", m.Name, mdLine(m.Error))
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write Markdown report: %w", err)
	}
	return nil
}

// mdCell makes a value safe inside a table row
func mdCell(s string) string {
	return strings.ReplaceAll(mdLine(s), "|", "\\|")
}

// mdLine keeps a value on a single line
func mdLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
