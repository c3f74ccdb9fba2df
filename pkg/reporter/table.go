package reporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// GenerateTable prints a terminal table with one row per workload
func GenerateTable(doc *Document, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Namespace", "Workload", "Replicas", "CPU", "Memory", "Notes"})
	table.SetAutoWrapText(false)

	for _, ns := range doc.NamespaceOrder {
		nsReport := doc.Namespaces[ns]
		if nsReport.Error != "" {
			table.Append([]string{ns, "-", "-", "-", "-", nsReport.Error})
			continue
		}

		for _, name := range nsReport.WorkloadOrder {
			wl := nsReport.Workloads[name]
			notes := ""
			if failed := failedMembers(wl); failed > 0 {
				notes = fmt.Sprintf("%d instance(s) excluded from totals", failed)
			}
			table.Append([]string{ns, name, fmt.Sprintf("%d", wl.ReplicaCount), wl.TotalCPU, wl.TotalMemory, notes})
		}
		if n := len(nsReport.Unattributed); n > 0 {
			table.Append([]string{ns, "-", "-", "-", "-", fmt.Sprintf("%d unattributed instance(s)", n)})
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d namespaces", doc.Summary.Namespaces),
		fmt.Sprintf("%d workloads", doc.Summary.Workloads),
		fmt.Sprintf("%d", doc.Summary.Instances),
		doc.Summary.TotalCPU,
		doc.Summary.TotalMemory,
		fmt.Sprintf("%d failed", doc.Summary.FailedNamespaces),
	})
	table.Render()
	return nil
}

func failedMembers(wl WorkloadReport) int {
	n := 0
	for _, m := range wl.Members {
		if m.Error != "" {
			n++
		}
	}
	return n
}
