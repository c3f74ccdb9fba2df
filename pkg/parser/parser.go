package parser

import (
	"strings"

	"github.com/opscart/k8s-usage-reporter/pkg/models"
)

// UsageTable holds the samples parsed from one usage report, keyed by
// instance name and ordered by first appearance.
type UsageTable struct {
	names   []string
	samples map[string]models.RawSample
}

// Parse turns raw usage text into samples.
//
// Each non-blank line is split on whitespace and read positionally as
// name, cpu, memory; extra tokens are ignored and lines with fewer than
// three tokens are skipped. When a name repeats, the later line wins but
// keeps the position of the first occurrence.
func Parse(text string) *UsageTable {
	table := &UsageTable{
		samples: make(map[string]models.RawSample),
	}

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		sample := models.RawSample{
			InstanceName: fields[0],
			CPU:          fields[1],
			Memory:       fields[2],
		}
		if _, seen := table.samples[sample.InstanceName]; !seen {
			table.names = append(table.names, sample.InstanceName)
		}
		table.samples[sample.InstanceName] = sample
	}

	return table
}

// Len returns the number of distinct instances
func (t *UsageTable) Len() int {
	return len(t.names)
}

// Get returns the sample for an instance
func (t *UsageTable) Get(name string) (models.RawSample, bool) {
	s, ok := t.samples[name]
	return s, ok
}

// Samples returns the samples in first-seen order
func (t *UsageTable) Samples() []models.RawSample {
	out := make([]models.RawSample, 0, len(t.names))
	for _, name := range t.names {
		out = append(out, t.samples[name])
	}
	return out
}
