package analyzer

import (
	"github.com/opscart/k8s-usage-reporter/pkg/converter"
	"github.com/opscart/k8s-usage-reporter/pkg/models"
	"github.com/opscart/k8s-usage-reporter/pkg/parser"
)

// AnalyzeNamespace groups the samples of one namespace into workloads.
//
// Workloads appear in the order their first instance was seen. An instance
// whose CPU value cannot be read is kept as a failed member of its workload;
// an instance whose name yields no workload is listed as unattributed.
func AnalyzeNamespace(namespace string, table *parser.UsageTable) *models.NamespaceResult {
	result := &models.NamespaceResult{
		Namespace: namespace,
		Workloads: []*models.WorkloadAggregate{},
	}

	index := make(map[models.WorkloadKey]*models.WorkloadAggregate)

	for _, raw := range table.Samples() {
		workload, err := WorkloadName(raw.InstanceName)
		if err != nil {
			result.Unattributed = append(result.Unattributed, models.InstanceError{
				InstanceName: raw.InstanceName,
				Err:          err,
			})
			continue
		}

		key := models.WorkloadKey{Namespace: namespace, WorkloadName: workload}
		agg, ok := index[key]
		if !ok {
			agg = &models.WorkloadAggregate{Key: key}
			index[key] = agg
			result.Workloads = append(result.Workloads, agg)
		}

		sample, err := converter.Normalize(raw)
		agg.Add(models.Member{Sample: sample, Raw: raw, Err: err})
	}

	return result
}

// FailedNamespace records a namespace whose usage text could not be obtained
func FailedNamespace(namespace string, err error) *models.NamespaceResult {
	return &models.NamespaceResult{
		Namespace: namespace,
		Workloads: []*models.WorkloadAggregate{},
		Err:       err,
	}
}

// Analyze parses and aggregates the raw usage text of a namespace
func Analyze(namespace, usageText string) *models.NamespaceResult {
	return AnalyzeNamespace(namespace, parser.Parse(usageText))
}
