package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrTotalOverflow marks a member whose usage would push a workload total past int64
var ErrTotalOverflow = errors.New("usage total overflows int64")

// RawSample is one parsed line of a usage report, before unit normalization.
type RawSample struct {
	InstanceName string
	CPU          string
	Memory       string
}

// NormalizedSample holds usage in canonical units
type NormalizedSample struct {
	InstanceName    string
	CPUMillicores   int64
	MemoryMebibytes int64
}

// WorkloadKey identifies a logical workload within a namespace
type WorkloadKey struct {
	Namespace    string
	WorkloadName string
}

// Member is one instance attributed to a workload. A member whose
// normalization failed carries Err and contributes zero to the totals.
type Member struct {
	Sample NormalizedSample
	Raw    RawSample
	Err    error
}

// Failed reports whether the member was excluded from the numeric totals
func (m Member) Failed() bool {
	return m.Err != nil
}

// WorkloadAggregate accumulates the members of one workload.
//
// ReplicaCount always equals len(Members) and the totals always equal the
// sum over Members, failed members counting as zero.
type WorkloadAggregate struct {
	Key                  WorkloadKey
	ReplicaCount         int
	TotalCPUMillicores   int64
	TotalMemoryMebibytes int64
	Members              []Member
}

// Add folds a member into the aggregate. A member that would overflow a
// total is kept as failed and contributes zero.
func (w *WorkloadAggregate) Add(m Member) {
	w.ReplicaCount++
	if !m.Failed() && (m.Sample.CPUMillicores > math.MaxInt64-w.TotalCPUMillicores ||
		m.Sample.MemoryMebibytes > math.MaxInt64-w.TotalMemoryMebibytes) {
		m.Err = fmt.Errorf("instance %s: %w", m.Raw.InstanceName, ErrTotalOverflow)
	}
	if !m.Failed() {
		w.TotalCPUMillicores += m.Sample.CPUMillicores
		w.TotalMemoryMebibytes += m.Sample.MemoryMebibytes
	}
	w.Members = append(w.Members, m)
}

// InstanceError records an instance that could not be attributed to any workload
type InstanceError struct {
	InstanceName string
	Err          error
}

// NamespaceResult is the outcome of processing one namespace.
//
// When Err is set the usage text could not be obtained and Workloads is empty.
type NamespaceResult struct {
	Namespace    string
	Workloads    []*WorkloadAggregate
	Unattributed []InstanceError
	Err          error
}

// Failed reports whether the namespace usage could not be fetched
func (n *NamespaceResult) Failed() bool {
	return n.Err != nil
}

// InstanceCount returns the number of instances seen in the namespace
func (n *NamespaceResult) InstanceCount() int {
	count := len(n.Unattributed)
	for _, w := range n.Workloads {
		count += w.ReplicaCount
	}
	return count
}
