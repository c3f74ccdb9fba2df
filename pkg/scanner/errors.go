package scanner

import "fmt"

// EnumerationError means the namespaces of the cluster could not be listed.
// It aborts the whole run.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to list namespaces: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// NamespaceUsageError means the usage text of one namespace could not be fetched
type NamespaceUsageError struct {
	Namespace string
	Err       error
}

func (e *NamespaceUsageError) Error() string {
	return fmt.Sprintf("failed to fetch usage for namespace %s: %v", e.Namespace, e.Err)
}

func (e *NamespaceUsageError) Unwrap() error {
	return e.Err
}
