package analyzer

import (
	"fmt"
	"strings"
)

// NamingConventionError is returned for instance names that do not follow
// the <workload>-<replica-set-hash>-<suffix> convention.
type NamingConventionError struct {
	InstanceName string
}

func (e *NamingConventionError) Error() string {
	return fmt.Sprintf("instance name %q does not match <workload>-<hash>-<suffix>", e.InstanceName)
}

// WorkloadName derives the owning workload from an instance name by
// dropping the last two dash-separated segments,
// e.g. "api-server-7d9f8b-xyz" -> "api-server".
func WorkloadName(instanceName string) (string, error) {
	segments := strings.Split(instanceName, "-")
	if len(segments) < 3 {
		return "", &NamingConventionError{InstanceName: instanceName}
	}

	name := strings.Join(segments[:len(segments)-2], "-")
	if name == "" {
		return "", &NamingConventionError{InstanceName: instanceName}
	}
	return name, nil
}
