package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opscart/k8s-usage-reporter/pkg/models"
)

// UnitParseError is returned when a CPU value is in no recognized notation
type UnitParseError struct {
	Value string
}

func (e *UnitParseError) Error() string {
	return fmt.Sprintf("unrecognized cpu value %q", e.Value)
}

// CPUToMillicores converts a CPU value to millicores.
// "250m" is read as millicores, a bare integer such as "2" as whole cores.
func CPUToMillicores(value string) (int64, error) {
	if digits, ok := strings.CutSuffix(value, "m"); ok {
		n, err := parseCount(digits)
		if err != nil {
			return 0, &UnitParseError{Value: value}
		}
		return n, nil
	}

	cores, err := parseCount(value)
	if err != nil || cores > math.MaxInt64/1000 {
		return 0, &UnitParseError{Value: value}
	}
	return cores * 1000, nil
}

// MemoryToMebibytes converts a memory value to mebibytes.
//
// Ki is floor-divided by 1024, Mi passes through and Gi is multiplied by
// 1024. Anything else, including an unreadable count, yields 0 rather than
// an error; callers that need strictness must check the suffix first.
func MemoryToMebibytes(value string) int64 {
	switch {
	case strings.HasSuffix(value, "Ki"):
		n, err := parseCount(strings.TrimSuffix(value, "Ki"))
		if err != nil {
			return 0
		}
		return n / 1024
	case strings.HasSuffix(value, "Mi"):
		n, err := parseCount(strings.TrimSuffix(value, "Mi"))
		if err != nil {
			return 0
		}
		return n
	case strings.HasSuffix(value, "Gi"):
		n, err := parseCount(strings.TrimSuffix(value, "Gi"))
		if err != nil || n > math.MaxInt64/1024 {
			return 0
		}
		return n * 1024
	default:
		return 0
	}
}

// HasKnownMemoryUnit reports whether MemoryToMebibytes understands the suffix
func HasKnownMemoryUnit(value string) bool {
	for _, suffix := range []string{"Ki", "Mi", "Gi"} {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}

// Normalize converts a raw sample. Only the CPU value can fail.
func Normalize(raw models.RawSample) (models.NormalizedSample, error) {
	cpu, err := CPUToMillicores(raw.CPU)
	if err != nil {
		return models.NormalizedSample{InstanceName: raw.InstanceName}, fmt.Errorf("instance %s: %w", raw.InstanceName, err)
	}

	return models.NormalizedSample{
		InstanceName:    raw.InstanceName,
		CPUMillicores:   cpu,
		MemoryMebibytes: MemoryToMebibytes(raw.Memory),
	}, nil
}

// FormatMillicores renders millicores the way usage reports print them, e.g. "1500m"
func FormatMillicores(m int64) string {
	return fmt.Sprintf("%dm", m)
}

// FormatMebibytes renders mebibytes the way usage reports print them, e.g. "2048Mi"
func FormatMebibytes(mi int64) string {
	return fmt.Sprintf("%dMi", mi)
}

// parseCount accepts only plain non-negative decimal integers
func parseCount(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return strconv.ParseInt(s, 10, 64)
}
