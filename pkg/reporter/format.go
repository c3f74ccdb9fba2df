package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-yaml"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatYAML     ReportFormat = "yaml"
	FormatCSV      ReportFormat = "csv"
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
	FormatTable    ReportFormat = "table"
)

// Formats lists every supported format
var Formats = []ReportFormat{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatHTML, FormatTable}

// ParseFormat validates a format name. "md" and "yml" are accepted as aliases.
func ParseFormat(s string) (ReportFormat, error) {
	switch s {
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format: %s", s)
}

// Extension returns the file extension for a format
func (f ReportFormat) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	case FormatTable:
		return ".txt"
	default:
		return ".json"
	}
}

// ContentType returns the MIME type for a format
func (f ReportFormat) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	case FormatMarkdown:
		return "text/markdown"
	case FormatHTML:
		return "text/html"
	case FormatTable:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render writes the document in the given format
func Render(doc *Document, format ReportFormat, w io.Writer) error {
	switch format {
	case FormatJSON:
		return GenerateJSON(doc, w)
	case FormatYAML:
		return GenerateYAML(doc, w)
	case FormatCSV:
		return GenerateCSV(doc, w)
	case FormatMarkdown:
		return GenerateMarkdown(doc, w)
	case FormatHTML:
		return GenerateHTML(doc, w)
	case FormatTable:
		return GenerateTable(doc, w)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// GenerateJSON writes the document as indented JSON
func GenerateJSON(doc *Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

// GenerateYAML writes the document as YAML
func GenerateYAML(doc *Document, w io.Writer) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}
	return nil
}

// DecodeJSON reads a stored JSON document back. Map order is lost on the
// wire, so namespaces and workloads come back sorted by name.
func DecodeJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON report: %w", err)
	}

	doc.NamespaceOrder = sortedKeys(doc.Namespaces)
	for name, ns := range doc.Namespaces {
		ns.WorkloadOrder = sortedKeys(ns.Workloads)
		doc.Namespaces[name] = ns
	}
	return &doc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
