package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
)

// LocalSink writes report documents below a directory
type LocalSink struct {
	dir    string
	format reporter.ReportFormat
}

func NewLocalSink(dir string, format reporter.ReportFormat) *LocalSink {
	if format == "" {
		format = reporter.FormatJSON
	}
	return &LocalSink{dir: dir, format: format}
}

// Store renders the document to a temporary file and renames it into
// place, so a failed render never leaves a partial report behind.
func (s *LocalSink) Store(ctx context.Context, doc *reporter.Document, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := filepath.Clean(filepath.FromSlash(identifier))
	if identifier == "" || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid report identifier: %q", identifier)
	}

	path := filepath.Join(s.dir, rel) + s.format.Extension()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := reporter.Render(doc, s.format, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}

	return path, nil
}
