package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/opscart/k8s-usage-reporter/pkg/models"
	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
)

// Sink persists a report document under a textual identifier and returns
// the location it was written to.
type Sink interface {
	Store(ctx context.Context, doc *reporter.Document, identifier string) (string, error)
}

// ReportStore is a sink that can also read reports back
type ReportStore interface {
	Sink

	GetReport(ctx context.Context, id string) (*models.StoredReport, error)
	ListReports(ctx context.Context, clusterID string, limit int) ([]*models.StoredReport, error)

	Ping(ctx context.Context) error
	Close() error
}

// Identifier names the report of one run, e.g. "prod-east/usage-20261016T120000Z"
func Identifier(clusterID string, generatedAt time.Time) string {
	if clusterID == "" {
		clusterID = "default"
	}
	return fmt.Sprintf("%s/usage-%s", clusterID, generatedAt.UTC().Format("20060102T150405Z"))
}
