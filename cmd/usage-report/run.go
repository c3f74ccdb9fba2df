package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opscart/k8s-usage-reporter/pkg/metrics"
	"github.com/opscart/k8s-usage-reporter/pkg/models"
	"github.com/opscart/k8s-usage-reporter/pkg/output"
	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
	"github.com/opscart/k8s-usage-reporter/pkg/scanner"
	"github.com/opscart/k8s-usage-reporter/pkg/storage"
)

// pipeline wires one collection run. A nil sink returns the document inline.
type pipeline struct {
	clusterID string
	region    string
	source    string

	lister   scanner.NamespaceLister
	fetcher  scanner.UsageFetcher
	opts     scanner.Options
	sink     storage.Sink
	recorder *metrics.Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// run scans the cluster and hands the document to the sink. The returned
// document is nil when the run failed before one could be built.
func (p *pipeline) run(ctx context.Context) (*output.Envelope, *reporter.Document) {
	now := p.now
	if now == nil {
		now = time.Now
	}

	results, err := scanner.New(p.lister, p.fetcher, p.opts).
		WithLogger(p.log).
		WithRecorder(p.recorder).
		Scan(ctx)
	if err != nil {
		p.log.WithError(err).Error("Scan aborted")
		return output.Failure(err), nil
	}

	result := &models.ScanResult{
		ID:          uuid.New().String(),
		ClusterID:   p.clusterID,
		Region:      p.region,
		Source:      p.source,
		GeneratedAt: now().UTC(),
		Namespaces:  results,
	}
	doc := reporter.Generate(result)
	p.recorder.MarkRunComplete(result.GeneratedAt)

	p.log.WithFields(logrus.Fields{
		"report_id":         doc.ReportID,
		"namespaces":        doc.Summary.Namespaces,
		"failed_namespaces": doc.Summary.FailedNamespaces,
		"workloads":         doc.Summary.Workloads,
	}).Info("Report generated")

	if p.sink == nil {
		return output.Inline(doc), doc
	}

	location, err := p.sink.Store(ctx, doc, storage.Identifier(p.clusterID, result.GeneratedAt))
	if err != nil {
		p.log.WithError(err).Error("Failed to store report")
		return output.Failure(fmt.Errorf("failed to store report: %w", err)), doc
	}

	p.log.WithField("location", location).Info("Report stored")
	return output.Stored(location), doc
}
