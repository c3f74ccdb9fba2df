package storage

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/k8s-usage-reporter/pkg/models"
	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// ErrReportNotFound is returned when no stored report has the requested id
var ErrReportNotFound = errors.New("report not found")

// PostgresStore implements ReportStore using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database and applies the schema
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_usage_reports.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Store saves the document as JSONB and returns its report id
func (s *PostgresStore) Store(ctx context.Context, doc *reporter.Document, identifier string) (string, error) {
	if doc.ReportID == "" {
		doc.ReportID = uuid.New().String()
	}

	var buf bytes.Buffer
	if err := reporter.GenerateJSON(doc, &buf); err != nil {
		return "", err
	}

	query := `
		INSERT INTO usage_reports (
			id, cluster_id, location, namespaces, failed_namespaces, workloads, document, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ReportID, doc.ClusterID, identifier,
		doc.Summary.Namespaces, doc.Summary.FailedNamespaces, doc.Summary.Workloads,
		buf.String(), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return doc.ReportID, nil
}

// GetReport retrieves a stored report by id
func (s *PostgresStore) GetReport(ctx context.Context, id string) (*models.StoredReport, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", id, err)
	}

	query := `
		SELECT id, cluster_id, location, namespaces, failed_namespaces, workloads, created_at, document
		FROM usage_reports
		WHERE id = $1
	`

	var rep models.StoredReport
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rep.ID, &rep.ClusterID, &rep.Location,
		&rep.Namespaces, &rep.Failed, &rep.Workloads,
		&rep.CreatedAt, &rep.Document,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &rep, nil
}

// ListReports returns the most recent reports of a cluster without their documents
func (s *PostgresStore) ListReports(ctx context.Context, clusterID string, limit int) ([]*models.StoredReport, error) {
	query := `
		SELECT id, cluster_id, location, namespaces, failed_namespaces, workloads, created_at
		FROM usage_reports
		WHERE cluster_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, clusterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.StoredReport
	for rows.Next() {
		var rep models.StoredReport
		err := rows.Scan(
			&rep.ID, &rep.ClusterID, &rep.Location,
			&rep.Namespaces, &rep.Failed, &rep.Workloads,
			&rep.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, &rep)
	}

	return reports, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
