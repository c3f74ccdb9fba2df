package models

import "time"

// ScanResult is the complete outcome of one collection run
type ScanResult struct {
	ID          string
	ClusterID   string
	Region      string
	Source      string
	GeneratedAt time.Time
	Namespaces  []*NamespaceResult
}

// StoredReport is a persisted report document and its metadata
type StoredReport struct {
	ID         string
	ClusterID  string
	Location   string
	Namespaces int
	Failed     int
	Workloads  int
	CreatedAt  time.Time
	Document   []byte
}
