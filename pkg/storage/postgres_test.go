package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable database, e.g.
// DATABASE_URL="host=localhost port=5432 user=usage password=devpassword dbname=usage sslmode=disable"
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	doc.ReportID = uuid.New().String()
	doc.ClusterID = "test-" + uuid.New().String()[:8]

	id, err := store.Store(ctx, doc, "prod-east/usage-20261016T120000Z")
	require.NoError(t, err)
	assert.Equal(t, doc.ReportID, id)

	rep, err := store.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, doc.ClusterID, rep.ClusterID)
	assert.Equal(t, "prod-east/usage-20261016T120000Z", rep.Location)
	assert.Equal(t, 1, rep.Workloads)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rep.Document, &decoded))
	assert.Equal(t, doc.ClusterID, decoded["cluster_id"])

	reports, err := store.ListReports(ctx, doc.ClusterID, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, id, reports[0].ID)
	assert.Nil(t, reports[0].Document)
}

func TestPostgresStoreAssignsID(t *testing.T) {
	store := newTestStore(t)

	doc := sampleDocument()
	doc.ReportID = ""

	id, err := store.Store(context.Background(), doc, "x/y")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestPostgresStoreMissingReport(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetReport(context.Background(), uuid.New().String())
	assert.True(t, errors.Is(err, ErrReportNotFound))

	_, err = store.GetReport(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}
