package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(models.MStorageConfig{DBType: "sqlite", DBPath: path}, logger.NewLogger(nil, "storage-test"))
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

func count(t *testing.T, store *SQLiteStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func sampleAlert(id string, ts time.Time) models.MAlert {
	return models.MAlert{
		ID:        id,
		Category:  models.AlertPerformance,
		Severity:  models.SeverityWarning,
		Message:   "Engagement dropped below 2%",
		SourceID:  "instagram",
		Rule:      "low_engagement",
		Payload:   map[string]interface{}{"engagement": 1.0},
		Timestamp: ts,
		Actions:   []models.MAlertAction{{ID: "boost", Label: "Boost post", Kind: "content"}},
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLite(t, filepath.Join(t.TempDir(), "journal.db"))

	require.NoError(t, store.SaveAlert(sampleAlert("a1", base)))
	require.NoError(t, store.SaveAlert(sampleAlert("a1", base)), "duplicate ids are ignored")
	require.NoError(t, store.SaveRecommendation(models.MRecommendation{
		ID: "r1", Kind: models.RecommendationTiming, Confidence: 80, AutoApply: true, Timestamp: base,
	}))
	require.NoError(t, store.SaveAcknowledgement("a1", base.Add(time.Minute)))

	assert.Equal(t, 1, count(t, store, "alerts"))
	assert.Equal(t, 1, count(t, store, "recommendations"))
	assert.Equal(t, 1, count(t, store, "acknowledgements"))

	var ackedAt int64
	var actions string
	require.NoError(t, store.DB.QueryRow("SELECT acknowledged_at, actions FROM alerts WHERE id = ?", "a1").Scan(&ackedAt, &actions))
	assert.Equal(t, base.Add(time.Minute).UnixMilli(), ackedAt)
	assert.Contains(t, actions, `"boost"`)
}

func TestSQLiteCleanup(t *testing.T) {
	store := newSQLite(t, filepath.Join(t.TempDir(), "journal.db"))

	require.NoError(t, store.SaveAlert(sampleAlert("old", base.Add(-2*time.Hour))))
	require.NoError(t, store.SaveAlert(sampleAlert("new", base)))
	require.NoError(t, store.SaveAcknowledgement("old", base.Add(-90*time.Minute)))

	require.NoError(t, store.CleanupOldData(base.Add(-time.Hour)))

	assert.Equal(t, 1, count(t, store, "alerts"))
	assert.Equal(t, 0, count(t, store, "acknowledgements"))
}

func TestJournalFlushesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	log := logger.NewLogger(nil, "storage-test")
	store := NewSQLiteStore(models.MStorageConfig{DBType: "sqlite", DBPath: path}, log)
	journal := NewJournal(store, 16, nil, log)

	alert := sampleAlert("a1", base)
	rec := models.MRecommendation{ID: "r1", Kind: models.RecommendationContent, Timestamp: base}
	journal.RecordEvents([]models.MStreamEvent{
		models.NewStreamEvent(models.MMetricSample{SourceID: "instagram"}, "instagram", models.PriorityLow, base),
		models.NewStreamEvent(alert, "instagram", alert.Priority(), base),
		models.NewStreamEvent(rec, "", rec.Priority(), base),
	})
	journal.RecordAcknowledgement("a1", base.Add(time.Second))
	assert.Equal(t, 3, journal.Pending(), "metric samples are not journaled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, journal.Run(ctx))

	reopened := newSQLite(t, path)
	assert.Equal(t, 1, count(t, reopened, "alerts"))
	assert.Equal(t, 1, count(t, reopened, "recommendations"))
	assert.Equal(t, 1, count(t, reopened, "acknowledgements"))
}

func TestJournalDropsWhenFull(t *testing.T) {
	m := metrics.New("journal_test")
	journal := NewJournal(nil, 1, m, logger.NewLogger(nil, "storage-test"))

	journal.RecordAcknowledgement("a1", base)
	journal.RecordAcknowledgement("a2", base)
	journal.Cleanup(base)

	assert.Equal(t, 1, journal.Pending())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JournalDropped))
}

func TestNewEventStore(t *testing.T) {
	log := logger.NewLogger(nil, "storage-test")

	store, err := NewEventStore(models.MStorageConfig{}, log)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewEventStore(models.MStorageConfig{DBType: "sqlite", DBPath: "x.db"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	store, err = NewEventStore(models.MStorageConfig{DBType: "postgres", DBConnectionString: "postgres://localhost/pulse"}, log)
	require.NoError(t, err)
	pg, ok := store.(*PostgresStore)
	require.True(t, ok)
	assert.NotEmpty(t, pg.Schema)
	assert.Equal(t, `"`+pg.Schema+`"."alerts"`, pg.table("alerts"))

	_, err = NewEventStore(models.MStorageConfig{DBType: "mongo"}, log)
	assert.Error(t, err)
}
