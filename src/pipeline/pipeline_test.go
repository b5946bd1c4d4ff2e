package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trend-pulse/src/config"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAdapter replays a fixed series per source, repeating the last sample.
type scriptedAdapter struct {
	mu     sync.Mutex
	series map[string][]models.MMetricSample
}

func (a *scriptedAdapter) Name() string { return "scripted" }

func (a *scriptedAdapter) FetchSample(ctx context.Context, sourceID string) (models.MMetricSample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	queue := a.series[sourceID]
	next := queue[0]
	if len(queue) > 1 {
		a.series[sourceID] = queue[1:]
	}
	return next, nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []models.MServerMessage
}

func (r *recorder) ID() string { return "recorder" }

func (r *recorder) Deliver(msg models.MServerMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

var morning = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func engagementSeries(values ...float64) []models.MMetricSample {
	out := make([]models.MMetricSample, len(values))
	for i, v := range values {
		out[i] = models.MMetricSample{
			SourceID:   "instagram",
			Timestamp:  morning.Add(time.Duration(i) * time.Second),
			Followers:  5000,
			Engagement: v,
			Views:      1000,
			Reach:      20000,
			Revenue:    100,
		}
	}
	return out
}

func newPipeline(t *testing.T, series []models.MMetricSample, random float64, mutate func(cfg *config.Config)) *Pipeline {
	t.Helper()
	cfg := &config.Config{MConfig: config.Default()}
	cfg.Ingestion.Sources = []models.MSourceConfig{{ID: "instagram"}}
	if mutate != nil {
		mutate(cfg)
	}

	adapter := &scriptedAdapter{series: map[string][]models.MMetricSample{"instagram": series}}
	p, err := New(cfg, Options{
		Adapter: adapter,
		Clock:   func() time.Time { return morning.Add(time.Minute) },
		Random:  func() float64 { return random },
	}, logger.NewLogger(nil, "pipeline-test"))
	require.NoError(t, err)
	return p
}

func poll(t *testing.T, p *Pipeline, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		p.Tracker.PollOnce(context.Background())
	}
}

// -----------------------------------------------------------------------------

func TestDecliningEngagementBecomesDashboardTrend(t *testing.T) {
	p := newPipeline(t, engagementSeries(10, 9, 8, 7, 6), 1, nil)
	trends := &recorder{}
	p.Hub.Subscribe(models.EventKindTrend, trends)

	poll(t, p, 5)
	require.Equal(t, 5, p.Buffer.Len())

	assert.Equal(t, 5, p.DrainOnce())
	require.Equal(t, 1, p.Buffer.Len(), "one derived trend event re-enters the buffer")
	assert.Empty(t, p.Snapshot().Trends, "derived events reach the dashboard on the next drain")

	assert.Equal(t, 1, p.DrainOnce())
	snapshot := p.Snapshot()
	require.Len(t, snapshot.Trends, 1)
	trend := snapshot.Trends[0]
	assert.Equal(t, "instagram", trend.SourceID)
	assert.Equal(t, models.FieldEngagement, trend.Field)
	assert.Equal(t, models.TrendDown, trend.Direction)
	// velocity = slope * 100, so a one-point-per-poll decline reads -100
	assert.InDelta(t, -100, trend.Velocity, 1e-9)
	assert.Len(t, snapshot.Metrics, 5)

	require.Len(t, trends.msgs, 1)
	assert.Equal(t, models.MsgStreamData, trends.msgs[0].Type)

	assert.Equal(t, 5.0, testutil.ToFloat64(p.Metrics.EventsProcessed.WithLabelValues("metric")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.EventsProcessed.WithLabelValues("trend")))
}

func TestLowEngagementAlertCanBeAcknowledged(t *testing.T) {
	p := newPipeline(t, engagementSeries(1), 1, nil)

	poll(t, p, 1)
	p.DrainOnce()
	p.DrainOnce()

	alerts := p.Snapshot().Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPerformance, alerts[0].Category)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)

	assert.False(t, p.AcknowledgeAlert("unknown"))
	assert.True(t, p.AcknowledgeAlert(alerts[0].ID))
	assert.True(t, p.AcknowledgeAlert(alerts[0].ID))
	assert.Empty(t, p.Snapshot().Alerts)
}

func TestDashboardTickTriggersRecommendation(t *testing.T) {
	p := newPipeline(t, engagementSeries(1, 1), 0, nil)

	p.DashboardTick()
	assert.Equal(t, 0, p.Buffer.Len(), "nothing fires on an empty metrics window")

	poll(t, p, 1)
	p.DrainOnce()
	p.DrainOnce()
	require.Equal(t, 0, p.Buffer.Len())

	p.DashboardTick()
	require.Equal(t, 1, p.Buffer.Len())
	p.DrainOnce()

	recs := p.Snapshot().Recommendations
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationContent, recs[0].Kind)
}

func TestRemoveSourceForgetsState(t *testing.T) {
	p := newPipeline(t, engagementSeries(5), 1, nil)

	require.NoError(t, p.AddSource("tiktok"))
	assert.Error(t, p.AddSource("tiktok"))
	assert.Len(t, p.Connections(), 2)

	poll(t, p, 1)
	p.DrainOnce()
	require.Len(t, p.Analysis.History.Latest("instagram", 5), 1)

	require.NoError(t, p.RemoveSource("instagram"))
	assert.Error(t, p.RemoveSource("instagram"))
	assert.Error(t, p.Reconnect("instagram"))
	assert.Empty(t, p.Analysis.History.Latest("instagram", 5))
}

func TestJournalEnabledBySqlite(t *testing.T) {
	p := newPipeline(t, engagementSeries(5), 1, func(cfg *config.Config) {
		cfg.Storage.DBType = "sqlite"
		cfg.Storage.DBPath = filepath.Join(t.TempDir(), "journal.db")
	})
	require.NotNil(t, p.Journal)

	none := newPipeline(t, engagementSeries(5), 1, nil)
	assert.Nil(t, none.Journal)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := newPipeline(t, engagementSeries(5), 1, func(cfg *config.Config) {
		cfg.Host = "127.0.0.1"
		cfg.Port = 0
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	conn, ok := p.Tracker.Connection("instagram")
	require.True(t, ok)
	assert.True(t, conn.Active)
	assert.GreaterOrEqual(t, p.Buffer.Len(), 1, "the first tick polls immediately")
}
