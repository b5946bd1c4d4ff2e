package dashboard

import (
	"fmt"
	"math"
	"testing"
	"time"

	"trend-pulse/src/config"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newAggregator() (*Aggregator, *testClock) {
	clock := &testClock{now: time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)}
	return NewAggregator(config.Default(), clock.Now, nil, logger.NewLogger(nil, "dashboard-test")), clock
}

func event(payload models.EventPayload, ts time.Time) models.MStreamEvent {
	return models.NewStreamEvent(payload, "instagram", models.PriorityLow, ts)
}

func uniformSample(ts time.Time) models.MMetricSample {
	return models.MMetricSample{SourceID: "instagram", Timestamp: ts, Engagement: 5, GrowthDelta: 0, Revenue: 500, Reach: 50000}
}

func TestScoreUniformSample(t *testing.T) {
	score := ComputeScore([]models.MMetricSample{uniformSample(time.Time{})})
	assert.InDelta(t, 55, score.Overall, 1e-9)
	assert.InDelta(t, 50, score.Engagement, 1e-9)
	assert.InDelta(t, 50, score.Growth, 1e-9)
	assert.InDelta(t, 50, score.Revenue, 1e-9)
	assert.InDelta(t, 50, score.Reach, 1e-9)
	assert.InDelta(t, 100, score.Consistency, 1e-9)
}

func TestScoreIsReproducible(t *testing.T) {
	run := func() models.MPerformanceScore {
		agg, clock := newAggregator()
		for i := 0; i < 25; i++ {
			agg.Apply(event(uniformSample(clock.now), clock.now))
		}
		return agg.Score()
	}

	first := run()
	for i := 0; i < 5; i++ {
		again := run()
		assert.Equal(t, math.Float64bits(first.Overall), math.Float64bits(again.Overall))
		assert.Equal(t, first, again)
	}
}

func TestScoreEdgeCases(t *testing.T) {
	assert.Equal(t, models.MPerformanceScore{}, ComputeScore(nil))

	zero := ComputeScore([]models.MMetricSample{{}, {}})
	assert.Equal(t, 0.0, zero.Consistency, "no engagement means no consistency credit")

	huge := ComputeScore([]models.MMetricSample{{Engagement: 50, GrowthDelta: 1e6, Revenue: 1e6, Reach: 1e9}})
	assert.InDelta(t, 100, huge.Overall, 1e-9)
}

func TestApplyFoldsEveryKind(t *testing.T) {
	agg, clock := newAggregator()
	now := clock.now

	agg.Apply(event(uniformSample(now), now))
	agg.Apply(event(models.MTrendRecord{SourceID: "instagram", Field: "engagement", Confidence: 90, DetectedAt: now, Series: []float64{1, 2}}, now))
	agg.Apply(event(models.MTrendRecord{SourceID: "instagram", Field: "followers", Confidence: 10, DetectedAt: now}, now))
	agg.Apply(event(models.MAlert{ID: "a1", Category: models.AlertPerformance, Timestamp: now}, now))
	agg.Apply(event(models.MRecommendation{ID: "r1", RequiresAction: true}, now))
	agg.Apply(event(models.MRecommendation{ID: "r2", RequiresAction: true, AutoApply: true}, now))

	snap := agg.Snapshot()
	assert.Len(t, snap.Metrics, 1)
	require.Len(t, snap.Trends, 1, "low-confidence trends stay off the dashboard")
	assert.Equal(t, "engagement", snap.Trends[0].Field)
	require.Len(t, snap.Alerts, 1)
	require.Len(t, snap.Recommendations, 1)
	assert.Equal(t, "r1", snap.Recommendations[0].ID)
	assert.InDelta(t, 55, snap.Score.Overall, 1e-9)

	// a fresh low-confidence trend for the same series retires the old one
	agg.Apply(event(models.MTrendRecord{SourceID: "instagram", Field: "engagement", Confidence: 20, DetectedAt: now}, now))
	assert.Empty(t, agg.Snapshot().Trends)
}

func TestSnapshotIsACopy(t *testing.T) {
	agg, clock := newAggregator()
	agg.Apply(event(models.MTrendRecord{SourceID: "s", Field: "engagement", Confidence: 99, Series: []float64{1, 2, 3}, DetectedAt: clock.now}, clock.now))
	agg.Apply(event(models.MAlert{ID: "a1", Timestamp: clock.now, Actions: []models.MAlertAction{{ID: "x"}}}, clock.now))

	snap := agg.Snapshot()
	snap.Trends[0].Series[0] = 42
	snap.Alerts[0].Actions[0].ID = "mutated"
	snap.Alerts[0].Acknowledged = true

	fresh := agg.Snapshot()
	assert.Equal(t, 1.0, fresh.Trends[0].Series[0])
	assert.Equal(t, "x", fresh.Alerts[0].Actions[0].ID)
	assert.False(t, fresh.Alerts[0].Acknowledged)
}

func TestSnapshotAlertPayloadIsACopy(t *testing.T) {
	agg, clock := newAggregator()
	agg.Apply(event(models.MAlert{
		ID:        "a1",
		Timestamp: clock.now,
		Payload:   map[string]interface{}{"engagement": 1.0, "window": map[string]interface{}{"size": 5}},
		Actions: []models.MAlertAction{{
			ID:      "x",
			Payload: map[string]interface{}{"sourceId": "instagram"},
		}},
	}, clock.now))

	snap := agg.Snapshot()
	snap.Alerts[0].Payload["engagement"] = 999.0
	snap.Alerts[0].Payload["window"].(map[string]interface{})["size"] = 0
	snap.Alerts[0].Actions[0].Payload["sourceId"] = "mutated"

	fresh := agg.Snapshot()
	assert.Equal(t, 1.0, fresh.Alerts[0].Payload["engagement"])
	assert.Equal(t, 5, fresh.Alerts[0].Payload["window"].(map[string]interface{})["size"])
	assert.Equal(t, "instagram", fresh.Alerts[0].Actions[0].Payload["sourceId"])
}

func TestPruneRetention(t *testing.T) {
	agg, clock := newAggregator()
	start := clock.now

	agg.Apply(event(uniformSample(start), start))
	agg.Apply(event(models.MTrendRecord{SourceID: "s", Field: "engagement", Confidence: 99, DetectedAt: start}, start))
	agg.Apply(event(models.MAlert{ID: "acked", Timestamp: start}, start))
	agg.Apply(event(models.MAlert{ID: "open", Timestamp: start}, start))
	require.True(t, agg.AcknowledgeAlert("acked"))
	assert.False(t, agg.AcknowledgeAlert("missing"))

	clock.now = start.Add(30 * time.Minute)
	agg.Apply(event(uniformSample(clock.now), clock.now))
	assert.Equal(t, PruneResult{}, agg.Prune())

	clock.now = start.Add(61 * time.Minute)
	res := agg.Prune()
	assert.Equal(t, PruneResult{Metrics: 1, Trends: 1, Alerts: 1}, res)

	snap := agg.Snapshot()
	assert.Len(t, snap.Metrics, 1)
	assert.Empty(t, snap.Trends)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, "open", snap.Alerts[0].ID)
	for _, m := range snap.Metrics {
		assert.False(t, m.Timestamp.Before(agg.Cutoff()))
	}
}

func TestCapsHoldUnderVolume(t *testing.T) {
	agg, clock := newAggregator()
	for i := 0; i < 10000; i++ {
		agg.Apply(event(models.MAlert{ID: fmt.Sprintf("a%d", i), Timestamp: clock.now}, clock.now))
		agg.Apply(event(models.MRecommendation{ID: fmt.Sprintf("r%d", i), RequiresAction: true}, clock.now))
		agg.Apply(event(uniformSample(clock.now), clock.now))
	}
	snap := agg.Snapshot()
	assert.LessOrEqual(t, len(snap.Alerts), 50)
	assert.LessOrEqual(t, len(snap.Recommendations), 10)
	assert.LessOrEqual(t, len(snap.Metrics), config.Default().Dashboard.RecentMetricsLimit)
}
