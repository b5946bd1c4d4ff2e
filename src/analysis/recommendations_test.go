package analysis

import (
	"fmt"
	"testing"
	"time"

	"trend-pulse/src/models"
	"trend-pulse/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recConfig() models.MRecommendationsConfig {
	return models.MRecommendationsConfig{QueueSize: 10, TriggerProbability: 0.1, PrimeTimeStartHour: 18, PrimeTimeEndHour: 21}
}

func TestPrimeTimeOncePerHour(t *testing.T) {
	now := time.Date(2025, 3, 4, 18, 5, 0, 0, time.UTC)
	g := NewRecommendationGenerator(recConfig(), utils.NewBusinessCalendar("", nil), func() time.Time { return now }, nil)

	rec, ok := g.PrimeTime()
	require.True(t, ok)
	assert.Equal(t, models.RecommendationTiming, rec.Kind)
	assert.True(t, rec.AutoApply)
	assert.False(t, rec.Pending())

	now = now.Add(30 * time.Minute)
	_, ok = g.PrimeTime()
	assert.False(t, ok)

	now = now.Add(time.Hour)
	_, ok = g.PrimeTime()
	assert.True(t, ok)

	now = time.Date(2025, 3, 4, 21, 0, 0, 0, time.UTC)
	_, ok = g.PrimeTime()
	assert.False(t, ok)
}

func TestTriggerProbability(t *testing.T) {
	roll := 0.5
	g := NewRecommendationGenerator(recConfig(), nil, fixedClock(alertNow), func() float64 { return roll })
	recent := []models.MMetricSample{
		{SourceID: "a", Engagement: 6, Reach: 1000},
		{SourceID: "a", Engagement: 7, Reach: 1200},
		{SourceID: "b", Engagement: 4, Reach: 800},
	}

	_, ok := g.Trigger(recent)
	assert.False(t, ok)

	roll = 0.05
	_, ok = g.Trigger(nil)
	assert.False(t, ok, "empty window never fires")

	rec, ok := g.Trigger(recent)
	require.True(t, ok)
	assert.Equal(t, models.RecommendationStrategy, rec.Kind)
	assert.Equal(t, "a", rec.SourceID)
	assert.True(t, rec.Pending())
	assert.InDelta(t, 20, rec.ExpectedImpact, 1e-9)
}

func TestTriggerLowEngagementSuggestsContent(t *testing.T) {
	g := NewRecommendationGenerator(recConfig(), nil, fixedClock(alertNow), func() float64 { return 0 })
	rec, ok := g.Trigger([]models.MMetricSample{
		{SourceID: "a", Engagement: 2.5},
		{SourceID: "b", Engagement: 0.5},
	})
	require.True(t, ok)
	assert.Equal(t, models.RecommendationContent, rec.Kind)
	assert.Equal(t, "b", rec.SourceID)
	assert.Equal(t, models.PriorityMedium, rec.Priority())
}

func TestRecommendationQueueRotates(t *testing.T) {
	q := NewRecommendationQueue(10)
	for i := 0; i < 10000; i++ {
		q.Add(models.MRecommendation{ID: fmt.Sprintf("r%d", i), RequiresAction: i%2 == 0})
		require.LessOrEqual(t, q.Len(), 10)
	}
	all := q.All()
	assert.Equal(t, "r9990", all[0].ID)
	assert.Len(t, q.Pending(), 5)
}
