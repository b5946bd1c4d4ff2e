package analysis

import (
	"math"
	"testing"
	"time"

	"trend-pulse/src/models"
	"trend-pulse/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newDetector() *TrendDetector {
	return NewTrendDetector(models.MAnalysisConfig{
		TrendWindow:     5,
		TrendThresholds: map[string]float64{models.FieldEngagement: 5, models.FieldFollowers: 2},
	}, fixedClock(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)))
}

func TestDetectDecliningEngagement(t *testing.T) {
	trend, ok := newDetector().Detect("instagram", models.FieldEngagement, []float64{10, 9, 8, 7, 6})
	require.True(t, ok)

	assert.Equal(t, models.TrendDown, trend.Direction)
	// velocity = slope * 100; slope is -1 here
	assert.InDelta(t, -100, trend.Velocity, 1e-9)
	assert.InDelta(t, 100-math.Sqrt2*10, trend.Confidence, 1e-9)
	assert.InDelta(t, 5, trend.PredictedNext, 1e-9)
	assert.Equal(t, "instagram", trend.SourceID)
	assert.Equal(t, []float64{10, 9, 8, 7, 6}, trend.Series)
	assert.NotEmpty(t, trend.ID)
}

func TestDetectBelowThresholdEmitsNothing(t *testing.T) {
	d := newDetector()

	// slope 0.04 -> velocity 4, under the engagement threshold of 5
	_, ok := d.Detect("instagram", models.FieldEngagement, []float64{5, 5.04, 5.08, 5.12, 5.16})
	assert.False(t, ok)

	_, ok = d.Detect("instagram", models.FieldEngagement, []float64{7, 7, 7})
	assert.False(t, ok)

	_, ok = d.Detect("instagram", models.FieldEngagement, []float64{7})
	assert.False(t, ok)

	_, ok = d.Detect("instagram", models.FieldViews, []float64{1, 100, 1000})
	assert.False(t, ok, "fields without a threshold are not analyzed")

	// followers use their own, lower threshold
	trend, ok := d.Detect("instagram", models.FieldFollowers, []float64{100, 100.03, 100.06})
	require.True(t, ok)
	assert.Equal(t, models.TrendUp, trend.Direction)
}

func TestConfidenceBounds(t *testing.T) {
	constant := ComputeTrendStats([]float64{4, 4, 4, 4, 4})
	assert.Equal(t, 100.0, constant.Confidence)
	assert.Equal(t, models.TrendStable, constant.Direction)

	volatile := ComputeTrendStats([]float64{0, 1000, 0, 1000, 0})
	assert.Equal(t, 0.0, volatile.Confidence)

	inputs := [][]float64{
		{math.MaxFloat64, -math.MaxFloat64},
		{1e300, 1e300, 1e300},
		{-5, 3, 1e-9, 42},
		{math.Inf(1), 0},
		{math.NaN(), 1},
	}
	for _, series := range inputs {
		c := ComputeTrendStats(series).Confidence
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 100.0)
	}
}

func TestDetectSourceUsesLatestWindow(t *testing.T) {
	h := utils.NewSampleHistory(50)
	values := []float64{1, 1, 1, 10, 9, 8, 7, 6}
	for _, v := range values {
		h.Add(models.MMetricSample{SourceID: "instagram", Engagement: v, Followers: 500})
	}

	trends := newDetector().DetectSource(h, "instagram")
	require.Len(t, trends, 1)
	assert.Equal(t, models.FieldEngagement, trends[0].Field)
	assert.Equal(t, []float64{10, 9, 8, 7, 6}, trends[0].Series)
}
