package utils

import (
	"testing"
	"time"

	"trend-pulse/src/models"

	"github.com/stretchr/testify/assert"
)

func TestSampleHistorySeries(t *testing.T) {
	h := NewSampleHistory(5)
	base := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		h.Add(models.MMetricSample{SourceID: "instagram", Timestamp: base.Add(time.Duration(i) * time.Minute), Engagement: float64(i)})
	}
	h.Add(models.MMetricSample{SourceID: "tiktok", Engagement: 42})

	assert.Equal(t, []float64{2, 3, 4, 5, 6}, h.Series("instagram", models.FieldEngagement, 10))
	assert.Equal(t, []float64{5, 6}, h.Series("instagram", models.FieldEngagement, 2))
	assert.Empty(t, h.Series("instagram", "mood", 5))
	assert.Equal(t, []string{"instagram", "tiktok"}, h.Sources())

	h.Remove("tiktok")
	assert.Empty(t, h.Latest("tiktok", 1))
}
