package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"trend-pulse/src/analysis/core"
	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// TrendDetector turns the latest window of a source field into a trend record.
type TrendDetector struct {
	Window     int
	Thresholds map[string]float64
	Clock      func() time.Time
}

// -----------------------------------------------------------------------------

func NewTrendDetector(cfg models.MAnalysisConfig, clock func() time.Time) *TrendDetector {
	thresholds := make(map[string]float64, len(cfg.TrendThresholds))
	for field, v := range cfg.TrendThresholds {
		thresholds[field] = v
	}
	if clock == nil {
		clock = time.Now
	}
	return &TrendDetector{
		Window:     cfg.TrendWindow,
		Thresholds: thresholds,
		Clock:      clock,
	}
}

// -----------------------------------------------------------------------------

// TrendStats are the regression figures behind a trend record.
type TrendStats struct {
	Slope         float64
	Velocity      float64
	Volatility    float64
	Confidence    float64
	PredictedNext float64
	Direction     models.TrendDirection
}

// ComputeTrendStats regresses series against its index.
// velocity = slope*100, confidence = clamp(100 - stddev*10, 0, 100).
func ComputeTrendStats(series []float64) TrendStats {
	slope := core.CalculateSlope(series)
	_, std := core.CalculateMeanStd(series)

	stats := TrendStats{
		Slope:      slope,
		Velocity:   slope * 100,
		Volatility: std,
		Confidence: core.Clamp(100-std*10, 0, 100),
		Direction:  models.TrendStable,
	}
	if len(series) > 0 {
		stats.PredictedNext = series[len(series)-1] + slope
	}
	switch {
	case stats.Velocity > 0:
		stats.Direction = models.TrendUp
	case stats.Velocity < 0:
		stats.Direction = models.TrendDown
	}
	return stats
}

// -----------------------------------------------------------------------------

// Detect builds a trend for one series. It reports false when the series is
// shorter than two points, the field has no threshold, or |velocity| does
// not exceed the threshold.
func (d *TrendDetector) Detect(sourceID, field string, series []float64) (models.MTrendRecord, bool) {
	threshold, ok := d.Thresholds[field]
	if !ok || len(series) < 2 {
		return models.MTrendRecord{}, false
	}

	stats := ComputeTrendStats(series)
	if math.IsNaN(stats.Velocity) || math.Abs(stats.Velocity) <= threshold {
		return models.MTrendRecord{}, false
	}

	return models.MTrendRecord{
		ID:            uuid.NewString(),
		Name:          fmt.Sprintf("%s trending %s on %s", field, stats.Direction, sourceID),
		Category:      field,
		SourceID:      sourceID,
		Field:         field,
		Direction:     stats.Direction,
		Velocity:      stats.Velocity,
		Confidence:    stats.Confidence,
		Series:        append([]float64(nil), series...),
		PredictedNext: stats.PredictedNext,
		Timeframe:     fmt.Sprintf("last %d samples", len(series)),
		DetectedAt:    d.Clock().UTC(),
	}, true
}

// -----------------------------------------------------------------------------

// DetectSource runs Detect over every thresholded field of a source's
// latest window, in field-name order.
func (d *TrendDetector) DetectSource(history *utils.SampleHistory, sourceID string) []models.MTrendRecord {
	fields := make([]string, 0, len(d.Thresholds))
	for field := range d.Thresholds {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var trends []models.MTrendRecord
	for _, field := range fields {
		series := history.Series(sourceID, field, d.Window)
		if trend, ok := d.Detect(sourceID, field, series); ok {
			trends = append(trends, trend)
		}
	}
	return trends
}
