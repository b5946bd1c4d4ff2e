package analysis

import (
	"time"

	"trend-pulse/src/logger"
	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// AnalysisFacade runs trend, alert and timing analysis over a drained batch
// and returns the derived events. Only metric events are analyzed.
type AnalysisFacade struct {
	History         *utils.SampleHistory
	Trends          *TrendDetector
	Alerts          *AlertGenerator
	Recommendations *RecommendationGenerator
	MinConfidence   float64
	Clock           func() time.Time
	Logger          *logger.Logger
}

// BatchResult is what one batch produced.
type BatchResult struct {
	Events     []models.MStreamEvent
	RuleErrors []error
	Metrics    int
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, cal *utils.BusinessCalendar, clock func() time.Time, random func() float64, log *logger.Logger) *AnalysisFacade {
	if clock == nil {
		clock = time.Now
	}
	return &AnalysisFacade{
		History:         utils.NewSampleHistory(cfg.Analysis.HistorySize),
		Trends:          NewTrendDetector(cfg.Analysis, clock),
		Alerts:          NewAlertGenerator(DefaultAlertRules(), clock, log.Named("alerts")),
		Recommendations: NewRecommendationGenerator(cfg.Recommendations, cal, clock, random),
		MinConfidence:   cfg.Dashboard.MinTrendConfidence,
		Clock:           clock,
		Logger:          log,
	}
}

// -----------------------------------------------------------------------------

// ProcessBatch folds metric samples into per-source history in arrival
// order, evaluates alert rules per sample, then detects trends once per
// touched source and checks the prime-time window.
func (a *AnalysisFacade) ProcessBatch(batch []models.MStreamEvent) BatchResult {
	var result BatchResult
	var touched []string
	seen := make(map[string]bool)

	for _, evt := range batch {
		sample, ok := evt.Payload.(models.MMetricSample)
		if !ok {
			continue
		}
		result.Metrics++

		a.History.Add(sample)
		if !seen[sample.SourceID] {
			seen[sample.SourceID] = true
			touched = append(touched, sample.SourceID)
		}

		alerts, errs := a.Alerts.Evaluate(sample)
		result.RuleErrors = append(result.RuleErrors, errs...)
		for _, alert := range alerts {
			result.Events = append(result.Events, models.NewStreamEvent(alert, alert.SourceID, alert.Priority(), alert.Timestamp))
		}
	}

	for _, sourceID := range touched {
		for _, trend := range a.Trends.DetectSource(a.History, sourceID) {
			result.Events = append(result.Events, models.NewStreamEvent(trend, sourceID, a.TrendPriority(trend), trend.DetectedAt))
		}
	}

	if result.Metrics > 0 {
		if rec, ok := a.Recommendations.PrimeTime(); ok {
			result.Events = append(result.Events, models.NewStreamEvent(rec, rec.SourceID, rec.Priority(), rec.Timestamp))
		}
	}

	if len(result.Events) > 0 {
		a.Logger.Debug("Batch of %d metrics produced %d derived events", result.Metrics, len(result.Events))
	}
	return result
}

// -----------------------------------------------------------------------------

// TrendPriority is medium for trends confident enough for the dashboard, low otherwise.
func (a *AnalysisFacade) TrendPriority(trend models.MTrendRecord) models.Priority {
	if trend.Confidence >= a.MinConfidence {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// -----------------------------------------------------------------------------

// Forget drops all per-source state of a removed source.
func (a *AnalysisFacade) Forget(sourceID string) {
	a.History.Remove(sourceID)
	a.Alerts.Forget(sourceID)
}
