package dashboard

import (
	"sort"
	"sync"
	"time"

	"trend-pulse/src/analysis"
	"trend-pulse/src/analysis/core"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// Score weights.
const (
	weightEngagement  = 0.30
	weightGrowth      = 0.25
	weightRevenue     = 0.20
	weightReach       = 0.15
	weightConsistency = 0.10
)

// Aggregator is the single owner of the dashboard state. Every read hands
// out a copy.
type Aggregator struct {
	Clock   func() time.Time
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	retention     time.Duration
	minConfidence float64

	mu          sync.RWMutex
	samples     *utils.RingBuffer[models.MMetricSample]
	trends      map[string]models.MTrendRecord
	alerts      *analysis.AlertHistory
	recs        *analysis.RecommendationQueue
	score       models.MPerformanceScore
	lastUpdated time.Time
}

// -----------------------------------------------------------------------------

func NewAggregator(cfg *models.MConfig, clock func() time.Time, m *metrics.Metrics, log *logger.Logger) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{
		Clock:         clock,
		Logger:        log,
		Metrics:       m,
		retention:     time.Duration(cfg.Dashboard.RetentionMinutes) * time.Minute,
		minConfidence: cfg.Dashboard.MinTrendConfidence,
		samples:       utils.NewRingBuffer[models.MMetricSample](cfg.Dashboard.RecentMetricsLimit),
		trends:        make(map[string]models.MTrendRecord),
		alerts:        analysis.NewAlertHistory(cfg.Analysis.AlertHistorySize),
		recs:          analysis.NewRecommendationQueue(cfg.Recommendations.QueueSize),
		lastUpdated:   clock().UTC(),
	}
}

// -----------------------------------------------------------------------------

// Apply folds one event into the snapshot.
func (a *Aggregator) Apply(evt models.MStreamEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch p := evt.Payload.(type) {
	case models.MMetricSample:
		a.samples.Append(p)
		a.recomputeScore()
	case models.MTrendRecord:
		if p.Confidence >= a.minConfidence {
			a.trends[p.Key()] = p.Clone()
		} else {
			delete(a.trends, p.Key())
		}
	case models.MAlert:
		a.alerts.Add(p)
		if a.Metrics != nil {
			a.Metrics.AlertsRaised.WithLabelValues(string(p.Category)).Inc()
		}
	case models.MRecommendation:
		a.recs.Add(p)
		if a.Metrics != nil {
			a.Metrics.Recommendations.WithLabelValues(string(p.Kind)).Inc()
		}
	default:
		a.Logger.Warning("Ignoring event %s with unknown payload %T", evt.ID, evt.Payload)
		return
	}
	a.lastUpdated = a.Clock().UTC()
}

// -----------------------------------------------------------------------------

// PruneResult counts what one retention pass removed.
type PruneResult struct {
	Metrics int
	Trends  int
	Alerts  int
}

// Prune drops metrics and trends older than the retention window and
// acknowledged alerts raised before it.
func (a *Aggregator) Prune() PruneResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.Clock()
	cutoff := now.Add(-a.retention)

	var res PruneResult
	res.Metrics = a.samples.Filter(func(s models.MMetricSample) bool {
		return !s.Timestamp.Before(cutoff)
	})
	for key, trend := range a.trends {
		if trend.DetectedAt.Before(cutoff) {
			delete(a.trends, key)
			res.Trends++
		}
	}
	res.Alerts = a.alerts.Prune(cutoff)

	if res.Metrics > 0 {
		a.recomputeScore()
	}
	a.lastUpdated = now.UTC()
	return res
}

// -----------------------------------------------------------------------------

// Cutoff is the oldest timestamp still inside the retention window.
func (a *Aggregator) Cutoff() time.Time {
	return a.Clock().Add(-a.retention)
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the dashboard.
func (a *Aggregator) Snapshot() models.MDashboardSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	trends := make([]models.MTrendRecord, 0, len(a.trends))
	for _, t := range a.trends {
		trends = append(trends, t.Clone())
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Key() < trends[j].Key() })

	return models.MDashboardSnapshot{
		Metrics:         a.samples.GetAll(),
		Alerts:          a.alerts.Unacknowledged(),
		Trends:          trends,
		Score:           a.score,
		Recommendations: a.recs.Pending(),
		LastUpdated:     a.lastUpdated,
	}
}

// -----------------------------------------------------------------------------

// RecentMetrics returns a copy of the metrics window, oldest first.
func (a *Aggregator) RecentMetrics() []models.MMetricSample {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.samples.GetAll()
}

// -----------------------------------------------------------------------------

// AcknowledgeAlert marks an alert acknowledged; unknown ids return false.
func (a *Aggregator) AcknowledgeAlert(alertID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok := a.alerts.Acknowledge(alertID)
	if ok {
		a.lastUpdated = a.Clock().UTC()
	}
	return ok
}

// -----------------------------------------------------------------------------

func (a *Aggregator) Score() models.MPerformanceScore {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.score
}

// -----------------------------------------------------------------------------

func (a *Aggregator) recomputeScore() {
	a.score = ComputeScore(a.samples.GetAll())
	if a.Metrics != nil {
		a.Metrics.PerformanceScore.Set(a.score.Overall)
	}
}

// -----------------------------------------------------------------------------

// ComputeScore weighs the window: engagement 30%, growth 25%, revenue 20%,
// reach 15%, consistency 10%. Each term is clamped to [0,1] first.
func ComputeScore(samples []models.MMetricSample) models.MPerformanceScore {
	if len(samples) == 0 {
		return models.MPerformanceScore{}
	}

	engagement := make([]float64, len(samples))
	growth := make([]float64, len(samples))
	reach := make([]float64, len(samples))
	revenue := make([]float64, len(samples))
	for i, s := range samples {
		engagement[i] = s.Engagement
		growth[i] = s.GrowthDelta
		reach[i] = s.Reach
		revenue[i] = s.Revenue
	}

	meanEng, stdEng := core.CalculateMeanStd(engagement)
	growthSummary := core.ComputeSummary(growth)
	reachSummary := core.ComputeSummary(reach)
	revenueSummary := core.ComputeSummary(revenue)

	engagementTerm := core.Clamp(meanEng/10, 0, 1)
	growthTerm := core.Clamp(growthSummary.Mean/10+0.5, 0, 1)
	revenueTerm := core.Clamp(revenueSummary.Sum/1000, 0, 1)
	reachTerm := core.Clamp(reachSummary.Mean/100000, 0, 1)
	consistencyTerm := 0.0
	if meanEng > 0 {
		consistencyTerm = core.Clamp(1-stdEng/meanEng, 0, 1)
	}

	overall := weightEngagement*engagementTerm +
		weightGrowth*growthTerm +
		weightRevenue*revenueTerm +
		weightReach*reachTerm +
		weightConsistency*consistencyTerm

	return models.MPerformanceScore{
		Overall:     overall * 100,
		Engagement:  engagementTerm * 100,
		Growth:      growthTerm * 100,
		Revenue:     revenueTerm * 100,
		Reach:       reachTerm * 100,
		Consistency: consistencyTerm * 100,
	}
}
