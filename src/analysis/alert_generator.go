package analysis

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"trend-pulse/src/helpers"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"
)

const (
	lowEngagementThreshold = 2.0
	viralViewsThreshold    = 50000.0
	viralEngagementFloor   = 8.0
	followerLossThreshold  = -50.0
	followerMilestoneStep  = 10000.0
)

// RuleInput is what every alert rule sees for one metric event.
type RuleInput struct {
	Sample      models.MMetricSample
	Previous    models.MMetricSample
	HasPrevious bool
}

// AlertRule returns a draft alert when it matches, nil otherwise.
// The generator fills in id, source and timestamp.
type AlertRule struct {
	Name     string
	Evaluate func(in RuleInput) (*models.MAlert, error)
}

// -----------------------------------------------------------------------------

// DefaultAlertRules is the fixed ordered rule set.
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Name: "low_engagement", Evaluate: lowEngagementRule},
		{Name: "viral_content", Evaluate: viralContentRule},
		{Name: "follower_loss", Evaluate: followerLossRule},
		{Name: "follower_milestone", Evaluate: followerMilestoneRule},
	}
}

func lowEngagementRule(in RuleInput) (*models.MAlert, error) {
	if in.Sample.Engagement >= lowEngagementThreshold {
		return nil, nil
	}
	return &models.MAlert{
		Category: models.AlertPerformance,
		Severity: models.SeverityWarning,
		Message:  fmt.Sprintf("Engagement dropped to %.2f%% on %s", in.Sample.Engagement, in.Sample.SourceID),
		Payload:  map[string]interface{}{"engagement": in.Sample.Engagement, "threshold": lowEngagementThreshold},
		Actions: []models.MAlertAction{
			{ID: "investigate_content", Label: "Investigate content", Kind: "investigate"},
			{ID: "optimize_schedule", Label: "Optimize posting schedule", Kind: "schedule"},
		},
	}, nil
}

func viralContentRule(in RuleInput) (*models.MAlert, error) {
	if in.Sample.Views <= viralViewsThreshold || in.Sample.Engagement <= viralEngagementFloor {
		return nil, nil
	}
	return &models.MAlert{
		Category: models.AlertOpportunity,
		Severity: models.SeveritySuccess,
		Message:  fmt.Sprintf("Content on %s is taking off: %.0f views at %.2f%% engagement", in.Sample.SourceID, in.Sample.Views, in.Sample.Engagement),
		Payload:  map[string]interface{}{"views": in.Sample.Views, "engagement": in.Sample.Engagement},
		Actions: []models.MAlertAction{
			{ID: "amplify_content", Label: "Amplify content", Kind: "amplify"},
		},
	}, nil
}

func followerLossRule(in RuleInput) (*models.MAlert, error) {
	if in.Sample.GrowthDelta > followerLossThreshold {
		return nil, nil
	}
	return &models.MAlert{
		Category: models.AlertRisk,
		Severity: models.SeverityError,
		Message:  fmt.Sprintf("%s lost %.0f followers since the last sample", in.Sample.SourceID, math.Abs(in.Sample.GrowthDelta)),
		Payload:  map[string]interface{}{"growthDelta": in.Sample.GrowthDelta, "followers": in.Sample.Followers},
		Actions: []models.MAlertAction{
			{ID: "review_recent_content", Label: "Review recent content", Kind: "review"},
		},
	}, nil
}

func followerMilestoneRule(in RuleInput) (*models.MAlert, error) {
	if !in.HasPrevious || in.Sample.Followers < followerMilestoneStep {
		return nil, nil
	}
	reached := math.Floor(in.Sample.Followers / followerMilestoneStep)
	before := math.Floor(in.Previous.Followers / followerMilestoneStep)
	if reached <= before {
		return nil, nil
	}
	milestone := reached * followerMilestoneStep
	return &models.MAlert{
		Category: models.AlertMilestone,
		Severity: models.SeveritySuccess,
		Message:  fmt.Sprintf("%s passed %.0f followers", in.Sample.SourceID, milestone),
		Payload:  map[string]interface{}{"milestone": milestone, "followers": in.Sample.Followers},
		Actions: []models.MAlertAction{
			{ID: "share_milestone", Label: "Share milestone", Kind: "celebrate"},
		},
	}, nil
}

// -----------------------------------------------------------------------------

// AlertGenerator evaluates the ordered rules against each metric event.
type AlertGenerator struct {
	Rules  []AlertRule
	Clock  func() time.Time
	Logger *logger.Logger

	mu       sync.Mutex
	previous map[string]models.MMetricSample
}

// -----------------------------------------------------------------------------

func NewAlertGenerator(rules []AlertRule, clock func() time.Time, log *logger.Logger) *AlertGenerator {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logger.NewLogger(nil, "AlertGenerator")
	}
	return &AlertGenerator{
		Rules:    rules,
		Clock:    clock,
		Logger:   log,
		previous: make(map[string]models.MMetricSample),
	}
}

// -----------------------------------------------------------------------------

// Evaluate runs every rule in order. A failing or panicking rule is skipped
// and reported as a RuleEvaluationError; the remaining rules still run.
func (g *AlertGenerator) Evaluate(sample models.MMetricSample) ([]models.MAlert, []error) {
	g.mu.Lock()
	prev, hasPrev := g.previous[sample.SourceID]
	g.previous[sample.SourceID] = sample
	g.mu.Unlock()

	in := RuleInput{Sample: sample, Previous: prev, HasPrevious: hasPrev}

	var alerts []models.MAlert
	var errs []error
	for _, rule := range g.Rules {
		draft, err := g.runRule(rule, in)
		if err != nil {
			g.Logger.WithFields(logger.Fields{"rule": rule.Name, "source_id": sample.SourceID}).WithError(err).Warning("Alert rule skipped")
			errs = append(errs, err)
			continue
		}
		if draft == nil {
			continue
		}

		alert := *draft
		alert.ID = uuid.NewString()
		alert.SourceID = sample.SourceID
		alert.Rule = rule.Name
		alert.Timestamp = g.Clock().UTC()
		alert.Acknowledged = false
		alerts = append(alerts, alert)
	}
	return alerts, errs
}

// -----------------------------------------------------------------------------

func (g *AlertGenerator) runRule(rule AlertRule, in RuleInput) (alert *models.MAlert, err error) {
	defer func() {
		if r := recover(); r != nil {
			alert = nil
			err = helpers.NewRuleEvaluationError(rule.Name, helpers.Recovered(r))
		}
	}()

	alert, err = rule.Evaluate(in)
	if err != nil {
		return nil, helpers.NewRuleEvaluationError(rule.Name, err)
	}
	return alert, nil
}

// -----------------------------------------------------------------------------

// Forget drops the previous-sample state of a removed source.
func (g *AlertGenerator) Forget(sourceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.previous, sourceID)
}
