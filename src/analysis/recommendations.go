package analysis

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trend-pulse/src/analysis/core"
	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

const lowAverageEngagement = 3.0

// RecommendationGenerator produces timing recommendations during prime time
// and a randomly triggered content or strategy recommendation per tick.
type RecommendationGenerator struct {
	Config   models.MRecommendationsConfig
	Calendar *utils.BusinessCalendar
	Clock    func() time.Time
	Rand     func() float64

	mu         sync.Mutex
	lastTiming time.Time
}

// -----------------------------------------------------------------------------

// NewRecommendationGenerator wires defaults for a nil clock (time.Now) and
// a nil random source (math/rand/v2).
func NewRecommendationGenerator(cfg models.MRecommendationsConfig, cal *utils.BusinessCalendar, clock func() time.Time, random func() float64) *RecommendationGenerator {
	if clock == nil {
		clock = time.Now
	}
	if random == nil {
		random = rand.Float64
	}
	return &RecommendationGenerator{
		Config:   cfg,
		Calendar: cal,
		Clock:    clock,
		Rand:     random,
	}
}

// -----------------------------------------------------------------------------

// PrimeTime emits at most one timing recommendation per local clock hour
// while the current time is inside the prime-time window on a business day.
func (g *RecommendationGenerator) PrimeTime() (models.MRecommendation, bool) {
	now := g.Clock()
	if !g.Calendar.InHourWindow(now, g.Config.PrimeTimeStartHour, g.Config.PrimeTimeEndHour) {
		return models.MRecommendation{}, false
	}

	hour := g.Calendar.Local(now).Truncate(time.Hour)

	g.mu.Lock()
	defer g.mu.Unlock()
	if hour.Equal(g.lastTiming) {
		return models.MRecommendation{}, false
	}
	g.lastTiming = hour

	return models.MRecommendation{
		ID:             uuid.NewString(),
		Kind:           models.RecommendationTiming,
		Description:    fmt.Sprintf("Prime time (%02d:00-%02d:00): publish queued content now", g.Config.PrimeTimeStartHour, g.Config.PrimeTimeEndHour),
		Confidence:     85,
		ExpectedImpact: 15,
		RequiresAction: false,
		AutoApply:      true,
		Timestamp:      now.UTC(),
	}, true
}

// -----------------------------------------------------------------------------

// Trigger fires with the configured probability and synthesizes a
// recommendation from the recent metrics window. Nothing fires on an empty window.
func (g *RecommendationGenerator) Trigger(recent []models.MMetricSample) (models.MRecommendation, bool) {
	if len(recent) == 0 || g.Rand() >= g.Config.TriggerProbability {
		return models.MRecommendation{}, false
	}
	return synthesizeRecommendation(recent, g.Clock().UTC()), true
}

// -----------------------------------------------------------------------------

type sourceSummary struct {
	sourceID   string
	engagement core.SeriesSummary
	reach      core.SeriesSummary
}

func summarizeBySource(recent []models.MMetricSample) []sourceSummary {
	engagement := make(map[string][]float64)
	reach := make(map[string][]float64)
	for _, s := range recent {
		engagement[s.SourceID] = append(engagement[s.SourceID], s.Engagement)
		reach[s.SourceID] = append(reach[s.SourceID], s.Reach)
	}

	summaries := make([]sourceSummary, 0, len(engagement))
	for id := range engagement {
		summaries = append(summaries, sourceSummary{
			sourceID:   id,
			engagement: core.ComputeSummary(engagement[id]),
			reach:      core.ComputeSummary(reach[id]),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].engagement.Mean != summaries[j].engagement.Mean {
			return summaries[i].engagement.Mean > summaries[j].engagement.Mean
		}
		return summaries[i].sourceID < summaries[j].sourceID
	})
	return summaries
}

// synthesizeRecommendation picks a content recommendation for the weakest
// source when overall engagement is low, otherwise a strategy recommendation
// to lean on the strongest source.
func synthesizeRecommendation(recent []models.MMetricSample, now time.Time) models.MRecommendation {
	summaries := summarizeBySource(recent)
	overall := make([]float64, len(recent))
	for i, s := range recent {
		overall[i] = s.Engagement
	}
	avg := core.ComputeSummary(overall).Mean
	confidence := core.Clamp(50+float64(len(recent))*2, 0, 95)

	if avg < lowAverageEngagement {
		weakest := summaries[len(summaries)-1]
		return models.MRecommendation{
			ID:             uuid.NewString(),
			Kind:           models.RecommendationContent,
			Description:    fmt.Sprintf("Engagement on %s averages %.2f%%; test new content formats", weakest.sourceID, weakest.engagement.Mean),
			SourceID:       weakest.sourceID,
			Confidence:     confidence,
			ExpectedImpact: core.Clamp((lowAverageEngagement-weakest.engagement.Mean)*10, 5, 50),
			RequiresAction: true,
			AutoApply:      false,
			Timestamp:      now,
		}
	}

	best := summaries[0]
	reachGrowth := core.CalculateChangePercent(best.reach.Last, best.reach.First)
	return models.MRecommendation{
		ID:             uuid.NewString(),
		Kind:           models.RecommendationStrategy,
		Description:    fmt.Sprintf("%s leads with %.2f%% engagement (reach %+.1f%%); shift effort there", best.sourceID, best.engagement.Mean, reachGrowth*100),
		SourceID:       best.sourceID,
		Confidence:     confidence,
		ExpectedImpact: core.Clamp(reachGrowth*100, 5, 50),
		RequiresAction: true,
		AutoApply:      false,
		Timestamp:      now,
	}
}
