package simulated

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"trend-pulse/src/models"
)

// Adapter generates random-walk samples per source. It stands in for real
// platform clients and can be told to fail a fraction of calls.
type Adapter struct {
	FailureRate float64
	Clock       func() time.Time

	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]models.MMetricSample
}

// -----------------------------------------------------------------------------

// New creates an adapter. The same seed yields the same sequence.
func New(failureRate float64, seed uint64) *Adapter {
	return &Adapter{
		FailureRate: failureRate,
		Clock:       time.Now,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		last:        make(map[string]models.MMetricSample),
	}
}

func (a *Adapter) Name() string {
	return "simulated"
}

// -----------------------------------------------------------------------------

func (a *Adapter) FetchSample(ctx context.Context, sourceID string) (models.MMetricSample, error) {
	if err := ctx.Err(); err != nil {
		return models.MMetricSample{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rng.Float64() < a.FailureRate {
		return models.MMetricSample{}, fmt.Errorf("simulated outage for %s", sourceID)
	}

	prev, ok := a.last[sourceID]
	if !ok {
		prev = a.seedSample(sourceID)
	}
	next := a.step(prev)
	next.Timestamp = a.Clock().UTC()
	a.last[sourceID] = next
	return next, nil
}

// -----------------------------------------------------------------------------

func (a *Adapter) seedSample(sourceID string) models.MMetricSample {
	followers := 1000 + a.rng.Float64()*49000
	return models.MMetricSample{
		SourceID:   sourceID,
		Followers:  followers,
		Engagement: 1 + a.rng.Float64()*9,
		Reach:      followers * (1 + a.rng.Float64()*3),
		Views:      followers * (0.5 + a.rng.Float64()*2),
		Revenue:    a.rng.Float64() * 200,
	}
}

// step walks every field by a few percent and derives the counters.
func (a *Adapter) step(prev models.MMetricSample) models.MMetricSample {
	walk := func(v, pct float64) float64 {
		return math.Max(0, v*(1+(a.rng.Float64()*2-1)*pct))
	}

	next := models.MMetricSample{SourceID: prev.SourceID}
	next.Followers = math.Round(walk(prev.Followers, 0.01))
	next.GrowthDelta = next.Followers - prev.Followers
	next.Engagement = math.Min(100, walk(prev.Engagement, 0.15))
	next.Reach = math.Round(walk(prev.Reach, 0.1))
	next.Impressions = math.Round(next.Reach * (1.2 + a.rng.Float64()*0.6))
	next.Views = math.Round(walk(prev.Views, 0.2))

	interactions := next.Reach * next.Engagement / 100
	next.Likes = math.Round(interactions * 0.7)
	next.Comments = math.Round(interactions * 0.1)
	next.Shares = math.Round(interactions * 0.1)
	next.Saves = math.Round(interactions * 0.1)
	next.Clicks = math.Round(next.Impressions * 0.02)
	next.Revenue = math.Round(walk(prev.Revenue, 0.1)*100) / 100
	return next
}
