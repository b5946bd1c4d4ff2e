package models

import "time"

// Metric field names usable by trend detection and rules.
const (
	FieldFollowers   = "followers"
	FieldEngagement  = "engagement"
	FieldReach       = "reach"
	FieldImpressions = "impressions"
	FieldLikes       = "likes"
	FieldComments    = "comments"
	FieldShares      = "shares"
	FieldSaves       = "saves"
	FieldClicks      = "clicks"
	FieldViews       = "views"
	FieldRevenue     = "revenue"
	FieldGrowthDelta = "growthDelta"
)

// MMetricSample is one timestamped measurement snapshot from a source adapter.
type MMetricSample struct {
	SourceID    string    `json:"sourceId"`
	Timestamp   time.Time `json:"timestamp"`
	Followers   float64   `json:"followers"`
	Engagement  float64   `json:"engagement"`
	Reach       float64   `json:"reach"`
	Impressions float64   `json:"impressions"`
	Likes       float64   `json:"likes"`
	Comments    float64   `json:"comments"`
	Shares      float64   `json:"shares"`
	Saves       float64   `json:"saves"`
	Clicks      float64   `json:"clicks"`
	Views       float64   `json:"views"`
	Revenue     float64   `json:"revenue"`
	GrowthDelta float64   `json:"growthDelta"`
}

// -----------------------------------------------------------------------------

// Field returns the named metric value. Unknown names report false.
func (s MMetricSample) Field(name string) (float64, bool) {
	switch name {
	case FieldFollowers:
		return s.Followers, true
	case FieldEngagement:
		return s.Engagement, true
	case FieldReach:
		return s.Reach, true
	case FieldImpressions:
		return s.Impressions, true
	case FieldLikes:
		return s.Likes, true
	case FieldComments:
		return s.Comments, true
	case FieldShares:
		return s.Shares, true
	case FieldSaves:
		return s.Saves, true
	case FieldClicks:
		return s.Clicks, true
	case FieldViews:
		return s.Views, true
	case FieldRevenue:
		return s.Revenue, true
	case FieldGrowthDelta:
		return s.GrowthDelta, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

func (MMetricSample) eventKind() EventKind { return EventKindMetric }
