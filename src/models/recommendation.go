package models

import "time"

// RecommendationKind classifies advisory output.
type RecommendationKind string

const (
	RecommendationContent  RecommendationKind = "content"
	RecommendationTiming   RecommendationKind = "timing"
	RecommendationPlatform RecommendationKind = "platform"
	RecommendationStrategy RecommendationKind = "strategy"
)

// MRecommendation is an advisory suggestion. Never mutated after creation.
type MRecommendation struct {
	ID             string             `json:"id"`
	Kind           RecommendationKind `json:"kind"`
	Description    string             `json:"description"`
	SourceID       string             `json:"sourceId,omitempty"`
	Confidence     float64            `json:"confidence"`
	ExpectedImpact float64            `json:"expectedImpact"`
	RequiresAction bool               `json:"requiresAction"`
	AutoApply      bool               `json:"autoApply"`
	Timestamp      time.Time          `json:"timestamp"`
}

func (MRecommendation) eventKind() EventKind { return EventKindRecommendation }

// Pending reports whether the recommendation waits on a human decision.
func (r MRecommendation) Pending() bool {
	return r.RequiresAction && !r.AutoApply
}

// Priority maps the recommendation onto the stream priority scale.
func (r MRecommendation) Priority() Priority {
	if r.RequiresAction {
		return PriorityMedium
	}
	return PriorityLow
}
