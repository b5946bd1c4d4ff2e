package models

import "time"

// MPerformanceScore is the weighted dashboard score. All terms are 0-100.
type MPerformanceScore struct {
	Overall     float64 `json:"overall"`
	Engagement  float64 `json:"engagement"`
	Growth      float64 `json:"growth"`
	Revenue     float64 `json:"revenue"`
	Reach       float64 `json:"reach"`
	Consistency float64 `json:"consistency"`
}

// MDashboardSnapshot is the aggregate view handed to consumers by value.
type MDashboardSnapshot struct {
	Metrics         []MMetricSample   `json:"metrics"`
	Alerts          []MAlert          `json:"alerts"`
	Trends          []MTrendRecord    `json:"trends"`
	Score           MPerformanceScore `json:"performanceScore"`
	Recommendations []MRecommendation `json:"recommendations"`
	LastUpdated     time.Time         `json:"lastUpdated"`
}
