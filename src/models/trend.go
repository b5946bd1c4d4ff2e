package models

import "time"

// TrendDirection is the sign of a detected trend.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// MTrendRecord is computed fresh from the latest window of one source field.
type MTrendRecord struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Category      string         `json:"category"`
	SourceID      string         `json:"sourceId"`
	Field         string         `json:"field"`
	Direction     TrendDirection `json:"direction"`
	Velocity      float64        `json:"velocity"`
	Confidence    float64        `json:"confidence"`
	Series        []float64      `json:"series"`
	PredictedNext float64        `json:"predictedNext"`
	Timeframe     string         `json:"timeframe"`
	DetectedAt    time.Time      `json:"detectedAt"`
}

func (MTrendRecord) eventKind() EventKind { return EventKindTrend }

// Key identifies the series a trend was computed from.
func (t MTrendRecord) Key() string {
	return t.SourceID + "/" + t.Field
}

// Clone copies the series so the copy can be handed out.
func (t MTrendRecord) Clone() MTrendRecord {
	t.Series = append([]float64(nil), t.Series...)
	return t
}
