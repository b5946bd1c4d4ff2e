package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind tags the payload carried by a stream event.
type EventKind string

const (
	EventKindMetric         EventKind = "metric"
	EventKindTrend          EventKind = "trend"
	EventKindAlert          EventKind = "alert"
	EventKindRecommendation EventKind = "recommendation"
)

// ParseEventKind validates a client supplied stream type.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventKindMetric, EventKindTrend, EventKindAlert, EventKindRecommendation:
		return k, nil
	}
	return "", fmt.Errorf("unknown stream type %q", s)
}

// Priority orders events for the urgent broadcast channel.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority validates a configured priority name.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// -----------------------------------------------------------------------------

// EventPayload is the closed set of payloads a stream event may carry:
// MMetricSample, MTrendRecord, MAlert and MRecommendation.
type EventPayload interface {
	eventKind() EventKind
}

// MStreamEvent is an immutable tagged event flowing through the buffer.
type MStreamEvent struct {
	ID        string       `json:"id"`
	Kind      EventKind    `json:"kind"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
	SourceID  string       `json:"sourceId"`
	Priority  Priority     `json:"priority"`
}

// NewStreamEvent stamps a payload with an id and its kind.
func NewStreamEvent(payload EventPayload, sourceID string, priority Priority, ts time.Time) MStreamEvent {
	return MStreamEvent{
		ID:        uuid.NewString(),
		Kind:      payload.eventKind(),
		Payload:   payload,
		Timestamp: ts,
		SourceID:  sourceID,
		Priority:  priority,
	}
}

// -----------------------------------------------------------------------------

// UnmarshalJSON decodes the payload into the concrete type named by kind.
func (e *MStreamEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Kind      EventKind       `json:"kind"`
		Payload   json.RawMessage `json:"payload"`
		Timestamp time.Time       `json:"timestamp"`
		SourceID  string          `json:"sourceId"`
		Priority  Priority        `json:"priority"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var payload EventPayload
	switch raw.Kind {
	case EventKindMetric:
		var p MMetricSample
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case EventKindTrend:
		var p MTrendRecord
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case EventKindAlert:
		var p MAlert
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case EventKindRecommendation:
		var p MRecommendation
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	default:
		return fmt.Errorf("unknown event kind %q", raw.Kind)
	}

	*e = MStreamEvent{
		ID:        raw.ID,
		Kind:      raw.Kind,
		Payload:   payload,
		Timestamp: raw.Timestamp,
		SourceID:  raw.SourceID,
		Priority:  raw.Priority,
	}
	return nil
}
