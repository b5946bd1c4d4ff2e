package models

import "time"

// AlertCategory groups alerts by intent.
type AlertCategory string

const (
	AlertPerformance AlertCategory = "performance"
	AlertOpportunity AlertCategory = "opportunity"
	AlertRisk        AlertCategory = "risk"
	AlertMilestone   AlertCategory = "milestone"
)

// AlertSeverity drives presentation and event priority.
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeverityError   AlertSeverity = "error"
	SeveritySuccess AlertSeverity = "success"
)

// MAlertAction is a suggested follow-up attached to an alert.
type MAlertAction struct {
	ID      string                 `json:"id"`
	Label   string                 `json:"label"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// MAlert is raised by a matching rule. Acknowledged is its only mutable field.
type MAlert struct {
	ID           string                 `json:"id"`
	Category     AlertCategory          `json:"category"`
	Severity     AlertSeverity          `json:"severity"`
	Message      string                 `json:"message"`
	SourceID     string                 `json:"sourceId"`
	Rule         string                 `json:"rule"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Acknowledged bool                   `json:"acknowledged"`
	Actions      []MAlertAction         `json:"actions"`
}

func (MAlert) eventKind() EventKind { return EventKindAlert }

// Clone returns a copy sharing no slices or maps with the original.
func (a MAlert) Clone() MAlert {
	a.Payload = clonePayload(a.Payload)
	if a.Actions != nil {
		actions := make([]MAlertAction, len(a.Actions))
		for i, action := range a.Actions {
			action.Payload = clonePayload(action.Payload)
			actions[i] = action
		}
		a.Actions = actions
	}
	return a
}

// clonePayload copies nested maps and slices; other values are copied as is.
func clonePayload(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = clonePayloadValue(v)
	}
	return out
}

func clonePayloadValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return clonePayload(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = clonePayloadValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	}
	return v
}

// Priority maps the alert severity onto the stream priority scale.
func (a MAlert) Priority() Priority {
	switch a.Severity {
	case SeverityError:
		return PriorityCritical
	case SeveritySuccess:
		return PriorityHigh
	case SeverityWarning:
		return PriorityMedium
	}
	return PriorityLow
}
