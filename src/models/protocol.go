package models

import "time"

// -----------------------------------------------------------------------------
// Subscription protocol message types
// -----------------------------------------------------------------------------

const (
	// client -> server
	MsgSubscribe        = "SUBSCRIBE"
	MsgUnsubscribe      = "UNSUBSCRIBE"
	MsgGetDashboard     = "GET_DASHBOARD"
	MsgAcknowledgeAlert = "ACKNOWLEDGE_ALERT"

	// server -> client
	MsgSubscribed        = "SUBSCRIBED"
	MsgUnsubscribed      = "UNSUBSCRIBED"
	MsgDashboardData     = "DASHBOARD_DATA"
	MsgAlertAcknowledged = "ALERT_ACKNOWLEDGED"
	MsgInitialData       = "INITIAL_DATA"
	MsgStreamData        = "STREAM_DATA"
	MsgBroadcast         = "BROADCAST"
	MsgDashboardUpdate   = "DASHBOARD_UPDATE"
)

// -----------------------------------------------------------------------------

// MClientMessage is any inbound protocol frame.
type MClientMessage struct {
	Type         string `json:"type"`
	StreamType   string `json:"streamType,omitempty"`
	SubscriberID string `json:"subscriberId,omitempty"`
	AlertID      string `json:"alertId,omitempty"`
}

// -----------------------------------------------------------------------------

// MServerMessage is any outbound protocol frame.
type MServerMessage struct {
	Type         string      `json:"type"`
	StreamType   string      `json:"streamType,omitempty"`
	SubscriberID string      `json:"subscriberId,omitempty"`
	AlertID      string      `json:"alertId,omitempty"`
	Success      *bool       `json:"success,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

// NewServerMessage stamps an outbound frame with the current UTC time.
func NewServerMessage(msgType string, data interface{}) MServerMessage {
	return MServerMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
