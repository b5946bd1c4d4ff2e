package models

import "time"

// MSourceConnection is the liveness record kept per ingestion source.
type MSourceConnection struct {
	SourceID              string    `json:"sourceId"`
	Active                bool      `json:"active"`
	LastUpdate            time.Time `json:"lastUpdate"`
	ConsecutiveErrorCount int       `json:"consecutiveErrorCount"`
	ReconnectAttempts     int       `json:"reconnectAttempts"`
	ReconnectScheduled    bool      `json:"reconnectScheduled"`
	LastError             string    `json:"lastError,omitempty"`
}
