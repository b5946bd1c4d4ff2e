package interfaces

import "trend-pulse/src/models"

// -----------------------------------------------------------------------------
// IDeliveryHandle is where a subscriber's messages are sent.
// -----------------------------------------------------------------------------

type IDeliveryHandle interface {

	// ID identifies the connection behind the handle.
	ID() string

	// -----------------------------------------------------------------------------

	// Deliver queues msg for sending. It must not block; an error means the
	// handle is dead and its subscriptions should be dropped.
	Deliver(msg models.MServerMessage) error
}

// -----------------------------------------------------------------------------
// IDashboardProvider exposes the aggregate view to the serving layers.
// -----------------------------------------------------------------------------

type IDashboardProvider interface {

	// Snapshot returns a deep copy of the current dashboard.
	Snapshot() models.MDashboardSnapshot

	// -----------------------------------------------------------------------------

	// AcknowledgeAlert marks an alert acknowledged. Unknown ids return false.
	AcknowledgeAlert(alertID string) bool
}

// -----------------------------------------------------------------------------
// ISourceRegistry exposes ingestion source management to control surfaces.
// -----------------------------------------------------------------------------

type ISourceRegistry interface {

	// Connections lists every source connection ordered by source id.
	Connections() []models.MSourceConnection

	// -----------------------------------------------------------------------------

	// AddSource starts polling a new source. Duplicate ids are an error.
	AddSource(sourceID string) error

	// -----------------------------------------------------------------------------

	// RemoveSource stops polling a source. Unknown ids are an error.
	RemoveSource(sourceID string) error

	// -----------------------------------------------------------------------------

	// Reconnect forces a source back to active immediately.
	Reconnect(sourceID string) error
}
