package interfaces

import (
	"time"

	"trend-pulse/src/models"
)

// -----------------------------------------------------------------------------
// IEventStore is the audit journal for alerts, recommendations and acks.
// -----------------------------------------------------------------------------

type IEventStore interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveAlert records a raised alert.
	SaveAlert(alert models.MAlert) error

	// -----------------------------------------------------------------------------

	// SaveRecommendation records a generated recommendation.
	SaveRecommendation(rec models.MRecommendation) error

	// -----------------------------------------------------------------------------

	// SaveAcknowledgement records that an alert was acknowledged at the given time.
	SaveAcknowledgement(alertID string, at time.Time) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes rows older than cutoff.
	CleanupOldData(cutoff time.Time) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
