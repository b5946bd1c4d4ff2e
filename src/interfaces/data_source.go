package interfaces

import (
	"context"

	"trend-pulse/src/models"
)

// -----------------------------------------------------------------------------
// IMetricAdapter fetches one metric sample per call from an external platform.
// -----------------------------------------------------------------------------

type IMetricAdapter interface {

	// Name returns the unique identifier of the adapter
	Name() string

	// -----------------------------------------------------------------------------

	// FetchSample returns the current sample for sourceID.
	// It must be side-effect free beyond returning data and must honor ctx.
	FetchSample(ctx context.Context, sourceID string) (models.MMetricSample, error)
}
