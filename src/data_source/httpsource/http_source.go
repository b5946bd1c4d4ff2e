package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"trend-pulse/src/interfaces"
	"trend-pulse/src/models"
)

// Adapter fetches GET {BaseURL}/sources/{id}/sample and decodes one sample.
type Adapter struct {
	BaseURL string
	Network interfaces.INetworkManager
}

func New(baseURL string, network interfaces.INetworkManager) *Adapter {
	return &Adapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: network,
	}
}

func (a *Adapter) Name() string {
	return "http"
}

// -----------------------------------------------------------------------------

func (a *Adapter) FetchSample(ctx context.Context, sourceID string) (models.MMetricSample, error) {
	endpoint := fmt.Sprintf("%s/sources/%s/sample", a.BaseURL, url.PathEscape(sourceID))

	body, err := a.Network.Get(ctx, endpoint, nil)
	if err != nil {
		return models.MMetricSample{}, err
	}

	var sample models.MMetricSample
	if err := json.Unmarshal(body, &sample); err != nil {
		return models.MMetricSample{}, fmt.Errorf("decode sample for %s: %w", sourceID, err)
	}
	if sample.SourceID == "" {
		sample.SourceID = sourceID
	}
	if sample.SourceID != sourceID {
		return models.MMetricSample{}, fmt.Errorf("sample for %s reports source %s", sourceID, sample.SourceID)
	}
	return sample, nil
}
