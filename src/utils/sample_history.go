package utils

import (
	"sort"
	"sync"

	"trend-pulse/src/models"
)

// -----------------------------------------------------------------------------
// SampleHistory keeps the most recent samples of every source, one ring per source.
// -----------------------------------------------------------------------------

type SampleHistory struct {
	streams       map[string]*RingBuffer[models.MMetricSample]
	maxDataPoints int
	mu            sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSampleHistory(maxDataPoints int) *SampleHistory {
	return &SampleHistory{
		streams:       make(map[string]*RingBuffer[models.MMetricSample]),
		maxDataPoints: maxDataPoints,
	}
}

// -----------------------------------------------------------------------------

// Add appends a sample to its source's ring.
func (h *SampleHistory) Add(sample models.MMetricSample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buffer, ok := h.streams[sample.SourceID]
	if !ok {
		buffer = NewRingBuffer[models.MMetricSample](h.maxDataPoints)
		h.streams[sample.SourceID] = buffer
	}
	buffer.Append(sample)
}

// -----------------------------------------------------------------------------

// Latest returns up to n most recent samples of a source, oldest first.
func (h *SampleHistory) Latest(sourceID string, n int) []models.MMetricSample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buffer, ok := h.streams[sourceID]
	if !ok {
		return []models.MMetricSample{}
	}
	return buffer.GetLatest(n)
}

// -----------------------------------------------------------------------------

// Series extracts one field of the n most recent samples of a source.
func (h *SampleHistory) Series(sourceID, field string, n int) []float64 {
	samples := h.Latest(sourceID, n)
	series := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := s.Field(field); ok {
			series = append(series, v)
		}
	}
	return series
}

// -----------------------------------------------------------------------------

// Sources lists the sources with history, sorted.
func (h *SampleHistory) Sources() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.streams))
	for id := range h.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// -----------------------------------------------------------------------------

// Remove forgets a source.
func (h *SampleHistory) Remove(sourceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.streams, sourceID)
}
