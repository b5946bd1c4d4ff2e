package stream

import (
	"sync"

	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// Buffer is the bounded FIFO of stream events between ingestion and analysis.
// Appending to a full buffer evicts the oldest event.
type Buffer struct {
	items   *utils.RingBuffer[models.MStreamEvent]
	dropped uint64
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// -----------------------------------------------------------------------------

// NewBuffer creates a buffer holding at most capacity events. m may be nil.
func NewBuffer(capacity int, m *metrics.Metrics) *Buffer {
	return &Buffer{
		items:   utils.NewRingBuffer[models.MStreamEvent](capacity),
		metrics: m,
	}
}

// -----------------------------------------------------------------------------

// Append enqueues events in order and returns how many older events were evicted.
func (b *Buffer) Append(events ...models.MStreamEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for _, evt := range events {
		if _, dropped := b.items.Append(evt); dropped {
			evicted++
		}
	}
	b.dropped += uint64(evicted)

	if b.metrics != nil {
		b.metrics.BufferDropped.Add(float64(evicted))
		b.metrics.BufferLength.Set(float64(b.items.Size()))
	}
	return evicted
}

// -----------------------------------------------------------------------------

// Drain removes up to max events from the front. The rest stay queued.
func (b *Buffer) Drain(max int) []models.MStreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.items.PopFront(max)
	if b.metrics != nil {
		b.metrics.BufferLength.Set(float64(b.items.Size()))
	}
	return batch
}

// -----------------------------------------------------------------------------

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Size()
}

func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Capacity()
}

// Dropped is the total number of events evicted since creation.
func (b *Buffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
