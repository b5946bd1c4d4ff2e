package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"trend-pulse/src/helpers"
	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
)

// EventSink receives the metric events produced by successful polls.
type EventSink interface {
	Append(events ...models.MStreamEvent) int
}

type sourceState struct {
	conn     models.MSourceConnection
	inflight bool
	timer    *time.Timer
}

// SourceTracker owns the per-source connection records and polls every
// active source once per tick, each source in its own goroutine.
type SourceTracker struct {
	Adapter        interfaces.IMetricAdapter
	Sink           EventSink
	Tick           time.Duration
	ErrorThreshold int
	ReconnectDelay time.Duration
	Clock          func() time.Time
	Logger         *logger.Logger
	Metrics        *metrics.Metrics

	mu      sync.Mutex
	sources map[string]*sourceState
	wg      sync.WaitGroup
	closed  bool
}

// -----------------------------------------------------------------------------

func NewSourceTracker(cfg models.MIngestionConfig, adapter interfaces.IMetricAdapter, sink EventSink, m *metrics.Metrics, log *logger.Logger) *SourceTracker {
	t := &SourceTracker{
		Adapter:        adapter,
		Sink:           sink,
		Tick:           time.Duration(cfg.TickSeconds) * time.Second,
		ErrorThreshold: cfg.ErrorThreshold,
		ReconnectDelay: time.Duration(cfg.ReconnectDelaySeconds) * time.Second,
		Clock:          time.Now,
		Logger:         log,
		Metrics:        m,
		sources:        make(map[string]*sourceState),
	}

	for _, src := range cfg.Sources {
		if src.IsEnabled() {
			_ = t.AddSource(src.ID)
		}
	}
	return t
}

// -----------------------------------------------------------------------------

// AddSource registers a new active source. It is polled from the next tick.
func (t *SourceTracker) AddSource(sourceID string) error {
	if sourceID == "" {
		return fmt.Errorf("source id cannot be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sources[sourceID]; exists {
		return fmt.Errorf("source %s already exists", sourceID)
	}
	t.sources[sourceID] = &sourceState{
		conn: models.MSourceConnection{SourceID: sourceID, Active: true},
	}
	t.setActiveMetric(sourceID, true)
	t.Logger.Info("Added source: %s", sourceID)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource forgets a source and cancels any pending reconnect.
func (t *SourceTracker) RemoveSource(sourceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, exists := t.sources[sourceID]
	if !exists {
		return fmt.Errorf("source %s not found", sourceID)
	}
	if state.timer != nil {
		state.timer.Stop()
	}
	delete(t.sources, sourceID)
	if t.Metrics != nil {
		t.Metrics.ForgetSource(sourceID)
	}
	t.Logger.Info("Removed source: %s", sourceID)
	return nil
}

// -----------------------------------------------------------------------------

// Reconnect reactivates a source immediately, cancelling a scheduled reconnect.
func (t *SourceTracker) Reconnect(sourceID string) error {
	t.mu.Lock()
	state, exists := t.sources[sourceID]
	if exists && state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
	t.mu.Unlock()

	if !exists {
		return fmt.Errorf("source %s not found", sourceID)
	}
	t.reconnect(sourceID)
	return nil
}

// -----------------------------------------------------------------------------

// Connections returns copies of every connection record, sorted by source id.
func (t *SourceTracker) Connections() []models.MSourceConnection {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := make([]models.MSourceConnection, 0, len(t.sources))
	for _, s := range t.sources {
		list = append(list, s.conn)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SourceID < list[j].SourceID })
	return list
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) Connection(sourceID string) (models.MSourceConnection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sources[sourceID]
	if !ok {
		return models.MSourceConnection{}, false
	}
	return s.conn, true
}

// -----------------------------------------------------------------------------

// Run polls on every tick until ctx is cancelled, then waits for in-flight
// polls and stops pending reconnect timers.
func (t *SourceTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.Tick)
	defer ticker.Stop()

	t.Logger.Info("Ingestion started: tick=%v threshold=%d reconnect=%v", t.Tick, t.ErrorThreshold, t.ReconnectDelay)
	t.startPolls(ctx)

	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			return nil
		case <-ticker.C:
			t.startPolls(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// PollOnce polls every active source and waits for all of them.
func (t *SourceTracker) PollOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, id := range t.claimActive() {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			t.poll(ctx, id)
		}(id)
	}
	wg.Wait()
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) startPolls(ctx context.Context) {
	for _, id := range t.claimActive() {
		t.wg.Add(1)
		go func(id string) {
			defer t.wg.Done()
			t.poll(ctx, id)
		}(id)
	}
}

// -----------------------------------------------------------------------------

// claimActive marks every active, idle source in-flight and returns their ids.
func (t *SourceTracker) claimActive() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.sources))
	for id, s := range t.sources {
		if s.conn.Active && !s.inflight {
			s.inflight = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// -----------------------------------------------------------------------------

type fetchResult struct {
	sample models.MMetricSample
	err    error
}

// poll runs one adapter call bounded by one tick.
func (t *SourceTracker) poll(ctx context.Context, sourceID string) {
	defer t.release(sourceID)

	pollCtx, cancel := context.WithTimeout(ctx, t.Tick)
	defer cancel()

	results := make(chan fetchResult, 1)
	go func() {
		sample, err := t.Adapter.FetchSample(pollCtx, sourceID)
		results <- fetchResult{sample: sample, err: err}
	}()

	var res fetchResult
	select {
	case res = <-results:
	case <-pollCtx.Done():
		res.err = fmt.Errorf("no sample within %v: %w", t.Tick, pollCtx.Err())
	}

	if ctx.Err() != nil {
		return
	}
	if res.err != nil {
		t.recordFailure(sourceID, helpers.NewAdapterError(sourceID, res.err))
		return
	}
	t.recordSuccess(sourceID, res.sample)
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) release(sourceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sources[sourceID]; ok {
		s.inflight = false
	}
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) recordSuccess(sourceID string, sample models.MMetricSample) {
	now := t.Clock()
	if sample.SourceID == "" {
		sample.SourceID = sourceID
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = now.UTC()
	}

	t.mu.Lock()
	state, ok := t.sources[sourceID]
	if !ok || !state.conn.Active {
		t.mu.Unlock()
		return
	}
	state.conn.ConsecutiveErrorCount = 0
	state.conn.LastUpdate = now.UTC()
	state.conn.LastError = ""
	t.mu.Unlock()

	t.Sink.Append(models.NewStreamEvent(sample, sourceID, models.PriorityLow, sample.Timestamp))
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) recordFailure(sourceID string, err error) {
	var adapterErr *helpers.AdapterError
	if errors.As(err, &adapterErr) && t.Metrics != nil {
		t.Metrics.AdapterErrors.WithLabelValues(sourceID).Inc()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sources[sourceID]
	if !ok || !state.conn.Active {
		return
	}
	state.conn.ConsecutiveErrorCount++
	state.conn.LastError = err.Error()

	log := t.Logger.WithFields(logger.Fields{"source_id": sourceID, "errors": state.conn.ConsecutiveErrorCount})
	log.WithError(err).Warning("Poll failed")

	if state.conn.ConsecutiveErrorCount < t.ErrorThreshold || t.closed {
		return
	}

	state.conn.Active = false
	state.conn.ReconnectScheduled = true
	state.timer = time.AfterFunc(t.ReconnectDelay, func() { t.reconnect(sourceID) })
	t.setActiveMetric(sourceID, false)
	log.Error("Source marked inactive, reconnecting in %v", t.ReconnectDelay)
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) reconnect(sourceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sources[sourceID]
	if !ok || t.closed {
		return
	}
	state.timer = nil
	state.conn.ReconnectScheduled = false
	state.conn.ConsecutiveErrorCount = 0
	if state.conn.Active {
		return
	}

	state.conn.Active = true
	state.conn.ReconnectAttempts++
	t.setActiveMetric(sourceID, true)
	if t.Metrics != nil {
		t.Metrics.Reconnects.WithLabelValues(sourceID).Inc()
	}
	t.Logger.WithFields(logger.Fields{"source_id": sourceID, "attempt": state.conn.ReconnectAttempts}).Info("Source reconnected")
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) shutdown() {
	t.mu.Lock()
	t.closed = true
	for _, s := range t.sources {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	t.mu.Unlock()

	t.wg.Wait()
	t.Logger.Info("Ingestion stopped")
}

// -----------------------------------------------------------------------------

func (t *SourceTracker) setActiveMetric(sourceID string, active bool) {
	if t.Metrics != nil {
		t.Metrics.SetSourceActive(sourceID, active)
	}
}
