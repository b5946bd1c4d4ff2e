package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"trend-pulse/src/analysis"
	"trend-pulse/src/broadcast"
	"trend-pulse/src/config"
	"trend-pulse/src/dashboard"
	datasource "trend-pulse/src/data_source"
	"trend-pulse/src/data_source/httpsource"
	"trend-pulse/src/data_source/simulated"
	"trend-pulse/src/grpc_control"
	"trend-pulse/src/helpers"
	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
	"trend-pulse/src/network"
	"trend-pulse/src/server"
	"trend-pulse/src/storage"
	"trend-pulse/src/stream"
	"trend-pulse/src/utils"

	"golang.org/x/sync/errgroup"
)

// Options overrides collaborators that are otherwise built from config.
type Options struct {
	ConfigPath string
	Adapter    interfaces.IMetricAdapter
	Clock      func() time.Time
	Random     func() float64
}

// Pipeline is the application context. It owns every component and runs
// the ingestion, drain and dashboard loops plus the serving layers.
type Pipeline struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Clock     func() time.Time
	Buffer    *stream.Buffer
	Tracker   *datasource.SourceTracker
	Analysis  *analysis.AnalysisFacade
	Dashboard *dashboard.Aggregator
	Hub       *broadcast.Hub
	Server    *server.Server
	Control   *grpc_control.ControlService
	Journal   *storage.Journal

	// analysisMutex serialises the facade between the drain loop, the
	// dashboard tick and source removal.
	analysisMutex sync.Mutex
}

// -----------------------------------------------------------------------------

func New(cfg *config.Config, opts Options, log *logger.Logger) (*Pipeline, error) {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	random := opts.Random
	if random == nil {
		random = rand.Float64
	}

	urgent := make([]models.Priority, 0, len(cfg.Broadcast.UrgentPriorities))
	for _, name := range cfg.Broadcast.UrgentPriorities {
		p, err := models.ParsePriority(name)
		if err != nil {
			return nil, helpers.NewConfigurationError("invalid urgent priority", err)
		}
		urgent = append(urgent, p)
	}

	adapter := opts.Adapter
	if adapter == nil {
		var err error
		if adapter, err = buildAdapter(cfg.MConfig, log); err != nil {
			return nil, err
		}
	}

	m := metrics.New("trend_pulse")
	p := &Pipeline{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Clock:   clock,
		Buffer:  stream.NewBuffer(cfg.Stream.BufferCapacity, m),
	}

	calendar := utils.NewBusinessCalendar(cfg.Recommendations.Calendar, log.Named("calendar"))

	p.Tracker = datasource.NewSourceTracker(cfg.Ingestion, adapter, p.Buffer, m, log.Named("ingestion"))
	p.Tracker.Clock = clock
	p.Analysis = analysis.NewAnalysisFacade(cfg.MConfig, calendar, clock, random, log.Named("analysis"))
	p.Dashboard = dashboard.NewAggregator(cfg.MConfig, clock, m, log.Named("dashboard"))
	p.Hub = broadcast.NewHub(urgent, m, log.Named("broadcast"))
	p.Server = server.NewServer(cfg.MConfig, p.Hub, p, p, m, log.Named("server"))
	p.Control = grpc_control.NewControlService(cfg, opts.ConfigPath, p, p, log.Named("control"))

	store, err := storage.NewEventStore(cfg.Storage, log.Named("storage"))
	if err != nil {
		return nil, err
	}
	if store != nil {
		p.Journal = storage.NewJournal(store, cfg.Storage.QueueSize, m, log.Named("journal"))
	}

	log.Info("Pipeline ready: adapter=%s sources=%d buffer=%d", adapter.Name(), len(p.Tracker.Connections()), cfg.Stream.BufferCapacity)
	return p, nil
}

// -----------------------------------------------------------------------------

func buildAdapter(cfg *models.MConfig, log *logger.Logger) (interfaces.IMetricAdapter, error) {
	switch cfg.Ingestion.Adapter {
	case "simulated":
		return simulated.New(cfg.Ingestion.FailureRate, uint64(time.Now().UnixNano())), nil
	case "http":
		nm := network.NewAsyncNetworkManager(cfg.Network, log.Named("network"))
		return httpsource.New(cfg.Ingestion.BaseURL, nm), nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported adapter: %s", cfg.Ingestion.Adapter), nil)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts every loop and serving layer and blocks until ctx is cancelled
// or one of them fails.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if p.Journal != nil {
		g.Go(func() error { return p.Journal.Run(ctx) })
	}

	g.Go(func() error { return p.Tracker.Run(ctx) })

	g.Go(func() error {
		p.every(ctx, time.Duration(p.Config.Stream.DrainIntervalSeconds)*time.Second, "drain", func() { p.DrainOnce() })
		return nil
	})

	g.Go(func() error {
		p.every(ctx, time.Duration(p.Config.Dashboard.RefreshIntervalSeconds)*time.Second, "dashboard", p.DashboardTick)
		return nil
	})

	g.Go(func() error { return p.Server.Run(ctx) })

	if p.Config.GrpcPort > 0 {
		addr := fmt.Sprintf("%s:%d", p.Config.GrpcHost, p.Config.GrpcPort)
		g.Go(func() error { return grpc_control.Serve(ctx, addr, p.Control, p.Logger.Named("grpc")) })
	}

	err := g.Wait()
	p.Logger.Info("Pipeline stopped")
	return err
}

// -----------------------------------------------------------------------------

// every runs fn on each tick. A panic in fn is logged and the loop keeps going.
func (p *Pipeline) every(ctx context.Context, interval time.Duration, name string, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						p.Logger.WithError(helpers.Recovered(r)).Error("%s loop iteration panicked", name)
					}
				}()
				fn()
			}()
		}
	}
}

// -----------------------------------------------------------------------------
// Loops
// -----------------------------------------------------------------------------

// DrainOnce takes one batch from the buffer, fans it out to subscribers and
// the dashboard, analyzes it, and feeds the derived events back into the
// buffer. It returns the batch size.
func (p *Pipeline) DrainOnce() int {
	start := time.Now()
	batch := p.Buffer.Drain(p.Config.Stream.BatchSize)
	if len(batch) == 0 {
		return 0
	}

	for _, evt := range batch {
		p.Hub.Publish(evt)
		p.Dashboard.Apply(evt)
		p.Metrics.EventsProcessed.WithLabelValues(string(evt.Kind)).Inc()
	}

	p.analysisMutex.Lock()
	result := p.Analysis.ProcessBatch(batch)
	p.analysisMutex.Unlock()

	for _, err := range result.RuleErrors {
		p.Metrics.RuleErrors.Inc()
		p.Logger.WithError(err).Warning("Alert rule skipped")
	}

	if len(result.Events) > 0 {
		p.Buffer.Append(result.Events...)
		if p.Journal != nil {
			p.Journal.RecordEvents(result.Events)
		}
	}

	p.Metrics.DrainDuration.Observe(time.Since(start).Seconds())
	return len(batch)
}

// -----------------------------------------------------------------------------

// DashboardTick prunes the dashboard, maybe synthesizes a recommendation,
// and pushes a DASHBOARD_UPDATE to every connection.
func (p *Pipeline) DashboardTick() {
	pruned := p.Dashboard.Prune()
	if pruned.Metrics+pruned.Trends+pruned.Alerts > 0 {
		p.Logger.Debug("Pruned %d metrics, %d trends, %d alerts", pruned.Metrics, pruned.Trends, pruned.Alerts)
	}

	recent := p.Dashboard.RecentMetrics()
	p.analysisMutex.Lock()
	rec, ok := p.Analysis.Recommendations.Trigger(recent)
	p.analysisMutex.Unlock()

	if ok {
		evt := models.NewStreamEvent(rec, rec.SourceID, rec.Priority(), rec.Timestamp)
		p.Buffer.Append(evt)
		if p.Journal != nil {
			p.Journal.RecordEvents([]models.MStreamEvent{evt})
		}
	}

	p.Server.PushDashboard(p.Dashboard.Snapshot())

	if p.Journal != nil {
		p.Journal.Cleanup(p.Dashboard.Cutoff())
	}
}

// -----------------------------------------------------------------------------
// IDashboardProvider
// -----------------------------------------------------------------------------

func (p *Pipeline) Snapshot() models.MDashboardSnapshot {
	return p.Dashboard.Snapshot()
}

func (p *Pipeline) AcknowledgeAlert(alertID string) bool {
	ok := p.Dashboard.AcknowledgeAlert(alertID)
	if ok && p.Journal != nil {
		p.Journal.RecordAcknowledgement(alertID, p.Clock().UTC())
	}
	return ok
}

// -----------------------------------------------------------------------------
// ISourceRegistry
// -----------------------------------------------------------------------------

func (p *Pipeline) Connections() []models.MSourceConnection {
	return p.Tracker.Connections()
}

func (p *Pipeline) AddSource(sourceID string) error {
	return p.Tracker.AddSource(sourceID)
}

func (p *Pipeline) RemoveSource(sourceID string) error {
	if err := p.Tracker.RemoveSource(sourceID); err != nil {
		return err
	}
	p.analysisMutex.Lock()
	p.Analysis.Forget(sourceID)
	p.analysisMutex.Unlock()
	return nil
}

func (p *Pipeline) Reconnect(sourceID string) error {
	return p.Tracker.Reconnect(sourceID)
}
