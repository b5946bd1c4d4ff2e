package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trend-pulse/src/helpers"
	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
)

// -----------------------------------------------------------------------------

// NewEventStore builds the configured store. An empty db type disables the
// journal and returns nil.
func NewEventStore(cfg models.MStorageConfig, log *logger.Logger) (interfaces.IEventStore, error) {
	switch cfg.DBType {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLiteStore(cfg, log), nil
	case "postgres":
		store, err := NewPostgresStore(cfg, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported database type: %s", cfg.DBType), nil)
}

// -----------------------------------------------------------------------------

func encodeAlert(alert models.MAlert) (string, string, error) {
	payload, err := json.Marshal(alert.Payload)
	if err != nil {
		return "", "", helpers.NewStorageError("encode alert payload", err)
	}
	actions, err := json.Marshal(alert.Actions)
	if err != nil {
		return "", "", helpers.NewStorageError("encode alert actions", err)
	}
	return string(payload), string(actions), nil
}

// -----------------------------------------------------------------------------
// Journal
// -----------------------------------------------------------------------------

type journalOp struct {
	alert   *models.MAlert
	rec     *models.MRecommendation
	ackID   string
	ackAt   time.Time
	cleanup *time.Time
}

// Journal writes to an IEventStore from a single background goroutine so
// the pipeline never waits on the database. Records are dropped when the
// queue is full.
type Journal struct {
	Store   interfaces.IEventStore
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	queue chan journalOp
}

// -----------------------------------------------------------------------------

func NewJournal(store interfaces.IEventStore, queueSize int, m *metrics.Metrics, log *logger.Logger) *Journal {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Journal{
		Store:   store,
		Logger:  log,
		Metrics: m,
		queue:   make(chan journalOp, queueSize),
	}
}

// -----------------------------------------------------------------------------

// RecordEvents journals the alerts and recommendations among events.
func (j *Journal) RecordEvents(events []models.MStreamEvent) {
	for _, evt := range events {
		switch p := evt.Payload.(type) {
		case models.MAlert:
			alert := p.Clone()
			j.enqueue(journalOp{alert: &alert})
		case models.MRecommendation:
			rec := p
			j.enqueue(journalOp{rec: &rec})
		}
	}
}

// -----------------------------------------------------------------------------

func (j *Journal) RecordAcknowledgement(alertID string, at time.Time) {
	j.enqueue(journalOp{ackID: alertID, ackAt: at})
}

// -----------------------------------------------------------------------------

// Cleanup queues deletion of rows older than cutoff.
func (j *Journal) Cleanup(cutoff time.Time) {
	j.enqueue(journalOp{cleanup: &cutoff})
}

// -----------------------------------------------------------------------------

// Pending is the number of queued writes.
func (j *Journal) Pending() int {
	return len(j.queue)
}

// -----------------------------------------------------------------------------

func (j *Journal) enqueue(op journalOp) {
	select {
	case j.queue <- op:
	default:
		if j.Metrics != nil {
			j.Metrics.JournalDropped.Inc()
		}
		j.Logger.Warning("Journal queue full, record dropped")
	}
}

// -----------------------------------------------------------------------------

// Run initializes the store and applies queued writes until ctx is
// cancelled. Writes still queued at shutdown are flushed before the store
// is closed.
func (j *Journal) Run(ctx context.Context) error {
	if err := j.Store.Initialize(); err != nil {
		return helpers.NewStorageError("initialize journal", err)
	}
	j.Logger.Info("Journal started")

	for {
		select {
		case op := <-j.queue:
			j.apply(op)
		case <-ctx.Done():
			for {
				select {
				case op := <-j.queue:
					j.apply(op)
				default:
					j.Logger.Info("Journal stopped")
					return j.Store.Close()
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (j *Journal) apply(op journalOp) {
	var err error
	switch {
	case op.alert != nil:
		err = j.Store.SaveAlert(*op.alert)
	case op.rec != nil:
		err = j.Store.SaveRecommendation(*op.rec)
	case op.cleanup != nil:
		err = j.Store.CleanupOldData(*op.cleanup)
	case op.ackID != "":
		err = j.Store.SaveAcknowledgement(op.ackID, op.ackAt)
	}
	if err != nil {
		j.Logger.WithError(helpers.NewStorageError("journal write", err)).Error("Journal write failed")
	}
}
