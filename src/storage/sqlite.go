package storage

import (
	"database/sql"
	"fmt"
	"time"

	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Path   string
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg models.MStorageConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		Path:   cfg.DBPath,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	// Single writer; the journal serialises access anyway
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables() error {
	// SQLite types: INTEGER for unix millis and flags, REAL for float64, TEXT for string
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			source_id TEXT,
			category TEXT,
			severity TEXT,
			rule TEXT,
			message TEXT,
			payload TEXT,
			actions TEXT,
			created_at INTEGER,
			acknowledged_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			source_id TEXT,
			kind TEXT,
			description TEXT,
			confidence REAL,
			expected_impact REAL,
			requires_action INTEGER,
			auto_apply INTEGER,
			created_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS acknowledgements (
			alert_id TEXT,
			acknowledged_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations (created_at);`,
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create journal tables: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) SaveAlert(alert models.MAlert) error {
	payload, actions, err := encodeAlert(alert)
	if err != nil {
		return err
	}
	_, err = d.DB.Exec(`
		INSERT OR IGNORE INTO alerts (id, source_id, category, severity, rule, message, payload, actions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, alert.ID, alert.SourceID, string(alert.Category), string(alert.Severity), alert.Rule, alert.Message, payload, actions, alert.Timestamp.UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) SaveRecommendation(rec models.MRecommendation) error {
	_, err := d.DB.Exec(`
		INSERT OR IGNORE INTO recommendations (id, source_id, kind, description, confidence, expected_impact, requires_action, auto_apply, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SourceID, string(rec.Kind), rec.Description, rec.Confidence, rec.ExpectedImpact, rec.RequiresAction, rec.AutoApply, rec.Timestamp.UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) SaveAcknowledgement(alertID string, at time.Time) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO acknowledgements (alert_id, acknowledged_at) VALUES (?, ?)", alertID, at.UnixMilli()); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE alerts SET acknowledged_at = ? WHERE id = ? AND acknowledged_at IS NULL", at.UnixMilli(), alertID); err != nil {
		return err
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) CleanupOldData(cutoff time.Time) error {
	ms := cutoff.UnixMilli()

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deleted := int64(0)
	for _, q := range []string{
		"DELETE FROM alerts WHERE created_at < ?",
		"DELETE FROM recommendations WHERE created_at < ?",
		"DELETE FROM acknowledgements WHERE acknowledged_at < ?",
	} {
		res, err := tx.Exec(q, ms)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if deleted > 0 {
		d.Logger.Debug("Journal cleanup removed %d rows older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
