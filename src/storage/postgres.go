package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	ConnectionString string
	DB               *sql.DB
	Schema           string
	Logger           *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresStore names the schema after the running executable so several
// deployments can share one database.
func NewPostgresStore(cfg models.MStorageConfig, log *logger.Logger) (*PostgresStore, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresStore{
		ConnectionString: cfg.DBConnectionString,
		Schema:           name,
		Logger:           log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	db, err := sql.Open("postgres", d.ConnectionString)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}
	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source_id TEXT,
			category TEXT,
			severity TEXT,
			rule TEXT,
			message TEXT,
			payload JSONB,
			actions JSONB,
			created_at BIGINT,
			acknowledged_at BIGINT
		);`, d.table("alerts")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source_id TEXT,
			kind TEXT,
			description TEXT,
			confidence DOUBLE PRECISION,
			expected_impact DOUBLE PRECISION,
			requires_action BOOLEAN,
			auto_apply BOOLEAN,
			created_at BIGINT
		);`, d.table("recommendations")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			alert_id TEXT,
			acknowledged_at BIGINT
		);`, d.table("acknowledgements")),
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create journal tables: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveAlert(alert models.MAlert) error {
	payload, actions, err := encodeAlert(alert)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, source_id, category, severity, rule, message, payload, actions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, d.table("alerts"))
	_, err = d.DB.Exec(query, alert.ID, alert.SourceID, string(alert.Category), string(alert.Severity), alert.Rule, alert.Message, payload, actions, alert.Timestamp.UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveRecommendation(rec models.MRecommendation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, source_id, kind, description, confidence, expected_impact, requires_action, auto_apply, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, d.table("recommendations"))
	_, err := d.DB.Exec(query, rec.ID, rec.SourceID, string(rec.Kind), rec.Description, rec.Confidence, rec.ExpectedImpact, rec.RequiresAction, rec.AutoApply, rec.Timestamp.UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveAcknowledgement(alertID string, at time.Time) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s (alert_id, acknowledged_at) VALUES ($1, $2)", d.table("acknowledgements")), alertID, at.UnixMilli()); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET acknowledged_at = $1 WHERE id = $2 AND acknowledged_at IS NULL", d.table("alerts")), at.UnixMilli(), alertID); err != nil {
		return err
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) CleanupOldData(cutoff time.Time) error {
	ms := cutoff.UnixMilli()
	for table, column := range map[string]string{
		"alerts":           "created_at",
		"recommendations":  "created_at",
		"acknowledgements": "acknowledged_at",
	} {
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s < $1", d.table(table), column), ms); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
