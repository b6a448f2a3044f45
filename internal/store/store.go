package store

import (
	"context"
	"fmt"
	"time"

	"stockout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// SaveDriftReport persists one continued-evaluation outcome. The per-row
// baseline predictions are ephemeral and not stored.
func (s *Store) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drift_reports (run_id, psi, kl, psi_ok, kl_ok, fallback_triggered, rollback_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.RunID, report.PSI, report.KL, report.PSIOk, report.KLOk,
		report.FallbackTriggered, report.RollbackVersion, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert drift report: %w", err)
	}
	return nil
}

// GetDriftReports returns the most recent drift reports, newest first.
func (s *Store) GetDriftReports(ctx context.Context, limit int) ([]models.DriftReport, error) {
	var reports []models.DriftReport
	err := s.db.SelectContext(ctx, &reports,
		"SELECT run_id, psi, kl, psi_ok, kl_ok, fallback_triggered, rollback_version, created_at FROM drift_reports ORDER BY created_at DESC LIMIT $1",
		limit)
	return reports, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
