package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockout-service/internal/models"
)

// The store doubles as the Postgres-backed tracking store: model_versions
// holds the lifecycle state, model_artifacts the serialized payloads.

// GetLatestVersions returns, for each requested stage, the
// highest-numbered version of the model currently in that stage.
func (s *Store) GetLatestVersions(ctx context.Context, name string, stages []string) ([]models.ModelVersion, error) {
	var out []models.ModelVersion
	for _, stage := range stages {
		var mv models.ModelVersion
		err := s.db.GetContext(ctx, &mv,
			"SELECT name, version, stage, artifact_uri, created_at, updated_at FROM model_versions WHERE name = $1 AND stage = $2 ORDER BY version DESC LIMIT 1",
			name, stage)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, nil
}

// Register inserts the next version for name in Staging.
func (s *Store) Register(ctx context.Context, name, artifactURI string) (models.ModelVersion, error) {
	var mv models.ModelVersion
	err := s.db.GetContext(ctx, &mv, `
		INSERT INTO model_versions (name, version, stage, artifact_uri)
		VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = $1), $2, $3)
		RETURNING name, version, stage, artifact_uri, created_at, updated_at`,
		name, models.StageStaging, artifactURI)
	if err != nil {
		return models.ModelVersion{}, fmt.Errorf("failed to register model version: %w", err)
	}
	return mv, nil
}

// Transition moves a version to a new stage. Archiving existing Production
// versions happens in the same transaction so at most one Production
// version is ever visible.
func (s *Store) Transition(ctx context.Context, name string, version int, newStage string, archiveExisting bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if archiveExisting && newStage == models.StageProduction {
		_, err = tx.ExecContext(ctx,
			"UPDATE model_versions SET stage = $1, updated_at = NOW() WHERE name = $2 AND stage = $3 AND version <> $4",
			models.StageArchived, name, models.StageProduction, version)
		if err != nil {
			return fmt.Errorf("failed to archive production versions: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE model_versions SET stage = $1, updated_at = NOW() WHERE name = $2 AND version = $3",
		newStage, name, version)
	if err != nil {
		return fmt.Errorf("failed to transition version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("model %s version %d not found", name, version)
	}

	return tx.Commit()
}

// SaveArtifact stores a serialized model payload for a run.
func (s *Store) SaveArtifact(ctx context.Context, runID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO model_artifacts (run_id, payload) VALUES ($1, $2) ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload",
		runID, payload)
	if err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}
	return nil
}

// LoadArtifact retrieves a run's serialized model payload.
func (s *Store) LoadArtifact(ctx context.Context, runID string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM model_artifacts WHERE run_id = $1", runID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact not found for run %s", runID)
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}
