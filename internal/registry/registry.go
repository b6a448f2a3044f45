// Package registry defines the model tracking-store boundary: a versioned
// store of model artifacts keyed by name, version and lifecycle stage. The
// controller and scoring paths take it as an injected capability so tests
// can run against the in-memory implementation.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockout-service/internal/models"
)

// ErrNoModelAvailable is returned when no version matches the requested
// stage. Fatal for scoring and batch-predict paths.
var ErrNoModelAvailable = errors.New("no model available for requested stage")

// Registry is the tracking-store interface.
type Registry interface {
	// GetLatestVersions returns, per requested stage, the highest-numbered
	// version currently in that stage. Stages with no versions contribute
	// nothing to the result.
	GetLatestVersions(ctx context.Context, name string, stages []string) ([]models.ModelVersion, error)

	// Register creates the next version record for name in Staging.
	Register(ctx context.Context, name, artifactURI string) (models.ModelVersion, error)

	// Transition moves a version to a new stage. When archiveExisting is
	// set and the new stage is Production, all other Production versions
	// of the same name are archived in the same atomic step.
	Transition(ctx context.Context, name string, version int, newStage string, archiveExisting bool) error
}

// ArtifactStore persists serialized model payloads keyed by run id.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, runID string, payload []byte) error
	LoadArtifact(ctx context.Context, runID string) ([]byte, error)
}

// RunsURI renders the artifact URI for a run's model.
func RunsURI(runID string) string {
	return fmt.Sprintf("runs:/%s/model", runID)
}

// RunIDFromURI extracts the run id from a runs:/ artifact URI.
func RunIDFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "runs:/")
	if !ok {
		return "", fmt.Errorf("not a runs URI: %s", uri)
	}
	runID, _, _ := strings.Cut(rest, "/")
	if runID == "" {
		return "", fmt.Errorf("empty run id in URI: %s", uri)
	}
	return runID, nil
}
