package registry

import (
	"context"
	"testing"

	"stockout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsIncreasingVersions(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	v1, err := reg.Register(ctx, "stockout_classifier", RunsURI("run-1"))
	require.NoError(t, err)
	v2, err := reg.Register(ctx, "stockout_classifier", RunsURI("run-2"))
	require.NoError(t, err)

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, models.StageStaging, v1.Stage)
	assert.Equal(t, models.StageStaging, v2.Stage)
}

func TestTransitionArchivesExistingProduction(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	v1, _ := reg.Register(ctx, "m", "runs:/a/model")
	v2, _ := reg.Register(ctx, "m", "runs:/b/model")

	require.NoError(t, reg.Transition(ctx, "m", v1.Version, models.StageProduction, true))
	require.NoError(t, reg.Transition(ctx, "m", v2.Version, models.StageProduction, true))

	prod, err := reg.GetLatestVersions(ctx, "m", []string{models.StageProduction})
	require.NoError(t, err)
	require.Len(t, prod, 1)
	assert.Equal(t, v2.Version, prod[0].Version)

	archived, err := reg.GetLatestVersions(ctx, "m", []string{models.StageArchived})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, v1.Version, archived[0].Version)
}

func TestTransitionUnknownVersion(t *testing.T) {
	reg := NewMemory()

	err := reg.Transition(context.Background(), "m", 99, models.StageProduction, true)
	assert.Error(t, err)
}

func TestGetLatestVersionsPerStage(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	v1, _ := reg.Register(ctx, "m", "runs:/a/model")
	_, _ = reg.Register(ctx, "m", "runs:/b/model")
	v3, _ := reg.Register(ctx, "m", "runs:/c/model")
	require.NoError(t, reg.Transition(ctx, "m", v1.Version, models.StageProduction, true))

	got, err := reg.GetLatestVersions(ctx, "m", []string{models.StageProduction, models.StageStaging})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// sorted by version descending: latest staging first
	assert.Equal(t, v3.Version, got[0].Version)
	assert.Equal(t, models.StageStaging, got[0].Stage)
	assert.Equal(t, v1.Version, got[1].Version)
	assert.Equal(t, models.StageProduction, got[1].Stage)
}

func TestGetLatestVersionsEmptyStage(t *testing.T) {
	reg := NewMemory()

	got, err := reg.GetLatestVersions(context.Background(), "m", []string{models.StageProduction})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunsURIRoundTrip(t *testing.T) {
	uri := RunsURI("abc-123")
	assert.Equal(t, "runs:/abc-123/model", uri)

	runID, err := RunIDFromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", runID)
}

func TestRunIDFromURIInvalid(t *testing.T) {
	_, err := RunIDFromURI("s3://bucket/model")
	assert.Error(t, err)

	_, err = RunIDFromURI("runs://model")
	assert.Error(t, err)
}

func TestMemoryArtifactsRoundTrip(t *testing.T) {
	store := NewMemoryArtifacts()
	ctx := context.Background()

	require.NoError(t, store.SaveArtifact(ctx, "run-1", []byte(`{"type":"logistic"}`)))

	payload, err := store.LoadArtifact(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"type":"logistic"}`), payload)

	_, err = store.LoadArtifact(ctx, "run-2")
	assert.Error(t, err)
}
